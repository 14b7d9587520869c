// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"math"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"mapforge/internal/app"
	"mapforge/internal/render"
	"mapforge/internal/tool"
	"mapforge/internal/view"
	"mapforge/pkg/geometry"
	"mapforge/ui/canvas"
)

const prefKeyLastDir = "lastDirectory"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	canvas    *canvas.WorldCanvas
	prompt    *widget.Entry
	statusBar *widget.Label

	undoItem *fyne.MenuItem
	redoItem *fyne.MenuItem
}

// New creates the main window bound to the application state.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow("MapForge")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.Resize(fyne.NewSize(1280, 800))

	return mw
}

// setupUI creates the main layout: toolbar, canvas, status bar.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(mw.state)
	mw.statusBar = widget.NewLabel("Ready")

	mw.prompt = widget.NewEntry()
	mw.prompt.SetPlaceHolder("Describe what to generate...")

	content := container.NewBorder(
		mw.createToolbar(),                // top
		container.NewPadded(mw.statusBar), // bottom
		nil,
		nil,
		mw.canvas,
	)
	mw.SetContent(content)
}

// createToolbar creates the tool buttons and the prompt entry.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	toolBtn := func(label string, t tool.Tool) *widget.Button {
		return widget.NewButton(label, func() {
			mw.state.SetTool(t)
			mw.updateStatus(t.String() + " tool")
		})
	}

	generateBtn := widget.NewButton("Generate", mw.onGenerate)

	return container.NewBorder(
		nil, nil,
		container.NewHBox(
			toolBtn("Pointer", tool.Pointer),
			toolBtn("Rectangle", tool.Rectangle),
			toolBtn("Brush", tool.Brush),
			toolBtn("Eraser", tool.Eraser),
			widget.NewSeparator(),
			widget.NewButton("Undo", mw.onUndo),
			widget.NewButton("Redo", mw.onRedo),
		),
		generateBtn,
		mw.prompt,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Image...", mw.onImportImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Flattened PNG...", mw.onExportPNG),
		fyne.NewMenuItem("Export Layer Archive...", mw.onExportArchive),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	mw.undoItem = fyne.NewMenuItem("Undo", mw.onUndo)
	mw.redoItem = fyne.NewMenuItem("Redo", mw.onRedo)
	editMenu := fyne.NewMenu("Edit", mw.undoItem, mw.redoItem)

	generateMenu := fyne.NewMenu("Generate",
		fyne.NewMenuItem("Object From Selection", mw.onGenerateObject),
		fyne.NewMenuItem("Object From Brush Mask", mw.onGenerateBrush),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Base Tile Here", mw.onGenerateBase),
		fyne.NewMenuItem("Seamless Tile Here", mw.onGenerateNeighbor),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, generateMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventSceneChanged, func(_ any) {
		mw.canvas.Refresh()
	})
	mw.state.On(app.EventHistoryChanged, func(_ any) {
		mw.undoItem.Disabled = !mw.state.CanUndo()
		mw.redoItem.Disabled = !mw.state.CanRedo()
	})
	mw.state.On(app.EventViewChanged, func(_ any) {
		mw.canvas.Refresh()
	})
	mw.state.On(app.EventGenerationStarted, func(_ any) {
		mw.updateStatus("Generating...")
	})
	mw.state.On(app.EventGenerationComplete, func(data any) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Generation failed: " + err.Error())
			return
		}
		mw.updateStatus("Generation complete")
	})
	mw.state.On(app.EventProjectLoaded, func(data any) {
		if path, ok := data.(string); ok {
			mw.SetTitle("MapForge - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
		}
	})
	mw.state.On(app.EventProjectSaved, func(data any) {
		if path, ok := data.(string); ok {
			mw.updateStatus("Project saved: " + path)
		}
	})
}

func (mw *MainWindow) onUndo() { mw.state.Undo() }
func (mw *MainWindow) onRedo() { mw.state.Redo() }

// onGenerate picks the generation mode from the active transient state:
// a selection produces a rectangle object, a brush mask a masked object,
// and neither a seamless tile at the viewport center.
func (mw *MainWindow) onGenerate() {
	if _, ok := mw.state.Selection(); ok {
		mw.onGenerateObject()
		return
	}
	if mw.state.BrushMask() != nil {
		mw.onGenerateBrush()
		return
	}
	mw.onGenerateNeighbor()
}

func (mw *MainWindow) onGenerateObject() {
	mw.runGeneration(func(ctx context.Context, prompt string) error {
		_, err := mw.state.GenerateObject(ctx, prompt)
		return err
	})
}

func (mw *MainWindow) onGenerateBrush() {
	mw.runGeneration(func(ctx context.Context, prompt string) error {
		_, err := mw.state.GenerateBrushObject(ctx, prompt)
		return err
	})
}

func (mw *MainWindow) onGenerateBase() {
	rect := mw.centerTileRect()
	mw.runGeneration(func(ctx context.Context, prompt string) error {
		_, err := mw.state.GenerateBaseTexture(ctx, prompt, rect)
		return err
	})
}

func (mw *MainWindow) onGenerateNeighbor() {
	rect := mw.centerTileRect()
	mw.runGeneration(func(ctx context.Context, prompt string) error {
		_, err := mw.state.GenerateNeighborTile(ctx, prompt, rect)
		return err
	})
}

// runGeneration dispatches off the UI goroutine; the generation call
// blocks until the collaborator answers.
func (mw *MainWindow) runGeneration(run func(context.Context, string) error) {
	prompt := mw.prompt.Text
	if prompt == "" {
		mw.updateStatus("Enter a prompt first")
		return
	}
	go func() {
		if err := run(context.Background(), prompt); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}()
}

// centerTileRect returns the world tile rect under the viewport center,
// snapped to the tile grid.
func (mw *MainWindow) centerTileRect() geometry.Rect {
	tile := float64(mw.state.Config().TileSize)
	size := mw.Canvas().Size()
	center := view.Visible(mw.state.View(), float64(size.Width), float64(size.Height)).Center()
	return geometry.NewRect(
		math.Floor(center.X/tile)*tile,
		math.Floor(center.Y/tile)*tile,
		tile, tile,
	)
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		mw.saveLastDir(path)
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".mapforge"}))
	if dir := mw.getLastDir(); dir != nil {
		fd.SetLocation(dir)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("untitled.mapforge")
	fd.Show()
}

func (mw *MainWindow) onImportImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		mw.saveLastDir(path)
		if _, err := mw.state.LoadImageLayer(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(render.SupportedFormats()))
	fd.Show()
}

func (mw *MainWindow) onExportPNG() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := mw.state.ExportPNG(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + path)
	}, mw.Window)
	fd.SetFileName("scene.png")
	fd.Show()
}

func (mw *MainWindow) onExportArchive() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := mw.state.ExportArchive(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + path)
	}, mw.Window)
	fd.SetFileName("layers.zip")
	fd.Show()
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir remembers the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}
