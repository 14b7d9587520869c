// Package app provides application lifecycle management, configuration,
// and events.
//
// State is the single owner of scene mutation. Interactive edits route
// through the tool machine; every terminal edit produces a new scene
// snapshot and commits it to history, while in-progress drags only touch
// a working copy so history stays dense with meaningful states.
package app

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"mapforge/internal/config"
	"mapforge/internal/export"
	"mapforge/internal/gen"
	"mapforge/internal/mask"
	"mapforge/internal/project"
	"mapforge/internal/render"
	"mapforge/internal/scene"
	"mapforge/internal/tool"
	"mapforge/internal/view"
	"mapforge/pkg/geometry"
)

var (
	// ErrNoSelection rejects a rectangle generation with no active
	// selection.
	ErrNoSelection = errors.New("app: no selection rectangle is active")
	// ErrEmptyMask rejects a brush generation before any stroke was
	// painted.
	ErrEmptyMask = errors.New("app: brush mask is empty")
	// ErrLayerNotFound reports an operation against an unknown layer id.
	ErrLayerNotFound = errors.New("app: layer not found")
)

// EventType identifies different application events.
type EventType int

const (
	EventSceneChanged EventType = iota
	EventHistoryChanged
	EventViewChanged
	EventToolChanged
	EventSelectionChanged
	EventGenerationStarted
	EventGenerationComplete
	EventProjectLoaded
	EventProjectSaved
	EventConfigChanged
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data any)

// State holds the application state: current scene, history, viewport,
// tool machine, configuration, and the generation collaborator.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	ProjectName string
	Modified    bool

	cfg config.Config

	history *scene.History
	working scene.Scene
	vw      view.View

	tools *tool.Machine

	// Viewport pixel size, set by the canvas on resize. The brush
	// mask buffer matches it.
	viewportW int
	viewportH int

	erase *mask.Erase
	brush *mask.Brush

	generator gen.Generator
	genLog    *gen.DebugLog

	listeners map[EventType][]EventListener
}

// NewState creates a new application state with an empty scene as the
// undo floor.
func NewState(cfg config.Config, generator gen.Generator) *State {
	s := &State{
		cfg:       cfg,
		history:   scene.NewHistory(),
		tools:     tool.NewMachine(),
		generator: generator,
		genLog:    gen.NewDebugLog(),
		listeners: make(map[EventType][]EventListener),
	}
	s.history.Commit(scene.New())
	s.working = s.history.Current()
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data any) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Scene returns the current working scene, including any uncommitted
// live-drag position.
func (s *State) Scene() scene.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.working
}

// View returns the current viewport offset.
func (s *State) View() view.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vw
}

// Pan moves the viewport by (dx, dy) world units.
func (s *State) Pan(dx, dy float64) {
	s.mu.Lock()
	s.vw = s.vw.Pan(dx, dy)
	v := s.vw
	s.mu.Unlock()
	s.Emit(EventViewChanged, v)
}

// Config returns the active configuration.
func (s *State) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ApplyConfig installs a new configuration (hot reload).
func (s *State) ApplyConfig(cfg config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	slog.Info("configuration applied",
		"tile_size", cfg.TileSize, "strip_width", cfg.StripWidth)
	s.Emit(EventConfigChanged, cfg)
}

// SetViewportSize records the canvas pixel size. An existing brush mask
// is discarded when the size changes.
func (s *State) SetViewportSize(w, h int) {
	s.mu.Lock()
	if w != s.viewportW || h != s.viewportH {
		s.viewportW, s.viewportH = w, h
		s.brush = nil
	}
	s.mu.Unlock()
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// commit installs a scene as current and records it in history.
// Callers hold no lock.
func (s *State) commit(sc scene.Scene) {
	s.mu.Lock()
	s.working = sc
	s.history.Commit(sc)
	s.Modified = true
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
	s.Emit(EventHistoryChanged, nil)
}

// Undo steps history back one snapshot. At the oldest entry it is a
// silent no-op.
func (s *State) Undo() {
	s.mu.Lock()
	s.working = s.history.Undo()
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
	s.Emit(EventHistoryChanged, nil)
}

// Redo steps history forward one snapshot. At the newest entry it is a
// silent no-op.
func (s *State) Redo() {
	s.mu.Lock()
	s.working = s.history.Redo()
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
	s.Emit(EventHistoryChanged, nil)
}

// CanUndo reports whether an undo step is available.
func (s *State) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo step is available.
func (s *State) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// HistoryLen returns the number of snapshots retained.
func (s *State) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Len()
}

// HistoryCursor returns the history cursor position.
func (s *State) HistoryCursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Cursor()
}

// AddLayer commits a scene containing the new layer.
func (s *State) AddLayer(l *scene.Layer) {
	s.commit(s.Scene().Add(l))
}

// RemoveLayer removes a layer by id and commits.
func (s *State) RemoveLayer(id string) error {
	sc := s.Scene()
	if sc.Find(id) == nil {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	s.commit(sc.Remove(id))
	return nil
}

// SetLayerVisible toggles a layer's visibility and commits.
func (s *State) SetLayerVisible(id string, visible bool) error {
	sc := s.Scene()
	if sc.Find(id) == nil {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	s.commit(sc.SetVisible(id, visible))
	return nil
}

// Tool returns the active tool.
func (s *State) Tool() tool.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tools.Tool()
}

// SetTool switches the active tool. Any interaction in progress is
// aborted and the outgoing tool's transient artifact is dropped.
func (s *State) SetTool(t tool.Tool) {
	s.mu.Lock()
	clearBrush := s.tools.SetTool(t)
	s.erase = nil
	if clearBrush && s.brush != nil {
		s.brush.Clear()
	}
	s.mu.Unlock()
	s.Emit(EventToolChanged, t)
}

// Interacting reports whether a pointer interaction is in progress.
func (s *State) Interacting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tools.State() != tool.Idle
}

// Selection returns the rectangle-tool selection, if one is active.
func (s *State) Selection() (geometry.Rect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tools.Selection()
}

// ClearSelection drops the active selection.
func (s *State) ClearSelection() {
	s.mu.Lock()
	s.tools.ClearSelection()
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, nil)
}

// BrushMask returns the brush mask buffer, or nil when no stroke has
// been painted.
func (s *State) BrushMask() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.brush == nil || s.brush.Empty() {
		return nil
	}
	return s.brush.Mask()
}

// hitTest returns the topmost visible layer under a world point:
// highest z wins, later in sequence breaks ties. Callers hold the lock.
func (s *State) hitTest(p geometry.Point2D) *scene.Layer {
	var hit *scene.Layer
	for _, l := range s.working.Layers() {
		if !l.Visible || !l.Rect.Contains(p) {
			continue
		}
		if hit == nil || l.Z >= hit.Z {
			hit = l
		}
	}
	return hit
}

// PointerDown begins an interaction at a world-space point.
func (s *State) PointerDown(p geometry.Point2D) {
	s.mu.Lock()
	hit := s.hitTest(p)
	st := s.tools.PointerDown(p, hit)

	switch st {
	case tool.Erasing:
		e, err := mask.StartErase(hit, s.cfg.EraserSize)
		if err != nil {
			// Layer has no pixels to erase; abort the stroke.
			slog.Warn("erase rejected", "layer", hit.ID, "error", err)
			s.tools.PointerUp(p)
			s.mu.Unlock()
			return
		}
		s.erase = e
		e.Stroke(p)
	case tool.Brushing:
		if s.brush == nil {
			s.brush = mask.NewBrush(s.viewportW, s.viewportH, s.cfg.BrushSize)
		}
		s.brush.Stroke(view.WorldToScreen(p, s.vw))
	}
	s.mu.Unlock()
	s.Emit(EventToolChanged, nil)
}

// PointerMove updates the in-progress interaction. Live layer drags
// reposition the working copy without committing.
func (s *State) PointerMove(p geometry.Point2D) {
	s.mu.Lock()
	s.tools.PointerMove(p)

	changed := false
	switch s.tools.State() {
	case tool.MovingLayer:
		pos := s.tools.MovePosition()
		s.working = s.working.SetPosition(s.tools.ActiveLayer(), pos.X, pos.Y)
		changed = true
	case tool.Erasing:
		if s.erase != nil {
			s.erase.Stroke(p)
			changed = true
		}
	case tool.Brushing:
		if s.brush != nil {
			s.brush.Stroke(view.WorldToScreen(p, s.vw))
			changed = true
		}
	case tool.Selecting:
		changed = true
	}
	s.mu.Unlock()
	if changed {
		s.Emit(EventSceneChanged, nil)
	}
}

// PointerUp ends the interaction and commits its terminal result.
// Pointer-leave routes here as well.
func (s *State) PointerUp(p geometry.Point2D) {
	s.mu.Lock()
	res := s.tools.PointerUp(p)

	var toCommit *scene.Scene
	switch res.Kind {
	case tool.ResultMove:
		sc := s.working.SetPosition(res.LayerID, res.Position.X, res.Position.Y)
		toCommit = &sc
	case tool.ResultEraseEnd:
		if s.erase != nil && s.erase.Dirty() {
			sc := s.working.SetImage(s.erase.LayerID(), s.erase.Result())
			toCommit = &sc
		}
		s.erase = nil
	}
	s.mu.Unlock()

	if toCommit != nil {
		s.commit(*toCommit)
	}
	if res.Kind == tool.ResultSelection {
		s.Emit(EventSelectionChanged, res.Selection)
	}
}

// ExportPNG writes the flattened scene to path.
func (s *State) ExportPNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	err = export.WritePNG(f, s.Scene())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ExportArchive writes the per-layer zip archive to path.
func (s *State) ExportArchive(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	err = export.WriteArchive(f, s.Scene())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// SaveProject persists the current scene and view to a project file.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	sc := s.working
	v := s.vw
	name := s.ProjectName
	s.mu.RUnlock()
	if name == "" {
		name = "untitled"
	}

	if err := project.Save(path, sc, v, name); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()
	s.Emit(EventProjectSaved, path)
	return nil
}

// LoadProject replaces the current scene with a project file's contents.
// History restarts at the loaded scene.
func (s *State) LoadProject(path string) error {
	sc, v, err := project.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.history = scene.NewHistory()
	s.history.Commit(sc)
	s.working = sc
	s.vw = v
	s.erase = nil
	s.brush = nil
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, path)
	s.Emit(EventSceneChanged, nil)
	return nil
}

// GenerationLog returns the debug log of generation dispatches.
func (s *State) GenerationLog() *gen.DebugLog {
	return s.genLog
}

// LoadImageLayer decodes an image file and commits it as a new object
// layer placed at the viewport center.
func (s *State) LoadImageLayer(path string) (*scene.Layer, error) {
	if !render.IsSupportedFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	img, err := render.Load(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	s.mu.RLock()
	center := view.Visible(s.vw, float64(s.viewportW), float64(s.viewportH)).Center()
	s.mu.RUnlock()

	rect := geometry.NewRect(center.X-w/2, center.Y-h/2, w, h)
	l := scene.NewLayer(baseName(path), scene.KindObject, img, rect, s.nextZ())
	s.AddLayer(l)
	return l, nil
}
