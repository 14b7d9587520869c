// Package main provides the entry point for the MapForge map editor.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	fyneapp "fyne.io/fyne/v2/app"

	"mapforge/internal/app"
	"mapforge/internal/config"
	"mapforge/internal/gen"
	"mapforge/ui/mainwindow"
)

const appTitle = "MapForge"

func main() {
	var (
		configPath = flag.String("config", defaultConfigPath(), "configuration file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	slog.Info("starting", "app", appTitle)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	state := app.NewState(cfg, gen.NewClient(cfg.Generator))

	fyneApp := fyneapp.NewWithID("mapforge")
	win := mainwindow.New(fyneApp, state)

	if flag.NArg() > 0 {
		projectPath := flag.Arg(0)
		if err := state.LoadProject(projectPath); err != nil {
			slog.Warn("failed to load project", "path", projectPath, "error", err)
		}
	}

	watchConfig(*configPath, state)

	win.ShowAndRun()
}

// watchConfig hot-reloads the configuration file while running.
func watchConfig(path string, state *app.State) {
	w, err := config.Watch(path)
	if err != nil {
		slog.Warn("config watch unavailable", "error", err)
		return
	}
	go func() {
		for {
			select {
			case cfg, ok := <-w.Updates:
				if !ok {
					return
				}
				state.ApplyConfig(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config reload failed", "error", err)
			}
		}
	}()
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "mapforge.yaml"
	}
	return filepath.Join(dir, "mapforge", "config.yaml")
}
