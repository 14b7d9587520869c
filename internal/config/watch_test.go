package config

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Default().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	cfg := Default()
	cfg.TileSize = 512
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := <-w.Updates
	if got.TileSize != 512 {
		t.Errorf("reloaded TileSize = %d, want 512", got.TileSize)
	}
}

func TestWatcherCloseDuringWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Default().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Hammer file writes against Close; a reload must never send on a
	// closed channel.
	for i := 0; i < 50; i++ {
		w, err := Watch(path)
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = Default().Save(path)
			}
		}()

		// Drain until the run goroutine closes Updates.
		done := make(chan struct{})
		go func() {
			for range w.Updates {
			}
			close(done)
		}()

		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		wg.Wait()
		<-done
	}
}
