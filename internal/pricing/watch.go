package pricing

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a Registry when its price file changes on disk.
type Watcher struct {
	Registry *Registry
	Path     string
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Run blocks until ctx is cancelled. The parent directory is watched so that
// editors replacing the file atomically are picked up as well.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.Path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	target := filepath.Clean(w.Path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn().Err(err).Msg("price file watcher error")
		case <-fire:
			fire = nil
			if err := w.Registry.LoadFile(w.Path); err != nil {
				w.Logger.Error().Err(err).Str("path", w.Path).Msg("reload price file")
				continue
			}
			snap := w.Registry.Current()
			w.Logger.Info().Str("path", w.Path).Float64("min_area_m2", snap.MinAreaM2).Msg("price file reloaded")
		}
	}
}
