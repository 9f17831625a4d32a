package glossary

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Holder publishes the current glossary. A page scan takes one snapshot via
// Current and keeps it for the page's lifetime; swaps only affect later
// pages.
type Holder struct {
	current atomic.Pointer[Glossary]
}

// NewHolder creates a Holder seeded with g.
func NewHolder(g *Glossary) *Holder {
	h := &Holder{}
	h.current.Store(g)
	return h
}

// Current returns the glossary snapshot in effect.
func (h *Holder) Current() *Glossary {
	return h.current.Load()
}

// Swap replaces the published glossary.
func (h *Holder) Swap(g *Glossary) {
	h.current.Store(g)
}

// watchDebounce collapses the burst of events editors emit on save.
const watchDebounce = 200 * time.Millisecond

// Watch reloads the glossary file at path into holder whenever it is written
// or recreated. It blocks until ctx is cancelled. A file that fails to parse
// leaves the previous snapshot in place.
func Watch(ctx context.Context, path string, holder *Holder, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating glossary watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving glossary path: %w", err)
	}
	// Watch the directory so atomic rename-on-save is seen as a Create.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = time.After(watchDebounce)
		case <-pending:
			pending = nil
			g, err := LoadFile(abs)
			if err != nil {
				logger.Warn("glossary reload failed; keeping previous terms",
					zap.String("path", abs), zap.Error(err))
				continue
			}
			holder.Swap(g)
			logger.Info("glossary reloaded", zap.String("path", abs), zap.Int("terms", g.Len()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("glossary watcher error", zap.Error(err))
		}
	}
}
