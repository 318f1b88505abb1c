// Package watch reloads the AI parser overlay when the file changes,
// so prompt tuning never needs a restart.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"roadwatch/internal/ai"
	"roadwatch/internal/config"
)

type ParserConfigWatcher struct {
	path   string
	holder *ai.ConfigHolder
	logger *slog.Logger
}

func NewParserConfigWatcher(path string, holder *ai.ConfigHolder, logger *slog.Logger) *ParserConfigWatcher {
	return &ParserConfigWatcher{path: path, holder: holder, logger: logger}
}

// Run blocks until ctx is canceled. Editors replace files rather than
// write in place, so the parent directory is watched and events are
// filtered by name.
func (w *ParserConfigWatcher) Run(ctx context.Context) {
	if w.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("parser config watcher failed to start", slog.Any("error", err))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		w.logger.Error("parser config watch add failed", slog.String("dir", dir), slog.Any("error", err))
		return
	}

	w.logger.Info("parserConfigWatcher STARTED", slog.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("parserConfigWatcher STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(w.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("parser config watch error", slog.Any("error", err))
		}
	}
}

func (w *ParserConfigWatcher) reload() {
	cfg, err := config.LoadParserConfig(w.path)
	if err != nil {
		// keep serving the last good config
		w.logger.Error("parser config reload failed", slog.Any("error", err))
		return
	}
	w.holder.Set(cfg)
	w.logger.Info("parser config reloaded",
		slog.String("model", cfg.Model),
		slog.Float64("temperature", cfg.Temperature),
	)
}
