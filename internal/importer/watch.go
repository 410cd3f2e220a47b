package importer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce absorbs the burst of write events editors emit on save.
const watchDebounce = 300 * time.Millisecond

// Watch re-imports manifest entries whenever their source file is written
// until ctx is cancelled. Re-runs only add documents whose natural key is
// not stored yet. The parent directories are watched rather than the files
// so atomic-rename saves are seen too.
func (im *Importer) Watch(ctx context.Context, m Manifest) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	byPath := make(map[string]Source, len(m))
	dirs := make(map[string]struct{})
	for _, src := range m {
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			return err
		}
		byPath[abs] = src
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	im.logger.Info("watcher: started", slog.Int("sources", len(byPath)))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func(path string) {
		pending[path] = struct{}{}
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			fire = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			im.logger.Info("watcher: stopped")
			return nil

		case <-fire:
			for path := range pending {
				delete(pending, path)
				src := byPath[path]
				im.logger.Info("watcher: source changed, re-importing",
					slog.String("collection", src.Collection),
					slog.String("path", src.Path))
				if _, err := im.Run(ctx, src); err != nil {
					im.logger.Warn("watcher: re-import failed",
						slog.String("collection", src.Collection),
						slog.String("error", err.Error()))
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, tracked := byPath[abs]; tracked {
				schedule(abs)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
