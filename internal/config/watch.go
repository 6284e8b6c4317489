package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch relee path cada vez que cambia y llama a onChange con la config nueva.
// Se vigila el directorio: los editores suelen reemplazar el archivo con un
// rename, y un watch sobre el archivo se pierde. Termina con ctx.
func Watch(ctx context.Context, path string, log *slog.Logger, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("can't watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	go func() {
		// ignore close error
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				cfg, err := Load(path, log)
				if err != nil {
					log.Warn("config reload failed", "path", path, "err", err)
					continue
				}
				log.Info("config reloaded", "path", path)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", "err", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
