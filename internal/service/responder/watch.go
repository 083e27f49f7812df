package responder

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/nomada-travel/nomada/backend/internal/log"
)

// WatchScript reloads the reply script whenever the file changes, blocking
// until the context is cancelled. Editors replace files on save, so the
// watch is on the parent directory and events are filtered by name.
func (s *Service) WatchScript(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(path)

	log.Info().Str("script", path).Msg("watching reply script")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.LoadScript(path); err != nil {
				log.Error().Err(err).Str("script", path).Msg("reply script reload failed, keeping previous table")
				continue
			}
			log.Info().Str("script", path).Msg("reply script reloaded")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("reply script watcher error")

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
