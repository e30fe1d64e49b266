package settings

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gethiox/chiralscroll/internal/pkg/logger"
)

// Watch notifies about every modification of settings file.
// Directory is watched instead of the file itself, editors and Save replace the file by rename.
// Channel is closed when ctx is done.
func Watch(ctx context.Context, path string) (<-chan bool, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("settings watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("settings watcher: %w", err)
	}

	err = watcher.Add(filepath.Dir(abs))
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("settings watcher: %w", err)
	}

	var change = make(chan bool)

	go func() {
		<-ctx.Done()
		err := watcher.Close()
		if err != nil {
			log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
		}
	}()

	go func() {
		defer close(change)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				log.Info(fmt.Sprintf("settings change detected: %s", event.Name), logger.Debug)
				select {
				case change <- true:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Info(fmt.Sprintf("settings watcher error: %v", err), logger.Warning)
			}
		}
	}()

	return change, nil
}
