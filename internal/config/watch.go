package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// Watch reloads the config at path whenever it or a file it includes
// changes, until ctx is done. Each successful reload is passed to onChange;
// load failures go to onError and the previous config stays in effect.
func Watch(ctx context.Context, path string, onChange func(*LoadResult), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	addFiles := func(files []string) {
		for _, f := range files {
			watched[f] = true
			dir := filepath.Dir(f)
			if dirs[dir] {
				continue
			}
			// Watch directories: editors replace files by rename.
			if err := watcher.Add(dir); err != nil {
				onError(fmt.Errorf("failed to watch %s: %w", dir, err))
				continue
			}
			dirs[dir] = true
		}
	}
	canon, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	addFiles([]string{canon})
	if res, err := LoadFromPath(path); err == nil {
		addFiles(res.Files)
	}

	go func() {
		defer watcher.Close()
		var timer <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !watched[event.Name] {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					timer = time.After(watchDebounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onError(err)
			case <-timer:
				timer = nil
				res, err := LoadFromPath(path)
				if err != nil {
					onError(err)
					continue
				}
				addFiles(res.Files)
				onChange(res)
			}
		}
	}()
	return nil
}
