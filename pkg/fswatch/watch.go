// Package fswatch notifies callers when files underneath the pushed local
// paths change.
package fswatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/treesync/pkg/errors"
)

var fs = afero.NewOsFs()

// Watcher reports changes to a set of local paths.
type Watcher struct {
	// Events receives a value whenever something changes. Changes that happen
	// while a previous event hasn't been received yet are combined into it.
	Events chan struct{}

	watcher *fsnotify.Watcher
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Watch watches roots for changes. Directories are watched recursively, and
// files are watched along with their parent directory so that replacing a
// file is noticed.
func Watch(roots []string) (*Watcher, error) {
	pathsToWatch, err := getPathsToWatch(roots)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}

	go logErrors(watcher.Errors)
	return &Watcher{Events: combineUpdates(watcher.Events), watcher: watcher}, nil
}

func logErrors(errs <-chan error) {
	for err := range errs {
		log.WithError(err).Warn("File watcher error")
	}
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

func getPathsToWatch(roots []string) (paths []string, err error) {
	for _, root := range roots {
		fi, err := fs.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.FileNotFound{Path: root}
			}
			return nil, errors.WithContext(err, "stat")
		}

		if !fi.IsDir() {
			paths = append(paths, filepath.Dir(root), root)
			continue
		}

		// fsnotify doesn't watch directories recursively, so every
		// subdirectory is added individually.
		err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return errors.WithContext(err, "walk error")
			}
			if fi.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}
