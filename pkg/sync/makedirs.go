package sync

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/treesync/pkg/errors"
	"github.com/sidkik/treesync/pkg/path"
	"github.com/sidkik/treesync/pkg/transport"
)

// DirMaker is the subset of a transport needed to create directories.
type DirMaker interface {
	Stat(path string) (os.FileInfo, error)
	Mkdir(path string) error
}

// EnsureDir creates target and any of its ancestors that don't exist yet. It
// checks the target first and then each ancestor, nearest first, stopping at
// the first one that exists. The missing levels are then created from the
// shallowest down, with one Mkdir each. It returns the number of directories
// created, which is zero if target already exists.
func EnsureDir(m DirMaker, target path.Path) (int, error) {
	var missing []path.Path
	levels := func(yield func(path.Path) bool) {
		if !yield(target) {
			return
		}
		target.Parents(nil)(yield)
	}

	for level := range levels {
		_, err := m.Stat(level.String())
		if err == nil {
			break
		}
		if !transport.IsNotExist(err) {
			return 0, errors.WithContext(err, "stat "+level.String())
		}
		missing = append(missing, level)
	}

	for i := len(missing) - 1; i >= 0; i-- {
		dir := missing[i].String()
		log.WithField("path", dir).Debug("Creating directory")
		if err := m.Mkdir(dir); err != nil {
			return len(missing) - 1 - i, errors.WithContext(err, "mkdir "+dir)
		}
	}
	return len(missing), nil
}
