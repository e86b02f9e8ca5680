package sync

import (
	"iter"

	"github.com/sidkik/treesync/pkg/errors"
	"github.com/sidkik/treesync/pkg/path"
)

// Order is the order in which Walk visits directories.
type Order int

const (
	// TopDown visits a directory before anything nested beneath it.
	TopDown Order = iota

	// BottomUp visits a directory after everything nested beneath it. It
	// isn't implemented.
	BottomUp
)

// Entry is a directory visited by Walk, along with the names of its direct
// children.
type Entry struct {
	Dir   path.Path
	Dirs  []string
	Files []string
}

// Walk returns a lazy sequence of the directories underneath root, including
// root itself. Only TopDown is supported; any other order fails before any
// directory is listed.
//
// Directories are taken from a stack, so a directory is always visited
// before its descendants, but siblings are visited in no particular order.
// Listing errors are yielded once and end the walk. Stopping iteration early
// skips listing the remaining directories.
func Walk(root path.Path, order Order) (iter.Seq2[Entry, error], error) {
	if order != TopDown {
		return nil, errors.WithContext(errors.ErrNotImplemented, "bottom-up walk")
	}

	return func(yield func(Entry, error) bool) {
		pending := []path.Path{root}
		for len(pending) > 0 {
			dir := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			dirs, files, err := dir.ListChildren()
			if err != nil {
				yield(Entry{Dir: dir}, errors.WithContext(err, "list "+dir.String()))
				return
			}

			if !yield(Entry{Dir: dir, Dirs: dirs, Files: files}, nil) {
				return
			}

			for _, name := range dirs {
				pending = append(pending, dir.Join(name))
			}
		}
	}, nil
}
