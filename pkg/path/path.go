// Package path represents locations on different storage backends as
// sequences of segments. Paths from the local filesystem and from a remote
// session share the same algebra (Join, RelPath, Convert, Parents) but answer
// metadata queries through their own backend.
//
// A path's backend is fixed when it's constructed and is inherited by every
// path derived from it. Moving a path to another backend requires an explicit
// Convert.
package path

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Path is an immutable location on a Backend. The only state that changes
// after construction is a one-shot cache of backend metadata.
type Path interface {
	// Parts returns a copy of the path's segments. The root is [""].
	Parts() []string

	// Backend returns the backend that created the path.
	Backend() Backend

	// Join returns the path to the child called name. It panics if name is
	// empty or contains a "/", since neither is a single segment.
	Join(name string) Path

	// RelPath returns the slash-separated segments of the path beyond base.
	// It returns false if base isn't a prefix of the path.
	RelPath(base Path) (string, bool)

	// Convert maps the path from underneath `from` to the same relative
	// location underneath `to`. The result belongs to to's backend.
	// It returns false if the path isn't underneath `from`.
	Convert(from, to Path) (Path, bool)

	// Parent returns the path with the last segment removed.
	Parent() Path

	// Parents returns the ancestors of the path, nearest first. If root is
	// non-nil, iteration stops at the first ancestor that isn't underneath
	// root.
	Parents(root Path) iter.Seq[Path]

	String() string

	IsFile() bool
	IsDir() bool

	// ReadLines returns the lines of the file as a single-pass sequence.
	ReadLines() iter.Seq2[string, error]

	// ListChildren returns the names of the direct children of the directory,
	// split into directories and everything else.
	ListChildren() (dirs, files []string, err error)
}

// Backend is the identity of the storage system a path lives on. Backends are
// compared by identity, so two sessions over different connections are
// different backends even though they're the same kind.
type Backend interface {
	kind() backendKind
	derive(parts []string) Path
}

type backendKind int

const (
	localKind backendKind = iota
	remoteKind
)

// Equal returns whether a and b are on the same backend and have the same
// segments.
func Equal(a, b Path) bool {
	return a.Backend() == b.Backend() && slices.Equal(a.Parts(), b.Parts())
}

// segments is the value representation shared by every Path implementation.
type segments struct {
	parts   []string
	backend Backend
}

func newSegments(backend Backend, parts []string) segments {
	return segments{parts: slices.Clone(parts), backend: backend}
}

func (s segments) Parts() []string {
	return slices.Clone(s.parts)
}

func (s segments) Backend() Backend {
	return s.backend
}

func (s segments) Join(name string) Path {
	if name == "" || strings.Contains(name, "/") {
		panic(fmt.Sprintf("path: %q is not a valid segment", name))
	}
	return s.backend.derive(append(slices.Clone(s.parts), name))
}

func (s segments) RelPath(base Path) (string, bool) {
	baseParts := base.Parts()
	if !hasPrefix(s.parts, baseParts) {
		return "", false
	}
	return strings.Join(s.parts[len(baseParts):], "/"), true
}

func (s segments) Convert(from, to Path) (Path, bool) {
	if from.Backend() != s.backend {
		return nil, false
	}

	// Sessions of the same kind don't share a namespace unless they're the
	// same session.
	dst := to.Backend()
	if dst != s.backend && dst.kind() == s.backend.kind() {
		return nil, false
	}

	fromParts := from.Parts()
	if !hasPrefix(s.parts, fromParts) {
		return nil, false
	}
	return dst.derive(append(to.Parts(), s.parts[len(fromParts):]...)), true
}

func (s segments) Parent() Path {
	if len(s.parts) == 0 {
		return s.backend.derive(nil)
	}
	return s.backend.derive(s.parts[:len(s.parts)-1])
}

func (s segments) Parents(root Path) iter.Seq[Path] {
	var rootParts []string
	if root != nil {
		rootParts = root.Parts()
	}

	return func(yield func(Path) bool) {
		for i := len(s.parts) - 1; i > 0; i-- {
			ancestor := s.parts[:i]
			if root != nil && !hasPrefix(ancestor, rootParts) {
				return
			}
			if !yield(s.backend.derive(ancestor)) {
				return
			}
		}
	}
}

func (s segments) String() string {
	if len(s.parts) == 1 && s.parts[0] == "" {
		return "/"
	}
	return strings.Join(s.parts, "/")
}

func hasPrefix(parts, prefix []string) bool {
	return len(prefix) <= len(parts) && slices.Equal(parts[:len(prefix)], prefix)
}

// splitAbsolute splits an absolute path on sep. The leading empty segment
// that marks the root is kept, and any other empty segments are dropped.
func splitAbsolute(path string, sep string) []string {
	pieces := strings.Split(path, sep)
	parts := pieces[:1:1]
	for _, piece := range pieces[1:] {
		if piece != "" {
			parts = append(parts, piece)
		}
	}
	return parts
}
