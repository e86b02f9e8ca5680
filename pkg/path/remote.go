package path

import (
	"bytes"
	"iter"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/treesync/pkg/errors"
	"github.com/sidkik/treesync/pkg/transport"
)

// Session is the backend for paths on a remote store. It binds one transport
// and a snapshot of the transport's working directory, taken when the session
// is created. Relative paths are always resolved against that snapshot, even
// if the transport's working directory changes later.
type Session struct {
	transport transport.Transport
	cwd       []string
}

// NewSession returns a remote backend for t.
func NewSession(t transport.Transport) *Session {
	var cwd []string
	wd, err := t.Getwd()
	switch {
	case err != nil:
		log.WithError(err).Debug("Failed to get remote working directory. " +
			"Relative paths won't be prefixed.")
	case strings.HasPrefix(wd, "/"):
		cwd = splitAbsolute(wd, "/")
	}
	return &Session{transport: t, cwd: cwd}
}

// Transport returns the transport the session was created with.
func (s *Session) Transport() transport.Transport {
	return s.transport
}

// Path parses a slash-separated remote path. Paths that don't start with a
// slash are relative to the session's working directory. ".." removes the
// previous segment. Symlinks aren't resolved.
func (s *Session) Path(path string) *RemotePath {
	var parts []string
	absolute := strings.HasPrefix(path, "/")
	if !absolute {
		parts = append(parts, s.cwd...)
	}

	for i, piece := range strings.Split(path, "/") {
		switch {
		case i == 0 && absolute:
			parts = append(parts, "")
		case piece == "" || piece == ".":
		case piece == "..":
			// The root marker is never popped.
			if n := len(parts); n > 0 && !(n == 1 && parts[0] == "") {
				parts = parts[:n-1]
			}
		default:
			parts = append(parts, piece)
		}
	}
	return s.FromParts(parts)
}

// FromParts returns the remote path made of parts.
func (s *Session) FromParts(parts []string) *RemotePath {
	return &RemotePath{segments: newSegments(s, parts), session: s}
}

func (s *Session) kind() backendKind {
	return remoteKind
}

func (s *Session) derive(parts []string) Path {
	return s.FromParts(parts)
}

type modeState int

const (
	modeUnresolved modeState = iota
	modeAbsent
	modePresent
)

// RemotePath is a Path on a remote store.
type RemotePath struct {
	segments
	session *Session

	state modeState
	mode  os.FileMode
}

// Session returns the session the path belongs to.
func (p *RemotePath) Session() *Session {
	return p.session
}

// Mode returns the remote file mode, and whether anything exists at the path.
// The first call queries the transport and the result is cached for the
// lifetime of p. Errors other than "not found" aren't cached.
func (p *RemotePath) Mode() (os.FileMode, bool, error) {
	if p.state == modeUnresolved {
		info, err := p.session.transport.Stat(p.String())
		switch {
		case err == nil:
			p.state, p.mode = modePresent, info.Mode()
		case transport.IsNotExist(err):
			p.state = modeAbsent
		default:
			return 0, false, errors.WithContext(err, "stat")
		}
	}
	return p.mode, p.state == modePresent, nil
}

// IsFile returns whether something other than a directory exists at the path.
func (p *RemotePath) IsFile() bool {
	mode, ok := p.resolvedMode()
	return ok && !mode.IsDir()
}

// IsDir returns whether a directory exists at the path.
func (p *RemotePath) IsDir() bool {
	mode, ok := p.resolvedMode()
	return ok && mode.IsDir()
}

func (p *RemotePath) resolvedMode() (os.FileMode, bool) {
	mode, ok, err := p.Mode()
	if err != nil {
		log.WithError(err).WithField("path", p.String()).Warn(
			"Failed to get remote file mode. Treating it as missing.")
		return 0, false
	}
	return mode, ok
}

// ReadLines downloads the whole file and yields its lines split on "\n". A
// file ending in a newline yields a trailing empty line.
func (p *RemotePath) ReadLines() iter.Seq2[string, error] {
	return singlePass(func(yield func(string, error) bool) {
		log.WithField("path", p.String()).Debug("Reading remote file")

		var buf bytes.Buffer
		if err := p.session.transport.Fetch(p.String(), &buf); err != nil {
			yield("", errors.WithContext(err, "fetch"))
			return
		}

		lines := strings.Split(buf.String(), "\n")
		for i, line := range lines {
			if err := checkEncoding(p.String(), i+1, line); err != nil {
				yield("", err)
				return
			}
		}

		for _, line := range lines {
			if !yield(line, nil) {
				return
			}
		}
	})
}

// ListChildren implements Path.
func (p *RemotePath) ListChildren() (dirs, files []string, err error) {
	infos, err := p.session.transport.ReadDir(p.String())
	if err != nil {
		return nil, nil, errors.WithContext(err, "read dir")
	}
	dirs, files = partition(infos)
	return dirs, files, nil
}
