package path

import (
	"bufio"
	"iter"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sidkik/treesync/pkg/errors"
)

// maxLineSize bounds the length of a single line returned by ReadLines.
const maxLineSize = 16 * 1024 * 1024

// Local is the backend for paths on the machine running the push. File access
// goes through an afero filesystem so that tests can substitute
// afero.NewMemMapFs().
type Local struct {
	fs afero.Fs
}

// NewLocal returns a local backend that reads through fs.
func NewLocal(fs afero.Fs) *Local {
	return &Local{fs: fs}
}

// Fs returns the filesystem the backend reads through.
func (l *Local) Fs() afero.Fs {
	return l.fs
}

// Path resolves path into an absolute, cleaned location using the host's path
// rules. Symlinks aren't resolved.
func (l *Local) Path(path string) (*LocalPath, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WithContext(err, "resolve absolute path")
	}
	return l.FromParts(splitAbsolute(abs, string(filepath.Separator))), nil
}

// FromParts returns the local path made of parts.
func (l *Local) FromParts(parts []string) *LocalPath {
	return &LocalPath{segments: newSegments(l, parts), local: l}
}

func (l *Local) kind() backendKind {
	return localKind
}

func (l *Local) derive(parts []string) Path {
	return l.FromParts(parts)
}

// LocalPath is a Path on the local filesystem.
type LocalPath struct {
	segments
	local *Local

	// The result of the first Stat. It's never refreshed, so a new LocalPath
	// must be constructed to observe changes on disk.
	statFetched bool
	info        os.FileInfo
}

// Local returns the backend the path belongs to.
func (p *LocalPath) Local() *Local {
	return p.local
}

func (p *LocalPath) stat() os.FileInfo {
	if !p.statFetched {
		// Any error, including a missing file, is cached as "neither a file
		// nor a directory".
		p.info, _ = p.local.fs.Stat(p.String())
		p.statFetched = true
	}
	return p.info
}

// IsFile returns whether the path is a regular file.
func (p *LocalPath) IsFile() bool {
	info := p.stat()
	return info != nil && info.Mode().IsRegular()
}

// IsDir returns whether the path is a directory.
func (p *LocalPath) IsDir() bool {
	info := p.stat()
	return info != nil && info.IsDir()
}

// ReadLines streams the file's lines without their terminators. A trailing
// "\r" is dropped too, so lines from CRLF files don't keep it. The file is
// opened when iteration starts and closed when it ends or the caller stops
// early.
func (p *LocalPath) ReadLines() iter.Seq2[string, error] {
	return singlePass(func(yield func(string, error) bool) {
		f, err := p.local.fs.Open(p.String())
		if err != nil {
			yield("", errors.WithContext(err, "open"))
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
		for lineNumber := 1; scanner.Scan(); lineNumber++ {
			line := scanner.Text()
			if err := checkEncoding(p.String(), lineNumber, line); err != nil {
				yield("", err)
				return
			}
			if !yield(line, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield("", errors.WithContext(err, "read"))
		}
	})
}

// ListChildren implements Path.
func (p *LocalPath) ListChildren() (dirs, files []string, err error) {
	infos, err := afero.ReadDir(p.local.fs, p.String())
	if err != nil {
		return nil, nil, errors.WithContext(err, "read dir")
	}
	dirs, files = partition(infos)
	return dirs, files, nil
}

func partition(infos []os.FileInfo) (dirs, files []string) {
	for _, info := range infos {
		if info.IsDir() {
			dirs = append(dirs, info.Name())
		} else {
			files = append(files, info.Name())
		}
	}
	return dirs, files
}
