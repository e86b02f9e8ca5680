package transport

import (
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/sidkik/treesync/pkg/errors"
)

// Fs is a Transport over an afero filesystem. It's used to push to locally
// mounted destinations (e.g. afero.NewBasePathFs over a network share) and,
// with afero.NewMemMapFs, as the remote side in tests.
type Fs struct {
	remote afero.Fs
	local  afero.Fs
	cwd    string
}

// NewFs returns a Transport that treats remote as the remote store. cwd is
// reported by Getwd; an empty cwd means the working directory is unknown.
func NewFs(remote afero.Fs, cwd string, local afero.Fs) *Fs {
	return &Fs{remote: remote, local: local, cwd: cwd}
}

// Getwd implements Transport.
func (t *Fs) Getwd() (string, error) {
	return t.cwd, nil
}

// Stat implements Transport.
func (t *Fs) Stat(path string) (os.FileInfo, error) {
	return t.remote.Stat(path)
}

// Mkdir implements Transport.
func (t *Fs) Mkdir(path string) error {
	return t.remote.Mkdir(path, 0755)
}

// ReadDir implements Transport.
func (t *Fs) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(t.remote, path)
}

// Fetch implements Transport.
func (t *Fs) Fetch(path string, w io.Writer) error {
	f, err := t.remote.Open(path)
	if err != nil {
		return errors.WithContext(err, "open")
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.WithContext(err, "read")
	}
	return nil
}

// Upload implements Transport.
func (t *Fs) Upload(localPath, remotePath string) error {
	src, err := t.local.Open(localPath)
	if err != nil {
		return errors.WithContext(err, "open local")
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return errors.WithContext(err, "stat local")
	}

	dst, err := t.remote.OpenFile(remotePath,
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return errors.WithContext(err, "create remote")
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.WithContext(err, "write remote")
	}
	return errors.WithContext(dst.Close(), "close remote")
}
