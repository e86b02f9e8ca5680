// Package transport defines the operations a remote store must provide so that
// local directory trees can be pushed to it, and implements them over SFTP and
// over any afero filesystem.
package transport

import (
	"io"
	"os"

	"github.com/sidkik/treesync/pkg/errors"
)

// Transport is an authenticated, connected handle to a remote store. Paths are
// slash-separated and interpreted by the remote side.
//
// A Transport is owned by a single push at a time and isn't safe for
// concurrent use.
type Transport interface {
	// Getwd returns the remote working directory. An error or an empty string
	// means the working directory is unknown.
	Getwd() (string, error)

	// Stat returns the metadata of path. It returns an error satisfying
	// IsNotExist if nothing exists at path.
	Stat(path string) (os.FileInfo, error)

	// Mkdir creates a single directory. The parent must already exist.
	Mkdir(path string) error

	// ReadDir returns the direct children of the directory at path.
	ReadDir(path string) ([]os.FileInfo, error)

	// Fetch copies the contents of the remote file at path into w.
	Fetch(path string, w io.Writer) error

	// Upload copies the local file at localPath to remotePath, replacing any
	// existing remote file.
	Upload(localPath, remotePath string) error
}

// IsNotExist returns whether err reports that a remote path doesn't exist.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || os.IsNotExist(errors.RootCause(err))
}
