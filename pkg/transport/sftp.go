package transport

import (
	"io"
	"os"

	"github.com/pkg/sftp"
	"github.com/spf13/afero"

	"github.com/sidkik/treesync/pkg/errors"
)

// SFTP is a Transport backed by an SFTP session. Local files are read through
// an afero filesystem so that uploads can be tested without a real disk.
type SFTP struct {
	client *sftp.Client
	local  afero.Fs
}

// NewSFTP returns a Transport that issues every operation over client.
func NewSFTP(client *sftp.Client, local afero.Fs) *SFTP {
	return &SFTP{client: client, local: local}
}

// Getwd implements Transport.
func (t *SFTP) Getwd() (string, error) {
	return t.client.Getwd()
}

// Stat implements Transport.
func (t *SFTP) Stat(path string) (os.FileInfo, error) {
	return t.client.Stat(path)
}

// Mkdir implements Transport.
func (t *SFTP) Mkdir(path string) error {
	return t.client.Mkdir(path)
}

// ReadDir implements Transport.
func (t *SFTP) ReadDir(path string) ([]os.FileInfo, error) {
	return t.client.ReadDir(path)
}

// Fetch implements Transport.
func (t *SFTP) Fetch(path string, w io.Writer) error {
	f, err := t.client.Open(path)
	if err != nil {
		return errors.WithContext(err, "open")
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return errors.WithContext(err, "read")
	}
	return nil
}

// Upload implements Transport. The remote file is truncated before writing,
// so an existing file is always overwritten.
func (t *SFTP) Upload(localPath, remotePath string) error {
	src, err := t.local.Open(localPath)
	if err != nil {
		return errors.WithContext(err, "open local")
	}
	defer src.Close()

	dst, err := t.client.Create(remotePath)
	if err != nil {
		return errors.WithContext(err, "create remote")
	}

	if _, err := dst.ReadFrom(src); err != nil {
		dst.Close()
		return errors.WithContext(err, "write remote")
	}
	return errors.WithContext(dst.Close(), "close remote")
}
