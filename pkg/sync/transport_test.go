package sync

import (
	"os"

	"github.com/spf13/afero"

	"github.com/sidkik/treesync/pkg/transport"
)

// recordingTransport is a transport over in-memory filesystems that records
// the calls made to it and can be told to fail specific operations.
type recordingTransport struct {
	*transport.Fs

	stats    []string
	mkdirs   []string
	listings []string
	uploads  []string

	statErrs   map[string]error
	mkdirErrs  map[string]error
	uploadErrs map[string]error
}

func newRecordingTransport(remote, local afero.Fs) *recordingTransport {
	return &recordingTransport{
		Fs:         transport.NewFs(remote, "/", local),
		statErrs:   map[string]error{},
		mkdirErrs:  map[string]error{},
		uploadErrs: map[string]error{},
	}
}

func (t *recordingTransport) Stat(path string) (os.FileInfo, error) {
	t.stats = append(t.stats, path)
	if err, ok := t.statErrs[path]; ok {
		return nil, err
	}
	return t.Fs.Stat(path)
}

func (t *recordingTransport) Mkdir(path string) error {
	t.mkdirs = append(t.mkdirs, path)
	if err, ok := t.mkdirErrs[path]; ok {
		return err
	}
	return t.Fs.Mkdir(path)
}

func (t *recordingTransport) ReadDir(path string) ([]os.FileInfo, error) {
	t.listings = append(t.listings, path)
	return t.Fs.ReadDir(path)
}

func (t *recordingTransport) Upload(localPath, remotePath string) error {
	t.uploads = append(t.uploads, remotePath)
	if err, ok := t.uploadErrs[remotePath]; ok {
		return err
	}
	return t.Fs.Upload(localPath, remotePath)
}
