package sync

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/treesync/pkg/errors"
	"github.com/sidkik/treesync/pkg/path"
	"github.com/sidkik/treesync/pkg/transport"
)

// Stats summarizes a push.
type Stats struct {
	// DirsCreated is the number of remote directories that were created.
	DirsCreated int

	// FilesUploaded is the number of files that were uploaded.
	FilesUploaded int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d directories created, %d files uploaded",
		s.DirsCreated, s.FilesUploaded)
}

// Tree mirrors the local directory tree at localRoot onto remoteRoot.
// remoteRoot and its ancestors are created if needed, then the local tree is
// walked top-down in lexical order: each subdirectory is created remotely if
// it's missing and each file is uploaded to the corresponding remote path.
//
// localRoot itself is followed if it's a symlink. A symlink underneath it is
// classified by its target: a directory target is created remotely but not
// descended into, and a file target is uploaded.
func Tree(localRoot *path.LocalPath, remoteRoot *path.RemotePath) (Stats, error) {
	t := treeSyncer{
		transport:  remoteRoot.Session().Transport(),
		fs:         localRoot.Local().Fs(),
		localRoot:  localRoot,
		remoteRoot: remoteRoot,
	}

	created, err := EnsureDir(t.transport, remoteRoot)
	t.stats.DirsCreated += created
	if err != nil {
		return t.stats, errors.WithContext(err, "ensure remote root")
	}

	err = t.syncDir(localRoot)
	return t.stats, err
}

type treeSyncer struct {
	transport  transport.Transport
	fs         afero.Fs
	localRoot  *path.LocalPath
	remoteRoot *path.RemotePath
	stats      Stats
}

func (t *treeSyncer) syncDir(dir path.Path) error {
	// afero.ReadDir opens dir, following it if it's a symlink, but describes
	// each entry without following it.
	infos, err := afero.ReadDir(t.fs, dir.String())
	if err != nil {
		return errors.WithContext(err, fmt.Sprintf("read directory %q", dir.String()))
	}

	for _, info := range infos {
		src := dir.Join(info.Name())
		// src was derived from localRoot, so the conversion can't fail.
		dst, _ := src.Convert(t.localRoot, t.remoteRoot)

		isDir := info.IsDir()
		isSymlink := info.Mode()&os.ModeSymlink != 0
		if isSymlink {
			target, err := t.fs.Stat(src.String())
			if err != nil {
				log.WithError(err).WithField("path", src.String()).
					Warn("Skipping broken symlink")
				continue
			}
			isDir = target.IsDir()
		}

		if !isDir {
			if err := t.upload(src, dst); err != nil {
				return err
			}
			continue
		}

		log.WithField("path", dst.String()).Debug("Syncing directory")
		created, err := EnsureDir(t.transport, dst)
		t.stats.DirsCreated += created
		if err != nil {
			return errors.WithContext(err, "ensure directory")
		}

		if !isSymlink {
			if err := t.syncDir(src); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *treeSyncer) upload(src, dst path.Path) error {
	log.WithFields(log.Fields{
		"local":  src.String(),
		"remote": dst.String(),
	}).Debug("Uploading file")
	if err := t.transport.Upload(src.String(), dst.String()); err != nil {
		return errors.WithContext(err, fmt.Sprintf("upload %q", src.String()))
	}
	t.stats.FilesUploaded++
	return nil
}

// File uploads the single file at localFile to remoteFile, creating
// remoteFile's parent directories if they're missing.
func File(localFile *path.LocalPath, remoteFile *path.RemotePath) (Stats, error) {
	var stats Stats
	t := remoteFile.Session().Transport()

	created, err := EnsureDir(t, remoteFile.Parent())
	stats.DirsCreated += created
	if err != nil {
		return stats, errors.WithContext(err, "ensure remote parent")
	}

	log.WithFields(log.Fields{
		"local":  localFile.String(),
		"remote": remoteFile.String(),
	}).Debug("Uploading file")
	if err := t.Upload(localFile.String(), remoteFile.String()); err != nil {
		return stats, errors.WithContext(err, fmt.Sprintf("upload %q", localFile.String()))
	}
	stats.FilesUploaded++
	return stats, nil
}
