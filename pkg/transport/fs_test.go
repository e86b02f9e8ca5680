package transport

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/treesync/pkg/errors"
)

func TestFsStatNotExist(t *testing.T) {
	tr := NewFs(afero.NewMemMapFs(), "/home/deploy", afero.NewMemMapFs())

	_, err := tr.Stat("/does/not/exist")
	assert.True(t, IsNotExist(err))
	assert.True(t, IsNotExist(errors.WithContext(err, "stat")))
	assert.False(t, IsNotExist(errors.New("permission denied")))

	cwd, err := tr.Getwd()
	assert.NoError(t, err)
	assert.Equal(t, "/home/deploy", cwd)
}

func TestFsUploadOverwrites(t *testing.T) {
	local := afero.NewMemMapFs()
	remote := afero.NewMemMapFs()
	tr := NewFs(remote, "", local)

	require.NoError(t, afero.WriteFile(local, "/site/index.html", []byte("<p>new</p>"), 0644))
	require.NoError(t, remote.MkdirAll("/www", 0755))
	require.NoError(t, afero.WriteFile(remote, "/www/index.html",
		[]byte("<p>a much longer old page</p>"), 0644))

	require.NoError(t, tr.Upload("/site/index.html", "/www/index.html"))

	contents, err := afero.ReadFile(remote, "/www/index.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>new</p>", string(contents))
}

func TestFsUploadMissingLocal(t *testing.T) {
	tr := NewFs(afero.NewMemMapFs(), "", afero.NewMemMapFs())
	err := tr.Upload("/missing", "/dst")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, afero.ErrFileNotFound) || IsNotExist(err))
}

func TestFsFetchAndReadDir(t *testing.T) {
	remote := afero.NewMemMapFs()
	tr := NewFs(remote, "", afero.NewMemMapFs())

	require.NoError(t, afero.WriteFile(remote, "/data/a.txt", []byte("alpha"), 0644))
	require.NoError(t, remote.Mkdir("/data/sub", 0755))

	var buf bytes.Buffer
	require.NoError(t, tr.Fetch("/data/a.txt", &buf))
	assert.Equal(t, "alpha", buf.String())

	infos, err := tr.ReadDir("/data")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, fi := range infos {
		names[fi.Name()] = fi.IsDir()
	}
	assert.Equal(t, map[string]bool{"a.txt": false, "sub": true}, names)
}
