package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/treesync/pkg/errors"
	"github.com/sidkik/treesync/pkg/path"
)

type mockFile struct {
	path     string
	contents string
}

func writeFiles(t *testing.T, fs afero.Fs, files ...mockFile) {
	for _, f := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(f.path), 0755))
		require.NoError(t, afero.WriteFile(fs, f.path, []byte(f.contents), 0644))
	}
}

func assertRemoteFile(t *testing.T, fs afero.Fs, f mockFile) {
	contents, err := afero.ReadFile(fs, f.path)
	if assert.NoError(t, err, f.path) {
		assert.Equal(t, f.contents, string(contents), f.path)
	}
}

func TestTree(t *testing.T) {
	local := afero.NewMemMapFs()
	remote := afero.NewMemMapFs()
	writeFiles(t, local,
		mockFile{"/a/x.txt", "x contents"},
		mockFile{"/a/sub/y.txt", "y contents\n"},
	)

	tr := newRecordingTransport(remote, local)
	localRoot, err := path.NewLocal(local).Path("/a")
	require.NoError(t, err)
	remoteRoot := path.NewSession(tr).Path("/r")

	stats, err := Tree(localRoot, remoteRoot)
	require.NoError(t, err)
	assert.Equal(t, Stats{DirsCreated: 2, FilesUploaded: 2}, stats)

	for _, dir := range []string{"/r", "/r/sub"} {
		exists, err := afero.DirExists(remote, dir)
		require.NoError(t, err)
		assert.True(t, exists, dir)
	}
	assertRemoteFile(t, remote, mockFile{"/r/x.txt", "x contents"})
	assertRemoteFile(t, remote, mockFile{"/r/sub/y.txt", "y contents\n"})
	assert.Equal(t, []string{"/r", "/r/sub"}, tr.mkdirs)
}

func TestTreeReuploadsEverything(t *testing.T) {
	local := afero.NewMemMapFs()
	remote := afero.NewMemMapFs()
	writeFiles(t, local,
		mockFile{"/site/index.html", "v2"},
		mockFile{"/site/css/site.css", "body {}"},
	)
	writeFiles(t, remote,
		mockFile{"/www/index.html", "v1 with more bytes"},
		mockFile{"/www/css/site.css", "body {}"},
		mockFile{"/www/stale.html", "left alone"},
	)

	tr := newRecordingTransport(remote, local)
	localRoot, err := path.NewLocal(local).Path("/site")
	require.NoError(t, err)

	stats, err := Tree(localRoot, path.NewSession(tr).Path("/www"))
	require.NoError(t, err)
	assert.Equal(t, Stats{DirsCreated: 0, FilesUploaded: 2}, stats)
	assert.Empty(t, tr.mkdirs)
	assert.ElementsMatch(t, []string{"/www/index.html", "/www/css/site.css"}, tr.uploads)

	assertRemoteFile(t, remote, mockFile{"/www/index.html", "v2"})
	assertRemoteFile(t, remote, mockFile{"/www/stale.html", "left alone"})
}

func TestTreeParentBeforeChild(t *testing.T) {
	local := afero.NewMemMapFs()
	writeFiles(t, local,
		mockFile{"/src/a/b/c/deep.txt", "deep"},
		mockFile{"/src/a/top.txt", "top"},
	)

	tr := newRecordingTransport(afero.NewMemMapFs(), local)
	localRoot, err := path.NewLocal(local).Path("/src")
	require.NoError(t, err)

	_, err = Tree(localRoot, path.NewSession(tr).Path("/dst/nested"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/dst", "/dst/nested", "/dst/nested/a",
		"/dst/nested/a/b", "/dst/nested/a/b/c"}, tr.mkdirs)
}

func TestTreeUploadFailureStops(t *testing.T) {
	local := afero.NewMemMapFs()
	remote := afero.NewMemMapFs()
	writeFiles(t, local,
		mockFile{"/a/1.txt", "one"},
		mockFile{"/a/2.txt", "two"},
		mockFile{"/a/3.txt", "three"},
	)

	tr := newRecordingTransport(remote, local)
	diskFull := errors.New("disk full")
	tr.uploadErrs["/r/2.txt"] = diskFull

	localRoot, err := path.NewLocal(local).Path("/a")
	require.NoError(t, err)
	stats, err := Tree(localRoot, path.NewSession(tr).Path("/r"))
	assert.Equal(t, diskFull, errors.RootCause(err))
	assert.Equal(t, 1, stats.FilesUploaded)

	// Files uploaded before the failure are kept, and nothing after it is
	// attempted.
	assertRemoteFile(t, remote, mockFile{"/r/1.txt", "one"})
	assert.Equal(t, []string{"/r/1.txt", "/r/2.txt"}, tr.uploads)
}

func TestTreeEnsureRootFailure(t *testing.T) {
	local := afero.NewMemMapFs()
	writeFiles(t, local, mockFile{"/a/x.txt", "x"})

	tr := newRecordingTransport(afero.NewMemMapFs(), local)
	denied := errors.New("permission denied")
	tr.mkdirErrs["/r"] = denied

	localRoot, err := path.NewLocal(local).Path("/a")
	require.NoError(t, err)
	_, err = Tree(localRoot, path.NewSession(tr).Path("/r"))
	assert.Equal(t, denied, errors.RootCause(err))
	assert.Empty(t, tr.uploads)
}

func TestTreeSymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	osFs := afero.NewOsFs()
	writeFiles(t, osFs,
		mockFile{filepath.Join(dir, "release", "x.txt"), "x"},
		mockFile{filepath.Join(dir, "release", "sub", "y.txt"), "y"},
	)
	require.NoError(t, os.Symlink(filepath.Join(dir, "release"), filepath.Join(dir, "current")))

	remote := afero.NewMemMapFs()
	tr := newRecordingTransport(remote, osFs)
	localRoot, err := path.NewLocal(osFs).Path(filepath.Join(dir, "current"))
	require.NoError(t, err)

	stats, err := Tree(localRoot, path.NewSession(tr).Path("/r"))
	require.NoError(t, err)
	assert.Equal(t, Stats{DirsCreated: 2, FilesUploaded: 2}, stats)
	assertRemoteFile(t, remote, mockFile{"/r/x.txt", "x"})
	assertRemoteFile(t, remote, mockFile{"/r/sub/y.txt", "y"})
}

func TestTreeSymlinksUnderRoot(t *testing.T) {
	dir := t.TempDir()
	osFs := afero.NewOsFs()
	writeFiles(t, osFs,
		mockFile{filepath.Join(dir, "site", "index.html"), "index"},
		mockFile{filepath.Join(dir, "shared", "lib.js"), "lib"},
	)
	site := filepath.Join(dir, "site")
	require.NoError(t, os.Symlink(filepath.Join(dir, "shared"), filepath.Join(site, "assets")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "shared", "lib.js"), filepath.Join(site, "lib.js")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(site, "dangling")))

	remote := afero.NewMemMapFs()
	tr := newRecordingTransport(remote, osFs)
	localRoot, err := path.NewLocal(osFs).Path(site)
	require.NoError(t, err)

	stats, err := Tree(localRoot, path.NewSession(tr).Path("/r"))
	require.NoError(t, err)
	assert.Equal(t, Stats{DirsCreated: 2, FilesUploaded: 2}, stats)

	// The symlinked directory is created but not descended into, and the
	// broken symlink is skipped.
	assert.Equal(t, []string{"/r", "/r/assets"}, tr.mkdirs)
	assert.ElementsMatch(t, []string{"/r/index.html", "/r/lib.js"}, tr.uploads)
	assertRemoteFile(t, remote, mockFile{"/r/lib.js", "lib"})

	exists, err := afero.Exists(remote, "/r/assets/lib.js")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFile(t *testing.T) {
	local := afero.NewMemMapFs()
	remote := afero.NewMemMapFs()
	writeFiles(t, local, mockFile{"/site/index.html", "<html></html>"})

	tr := newRecordingTransport(remote, local)
	localFile, err := path.NewLocal(local).Path("/site/index.html")
	require.NoError(t, err)

	stats, err := File(localFile, path.NewSession(tr).Path("/var/www/index.html"))
	require.NoError(t, err)
	assert.Equal(t, Stats{DirsCreated: 2, FilesUploaded: 1}, stats)
	assertRemoteFile(t, remote, mockFile{"/var/www/index.html", "<html></html>"})
}
