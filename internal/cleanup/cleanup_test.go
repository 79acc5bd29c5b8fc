package cleanup

import (
	"io"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCleaner(fsys afero.Fs) *Cleaner {
	return New(fsys, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClean_RemovesArchiveAndTree(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/hs/temp.zip", []byte("zip"), 0o644))
	require.NoError(t, fsys.MkdirAll("/hs/patch/Data/empty", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/hs/Data/cards.db", []byte("keep"), 0o644))

	require.NoError(t, newTestCleaner(fsys).Clean("/hs/temp.zip", "/hs/patch"))

	for _, gone := range []string{"/hs/temp.zip", "/hs/patch", "/hs/patch/Data"} {
		ok, err := afero.Exists(fsys, gone)
		require.NoError(t, err)
		assert.False(t, ok, gone)
	}
	ok, err := afero.Exists(fsys, "/hs/Data/cards.db")
	require.NoError(t, err)
	assert.True(t, ok, "installation files are untouched")
}

func TestClean_MissingArchiveIsAnError(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/hs/patch", 0o755))

	err := newTestCleaner(fsys).Clean("/hs/temp.zip", "/hs/patch")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestClean_ReadOnlyFs(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/hs/temp.zip", []byte("zip"), 0o644))

	err := newTestCleaner(afero.NewReadOnlyFs(mem)).Clean("/hs/temp.zip", "/hs/patch")
	assert.Error(t, err)
}
