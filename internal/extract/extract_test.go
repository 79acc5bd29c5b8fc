package extract

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	body string
}

func writeZip(t *testing.T, path string, entries []entry) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		if e.body != "" {
			_, err = w.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func newTestExtractor() *Extractor {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtract_PreservesLayout(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "temp.zip")
	writeZip(t, archive, []entry{
		{name: "patch/"},
		{name: "patch/Data/"},
		{name: "patch/Data/cards.db", body: "new cards"},
		{name: "patch/Hearthstone_Data/Managed/Assembly-CSharp.dll", body: "dll"},
		{name: "prepatch_readme.txt", body: "readme"},
	})

	n, err := newTestExtractor().Extract(archive, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for path, want := range map[string]string{
		"patch/Data/cards.db": "new cards",
		"patch/Hearthstone_Data/Managed/Assembly-CSharp.dll": "dll",
		"prepatch_readme.txt": "readme",
	} {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
		require.NoError(t, err, path)
		assert.Equal(t, want, string(got), path)
	}
}

func TestExtract_OverwritesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "patch"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "patch", "a.txt"), []byte("left over from a failed run"), 0o644))

	archive := filepath.Join(dir, "temp.zip")
	writeZip(t, archive, []entry{{name: "patch/a.txt", body: "fresh"}})

	_, err := newTestExtractor().Extract(archive, dir)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "patch", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
}

func TestExtract_RejectsNonZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "temp.zip")
	require.NoError(t, os.WriteFile(archive, []byte("<html>503 Service Unavailable</html>"), 0o644))

	_, err := newTestExtractor().Extract(archive, dir)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestExtract_MissingArchive(t *testing.T) {
	dir := t.TempDir()
	_, err := newTestExtractor().Extract(filepath.Join(dir, "temp.zip"), dir)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidArchive)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "install")
	require.NoError(t, os.MkdirAll(target, 0o755))
	archive := filepath.Join(dir, "temp.zip")
	writeZip(t, archive, []entry{
		{name: "patch/ok.txt", body: "ok"},
		{name: "../evil.txt", body: "evil"},
	})

	_, err := newTestExtractor().Extract(archive, target)
	assert.ErrorIs(t, err, ErrUnsafePath)

	_, statErr := os.Stat(filepath.Join(dir, "evil.txt"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(target, "patch", "ok.txt"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written when any entry is unsafe")
}

func TestEntryPath(t *testing.T) {
	root := filepath.FromSlash("/install")
	got, err := entryPath(root, `patch\Data\cards.db`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "patch", "Data", "cards.db"), got)

	for _, bad := range []string{"", "/etc/passwd", "../x", "patch/../../x"} {
		_, err := entryPath(root, bad)
		assert.ErrorIs(t, err, ErrUnsafePath, bad)
	}
}
