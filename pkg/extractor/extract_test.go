package extractor

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crazy-max/safezip/pkg/archive"
	"github.com/crazy-max/safezip/pkg/safepath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openZip(t *testing.T, names ...string) *archive.Reader {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(filename)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Date(2020, 1, 2, 3, 4, 6, 0, time.UTC),
		})
		require.NoError(t, err)
		if strings.HasSuffix(name, "/") {
			continue
		}
		_, err = w.Write([]byte("Test content"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := archive.OpenFile(context.Background(), filename)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
	})
	return r
}

// listFiles returns every path under root, slash separated.
func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	require.NoError(t, filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == root {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	}))
	return files
}

func TestExtractOne(t *testing.T) {
	r := openZip(t, "file1.txt", "subdir/file2.txt")
	dest := t.TempDir()

	require.NoError(t, ExtractOne(r, "file1.txt", dest, Options{}))

	b, err := os.ReadFile(filepath.Join(dest, "file1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Test content", string(b))

	fi, err := os.Stat(filepath.Join(dest, "file1.txt"))
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(time.Date(2020, 1, 2, 3, 4, 6, 0, time.UTC)))
}

func TestExtractOneFlattens(t *testing.T) {
	r := openZip(t, "file1.txt", "subdir/file2.txt")
	dest := t.TempDir()

	require.NoError(t, ExtractOne(r, "subdir/file2.txt", dest, Options{}))
	assert.Equal(t, []string{"file2.txt"}, listFiles(t, dest))
}

func TestExtractOneTraversal(t *testing.T) {
	r := openZip(t, "../evil.txt")
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	require.NoError(t, os.Mkdir(dest, 0o755))

	err := ExtractOne(r, "../evil.txt", dest, Options{})
	require.ErrorIs(t, err, safepath.ErrPathTraversal)

	assert.Equal(t, []string{"dest"}, listFiles(t, root))
}

func TestExtractOneNotFound(t *testing.T) {
	r := openZip(t, "file1.txt")
	dest := t.TempDir()

	err := ExtractOne(r, "missing.txt", dest, Options{})
	require.ErrorIs(t, err, archive.ErrEntryNotFound)
	assert.Empty(t, listFiles(t, dest))
}

func TestExtractOneDegenerate(t *testing.T) {
	r := openZip(t, "dir/", "dir/file.txt")
	dest := t.TempDir()

	assert.ErrorIs(t, ExtractOne(r, ".", dest, Options{}), ErrNoFilename)
	assert.ErrorIs(t, ExtractOne(r, "dir/", dest, Options{}), ErrNotAFile)
	assert.Empty(t, listFiles(t, dest))
}

func TestExtractAll(t *testing.T) {
	r := openZip(t, "file1.txt", "subdir/", "subdir/file2.txt", "other/deep/file3.txt")
	dest := t.TempDir()

	require.NoError(t, ExtractAll(r, dest, nil, Options{}))
	assert.ElementsMatch(t, []string{
		"file1.txt",
		"subdir",
		"subdir/file2.txt",
		"other",
		"other/deep",
		"other/deep/file3.txt",
	}, listFiles(t, dest))

	b, err := os.ReadFile(filepath.Join(dest, "subdir", "file2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Test content", string(b))
}

func TestExtractAllTraversal(t *testing.T) {
	r := openZip(t, "file1.txt", "../evil.txt", "file3.txt")
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	require.NoError(t, os.Mkdir(dest, 0o755))

	err := ExtractAll(r, dest, nil, Options{})
	require.ErrorIs(t, err, safepath.ErrPathTraversal)

	// no rollback, no further entries
	assert.Equal(t, []string{"dest", "dest/file1.txt"}, listFiles(t, root))
}

func TestExtractAllNames(t *testing.T) {
	r := openZip(t, "a.txt", "b.txt", "c.txt")
	dest := t.TempDir()

	var order []string
	engine := &recordingEngine{Engine: r, lookups: &order}

	require.NoError(t, ExtractAll(engine, dest, []string{"c.txt", "a.txt", "c.txt"}, Options{}))
	assert.Equal(t, []string{"c.txt", "a.txt", "c.txt"}, order)
	assert.ElementsMatch(t, []string{"a.txt", "c.txt"}, listFiles(t, dest))
}

func TestExtractAllNamesTraversal(t *testing.T) {
	r := openZip(t, "a.txt", "../evil.txt")
	dest := t.TempDir()

	var order []string
	engine := &recordingEngine{Engine: r, lookups: &order}

	err := ExtractAll(engine, dest, []string{"a.txt", "../evil.txt", "a.txt"}, Options{})
	require.ErrorIs(t, err, safepath.ErrPathTraversal)
	assert.Equal(t, []string{"a.txt"}, order)
	assert.Equal(t, []string{"a.txt"}, listFiles(t, dest))
}

func TestExtractPassword(t *testing.T) {
	r := openZip(t, "a.txt")
	engine := &recordingEngine{Engine: r}

	require.NoError(t, ExtractOne(engine, "a.txt", t.TempDir(), Options{Password: "secret"}))
	assert.Equal(t, "secret", engine.passphrase)

	require.NoError(t, ExtractAll(engine, t.TempDir(), nil, Options{Password: "other"}))
	assert.Equal(t, "other", engine.passphrase)
}

func TestExtractCanceled(t *testing.T) {
	r := openZip(t, "a.txt", "b.txt")
	dest := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExtractAll(r, dest, nil, Options{Context: ctx})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listFiles(t, dest))
}

type recordingEngine struct {
	Engine
	passphrase string
	lookups    *[]string
}

func (e *recordingEngine) SetPassphrase(passphrase string) {
	e.passphrase = passphrase
	e.Engine.SetPassphrase(passphrase)
}

func (e *recordingEngine) Lookup(ctx context.Context, name string, fn func(archive.File) error) error {
	if e.lookups != nil {
		*e.lookups = append(*e.lookups, name)
	}
	return e.Engine.Lookup(ctx, name, fn)
}
