package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/stowage/pkg/errors"
	"github.com/oneconcern/stowage/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFormat(t *testing.T) {
	data, err := Encode([]Entry{NewEntry("a.txt", 0), Hole(1)})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"path_list":[{"dflow_list_item":"a.txt","order":0},{"dflow_list_item":null,"order":1}]}`,
		string(data))

	data, err = Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path_list":[]}`, string(data))
}

func TestDecode(t *testing.T) {
	entries, err := Decode([]byte(`{"path_list":[{"dflow_list_item":"a/b","order":2},{"dflow_list_item":null,"order":0}]}`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a/b", entries[0].Path())
	assert.True(t, entries[1].IsHole())

	_, err = Decode([]byte(`{"path_list":`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFragment))
}

func TestReadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DefaultDir)

	cat, err := ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, cat)

	p1, err := WriteFragment(dir, []Entry{NewEntry("b", 1)})
	require.NoError(t, err)
	p2, err := WriteFragment(dir, []Entry{NewEntry("a", 0), NewEntry("b", 1)})
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	cat, err = ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, derefs(cat.Items()))

	require.NoError(t, Cleanup(dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestReadDirInvalidFragment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken"), []byte("not json"), 0o600))

	_, err := ReadDir(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFragment))
}

func TestDir(t *testing.T) {
	assert.Equal(t, "a/b/.dflow/", Dir("a/b/", ""))
	assert.Equal(t, "a/b/.cat/", Dir("a/b", ".cat"))
	assert.Equal(t, ".dflow/", Dir("", DefaultDir))
}

func TestRemoteFragments(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(afero.NewMemMapFs())

	cat, err := ReadRemote(ctx, store, "artifacts/out", DefaultDir)
	require.NoError(t, err)
	assert.Empty(t, cat)

	// producers write concurrently to the same prefix, in any order
	_, err = WriteRemote(ctx, store, "artifacts/out/", DefaultDir, []Entry{NewEntry("part-2", 2)})
	require.NoError(t, err)
	_, err = WriteRemote(ctx, store, "artifacts/out/", DefaultDir, []Entry{NewEntry("part-0", 0)})
	require.NoError(t, err)
	key, err := WriteRemote(ctx, store, "artifacts/out/", DefaultDir, []Entry{Hole(1), NewEntry("part-0", 0)})
	require.NoError(t, err)
	assert.Contains(t, key, "artifacts/out/.dflow/")

	cat, err = ReadRemote(ctx, store, "artifacts/out", DefaultDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"part-0", "<nil>", "part-2"}, derefs(cat.Items()))
}

func TestRemoteCatalogUnderSingleDirectory(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(afero.NewMemMapFs())

	_, err := WriteRemote(ctx, store, "prefix/staging123/", DefaultDir, []Entry{NewEntry("x", 0)})
	require.NoError(t, err)

	cat, err := ReadRemote(ctx, store, "prefix", DefaultDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, derefs(cat.Items()))
}

func TestRemoteCatalogOfPlaceholdersOnly(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(afero.NewMemMapFs())

	_, err := WriteRemote(ctx, store, "slices/", DefaultDir, []Entry{Hole(0)})
	require.NoError(t, err)
	_, err = WriteRemote(ctx, store, "slices/", DefaultDir, []Entry{Hole(1)})
	require.NoError(t, err)

	cat, err := ReadRemote(ctx, store, "slices", DefaultDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"<nil>", "<nil>"}, derefs(cat.Items()))
}
