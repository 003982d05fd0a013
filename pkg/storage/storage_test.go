package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/stowage/pkg/storage"
	"github.com/oneconcern/stowage/pkg/storage/localfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func memStore(t testing.TB, files map[string]string) storage.Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0700))
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0600))
	}
	return localfs.New(fs)
}

func TestResolvePrefix(t *testing.T) {
	ctx := context.Background()
	st := memStore(t, map[string]string{
		"single/tmp123/a.txt":   "a",
		"single/tmp123/b/c.txt": "c",
		"multi/x/a.txt":         "a",
		"multi/y.txt":           "y",
		"flat/a.txt":            "a",
		"holes/.dflow/frag":     "{}",
	})

	p, err := storage.ResolvePrefix(ctx, st, "single")
	require.NoError(t, err)
	assert.Equal(t, "single/tmp123/", p)

	p, err = storage.ResolvePrefix(ctx, st, "multi/")
	require.NoError(t, err)
	assert.Equal(t, "multi/", p)

	p, err = storage.ResolvePrefix(ctx, st, "flat")
	require.NoError(t, err)
	assert.Equal(t, "flat/", p)

	p, err = storage.ResolvePrefix(ctx, st, "empty")
	require.NoError(t, err)
	assert.Equal(t, "empty/", p)

	p, err = storage.ResolvePrefix(ctx, st, "holes", ".dflow")
	require.NoError(t, err)
	assert.Equal(t, "holes/", p)

	p, err = storage.ResolvePrefix(ctx, st, "holes")
	require.NoError(t, err)
	assert.Equal(t, "holes/.dflow/", p)
}

func TestCopyObject(t *testing.T) {
	ctx := context.Background()
	src := memStore(t, map[string]string{"a/one": "one"})
	dst := memStore(t, nil)

	require.NoError(t, storage.CopyObject(ctx, src, "a/one", nil, "b/one"))
	require.NoError(t, storage.CopyObject(ctx, src, "a/one", dst, "c/one"))

	keys, err := src.List(ctx, "", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one", "b/one"}, keys)

	keys, err = dst.List(ctx, "", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"c/one"}, keys)

	want, _ := src.Checksum(ctx, "a/one")
	got, err := dst.Checksum(ctx, "c/one")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	err = storage.Transfer(ctx, src, "missing", dst, "c/missing")
	assert.True(t, storage.IsNotExist(err))
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	metrics := storage.NewMetrics(registry)
	st := storage.Instrument(memStore(t, map[string]string{"a/one": "one"}),
		storage.WithMetrics(metrics),
		storage.WithLogger(zaptest.NewLogger(t)),
	)
	assert.Equal(t, "localfs", st.String())

	_, err := st.List(ctx, "a/", true)
	require.NoError(t, err)
	_, err = st.Checksum(ctx, "a/one")
	require.NoError(t, err)
	require.NoError(t, st.Copy(ctx, "a/one", "a/two"))

	target := filepath.Join(t.TempDir(), "two")
	require.NoError(t, st.Download(ctx, "a/two", target))
	require.NoError(t, st.Upload(ctx, "a/three", target))
	require.Error(t, st.Download(ctx, "a/nope", target))

	_, err = os.Stat(target)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues("localfs", "list", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues("localfs", "download", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues("localfs", "download", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues("localfs", "upload", "ok")))
	assert.Equal(t, 5, testutil.CollectAndCount(metrics.Duration))
}
