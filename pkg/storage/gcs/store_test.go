// Copyright © 2018 One Concern

package gcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/oneconcern/stowage/pkg/storage"
	"github.com/oneconcern/stowage/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestToSentinelErrors(t *testing.T) {
	assert.NoError(t, toSentinelErrors(nil))
	assert.True(t, errors.Is(toSentinelErrors(gcsStorage.ErrObjectNotExist), status.ErrNotExists))
	assert.True(t, errors.Is(toSentinelErrors(fmt.Errorf("reading: %w", gcsStorage.ErrObjectNotExist)), status.ErrNotExists))
	assert.True(t, errors.Is(toSentinelErrors(gcsStorage.ErrBucketNotExist), status.ErrNotFound))
	assert.True(t, errors.Is(toSentinelErrors(&googleapi.Error{Code: 403}), status.ErrForbidden))
	assert.True(t, errors.Is(toSentinelErrors(&googleapi.Error{Code: 401}), status.ErrUnauthorized))
	assert.True(t, errors.Is(toSentinelErrors(&googleapi.Error{Code: 404}), status.ErrNotFound))
	assert.True(t, errors.Is(toSentinelErrors(&googleapi.Error{Code: 400, Body: "bucket is not valid"}), status.ErrInvalidResource))
	assert.True(t, errors.Is(toSentinelErrors(&googleapi.Error{Code: 500}), status.ErrStorageAPI))
}

// TestGCSStore runs against a real bucket when STOWAGE_TEST_GCS_BUCKET is set
func TestGCSStore(t *testing.T) {
	bucket := os.Getenv("STOWAGE_TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("STOWAGE_TEST_GCS_BUCKET is not set")
	}
	ctx := context.Background()
	bs, err := New(ctx, bucket, CredentialFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")))
	require.NoError(t, err)

	prefix := "stowage-test/" + uuid.NewString() + "/"
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("this is the text"), 0600))

	require.NoError(t, bs.Upload(ctx, prefix+"a/one", src))
	require.NoError(t, bs.Copy(ctx, prefix+"a/one", prefix+"b/two"))

	keys, err := bs.List(ctx, prefix, false)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + "a/", prefix + "b/"}, keys)

	want, err := storage.FileChecksum(src)
	require.NoError(t, err)
	got, err := bs.Checksum(ctx, prefix+"b/two")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	dst := filepath.Join(dir, "dst")
	require.NoError(t, bs.Download(ctx, prefix+"b/two", dst))
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "this is the text", string(b))
}
