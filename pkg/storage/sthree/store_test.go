package sthree

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/oneconcern/stowage/pkg/storage"
	"github.com/oneconcern/stowage/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minioEndpoint() string {
	if ep := os.Getenv("STOWAGE_TEST_MINIO"); ep != "" {
		return ep
	}
	return "127.0.0.1:9000"
}

func setupStore(t testing.TB) (storage.Store, func()) {
	t.Helper()

	bucket := aws.String("stowage-" + uuid.NewString()[:8])
	minioConfig := MinioConfig(minioEndpoint(), "access-key", "secret-key-thing", false)
	sess, err := session.NewSession(minioConfig)
	require.NoError(t, err)
	cl := s3.New(sess)
	if _, err = cl.ListBuckets(nil); err != nil {
		t.Skipf("minio is not running: %v", err)
	}

	_, err = cl.CreateBucket(&s3.CreateBucketInput{Bucket: bucket})
	require.NoError(t, err)

	up := s3manager.NewUploader(sess)
	for key, content := range map[string]string{
		"sixteentons":       "this is the text",
		"a/b/seventeentons": "this is the text for another thing",
		"a/c/eighteentons":  "more",
	} {
		_, err = up.UploadWithContext(aws.BackgroundContext(), &s3manager.UploadInput{
			Body:   bytes.NewBufferString(content),
			Bucket: bucket,
			Key:    aws.String(key),
		})
		require.NoError(t, err)
	}

	cleanup := func() {
		del := s3manager.NewBatchDeleteWithClient(cl)
		_ = del.Delete(aws.BackgroundContext(), s3manager.NewDeleteListIterator(cl, &s3.ListObjectsInput{Bucket: bucket}))
		_, _ = cl.DeleteBucket(&s3.DeleteBucketInput{Bucket: bucket})
	}

	st, err := New(Bucket(*bucket), AWSConfig(minioConfig))
	require.NoError(t, err)
	return st, cleanup
}

func TestS3Store(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	keys, err := bs.List(ctx, "", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/seventeentons", "a/c/eighteentons", "sixteentons"}, keys)

	keys, err = bs.List(ctx, "a/", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/", "a/c/"}, keys)

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("here we go once again"), 0600))
	require.NoError(t, bs.Upload(ctx, "x/twentytons", src))
	require.NoError(t, bs.Copy(ctx, "x/twentytons", "y/twentytons"))

	dst := filepath.Join(dir, "out", "dst")
	require.NoError(t, bs.Download(ctx, "y/twentytons", dst))
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "here we go once again", string(b))

	want, err := storage.FileChecksum(src)
	require.NoError(t, err)
	got, err := bs.Checksum(ctx, "y/twentytons")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	err = bs.Download(ctx, "nope", filepath.Join(dir, "nope"))
	assert.True(t, storage.IsNotExist(err))
	assert.NoFileExists(t, filepath.Join(dir, "nope"))
}

func TestToSentinelErrors(t *testing.T) {
	cause := errors.New("boom")
	for _, tc := range []struct {
		code     string
		status   int
		sentinel error
	}{
		{code: "NoSuchKey", status: 404, sentinel: status.ErrNotExists},
		{code: "NotFound", status: 404, sentinel: status.ErrNotExists},
		{code: "NoSuchBucket", status: 404, sentinel: status.ErrNotFound},
		{code: "AccessDenied", status: 403, sentinel: status.ErrForbidden},
		{code: "Unauthorized", status: 401, sentinel: status.ErrUnauthorized},
		{code: "InvalidBucketName", status: 400, sentinel: status.ErrInvalidResource},
		{code: "SlowDown", status: 503, sentinel: status.ErrStorageAPI},
	} {
		err := toSentinelErrors(awserr.NewRequestFailure(awserr.New(tc.code, "msg", cause), tc.status, "req"))
		assert.Truef(t, errors.Is(err, tc.sentinel), "code %s", tc.code)
	}
	assert.NoError(t, toSentinelErrors(nil))
	assert.True(t, errors.Is(toSentinelErrors(cause), status.ErrStorageAPI))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Bucket(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidResource))
}
