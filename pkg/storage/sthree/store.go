// Package sthree implements a storage.Store on AWS S3, or any S3 compatible service.
package sthree

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/oneconcern/stowage/pkg/storage"
	"github.com/oneconcern/stowage/pkg/storage/status"
	"go.uber.org/zap"
)

// PageSize for listings
const PageSize = 1000

// Option configures the S3 store
type Option func(*s3FS)

// Bucket sets the bucket holding objects
func Bucket(bucket string) Option {
	return func(fs *s3FS) {
		fs.bucket = bucket
	}
}

// AWSConfig sets the AWS client configuration, e.g. credentials, region and endpoint
func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(fs *s3FS) {
		if logger != nil {
			fs.l = logger
		}
	}
}

// MinioConfig builds an AWS configuration suitable for a MinIO endpoint
func MinioConfig(endpoint, accessKey, secretKey string, secure bool) *aws.Config {
	scheme := "http://"
	if secure {
		scheme = "https://"
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = scheme + endpoint
	}
	return &aws.Config{
		Credentials:      credentialsFor(accessKey, secretKey),
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(!secure),
	}
}

// New S3 store
func New(option Option, options ...Option) (storage.Store, error) {
	fs := &s3FS{l: zap.NewNop()}
	option(fs)
	for _, apply := range options {
		apply(fs)
	}
	if fs.bucket == "" {
		return nil, storage.NewError("init", "", status.ErrInvalidResource.Wrapf("a bucket is required"))
	}

	sess, err := session.NewSession(fs.awsConfig)
	if err != nil {
		return nil, storage.NewError("init", fs.bucket, status.ErrStorageAPI.Wrap(err))
	}
	fs.s3 = s3.New(sess)
	fs.uploader = s3manager.NewUploaderWithClient(fs.s3)
	fs.downloader = s3manager.NewDownloaderWithClient(fs.s3)
	return fs, nil
}

type s3FS struct {
	bucket     string
	awsConfig  *aws.Config
	s3         *s3.S3
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	l          *zap.Logger
}

func (s *s3FS) Upload(ctx context.Context, key, localPath string) error {
	source, err := os.Open(localPath)
	if err != nil {
		return storage.NewError("upload", key, status.ErrLocalIO.Wrap(err))
	}
	defer source.Close()

	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   source,
	})
	return storage.NewError("upload", key, toSentinelErrors(err))
}

func (s *s3FS) Download(ctx context.Context, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	target, err := os.Create(localPath)
	if err != nil {
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	_, err = s.downloader.DownloadWithContext(ctx, target, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		_ = target.Close()
		_ = os.Remove(localPath)
		return storage.NewError("download", key, toSentinelErrors(err))
	}
	if err = target.Close(); err != nil {
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	return nil
}

func (s *s3FS) List(ctx context.Context, prefix string, recursive bool) ([]string, error) {
	var keys []string
	params := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(PageSize),
	}
	if !recursive {
		params.Delimiter = aws.String(storage.Separator)
	}

	eachPage := func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			if key := aws.StringValue(obj.Key); key != "" {
				keys = append(keys, key)
			}
		}
		for _, common := range page.CommonPrefixes {
			if p := aws.StringValue(common.Prefix); p != "" {
				keys = append(keys, p)
			}
		}
		return true
	}

	if err := s.s3.ListObjectsV2PagesWithContext(ctx, params, eachPage); err != nil {
		return nil, storage.NewError("list", prefix, toSentinelErrors(err))
	}
	s.l.Debug("s3 list", zap.String("prefix", prefix), zap.Int("keys", len(keys)))
	sort.Strings(keys)
	return keys, nil
}

func (s *s3FS) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.s3.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(url.PathEscape(s.bucket + storage.Separator + srcKey)),
		Key:        aws.String(dstKey),
	})
	return storage.NewError("copy", srcKey, toSentinelErrors(err))
}

func (s *s3FS) Checksum(ctx context.Context, key string) (string, error) {
	head, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", storage.NewError("checksum", key, toSentinelErrors(err))
	}
	// single part uploads report the MD5 of their content as ETag
	return strings.Trim(aws.StringValue(head.ETag), `"`), nil
}

func (s *s3FS) String() string {
	return "s3@" + s.bucket
}
