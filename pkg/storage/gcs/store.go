// Copyright © 2018 One Concern

// Package gcs implements a storage.Store on Google Cloud Storage.
package gcs

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/stowage/pkg/storage"
	"github.com/oneconcern/stowage/pkg/storage/status"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type gcs struct {
	client         *gcsStorage.Client
	bucket         string
	credentialFile string
	l              *zap.Logger
}

// New GCS store on some bucket
func New(ctx context.Context, bucket string, opts ...Option) (storage.Store, error) {
	googleStore := &gcs{
		bucket: bucket,
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(googleStore)
	}

	var clientOpts []option.ClientOption
	if googleStore.credentialFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(googleStore.credentialFile))
	}
	clientOpts = append(clientOpts, option.WithScopes(gcsStorage.ScopeFullControl))

	var err error
	googleStore.client, err = gcsStorage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, storage.NewError("init", bucket, toSentinelErrors(err))
	}
	return googleStore, nil
}

func (g *gcs) String() string {
	return "gcs://" + g.bucket
}

func (g *gcs) object(key string) *gcsStorage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(key)
}

func (g *gcs) Upload(ctx context.Context, key, localPath string) error {
	source, err := os.Open(localPath)
	if err != nil {
		return storage.NewError("upload", key, status.ErrLocalIO.Wrap(err))
	}
	defer source.Close()

	writer := g.object(key).NewWriter(ctx)
	if _, err = io.Copy(writer, source); err != nil {
		_ = writer.Close()
		return storage.NewError("upload", key, toSentinelErrors(err))
	}
	return storage.NewError("upload", key, toSentinelErrors(writer.Close()))
}

func (g *gcs) Download(ctx context.Context, key, localPath string) error {
	reader, err := g.object(key).NewReader(ctx)
	if err != nil {
		return storage.NewError("download", key, toSentinelErrors(err))
	}
	defer reader.Close()

	if err = os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	target, err := os.Create(localPath)
	if err != nil {
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	if _, err = io.Copy(target, reader); err != nil {
		_ = target.Close()
		return storage.NewError("download", key, toSentinelErrors(err))
	}
	if err = target.Close(); err != nil {
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	return nil
}

func (g *gcs) List(ctx context.Context, prefix string, recursive bool) ([]string, error) {
	query := &gcsStorage.Query{Prefix: prefix}
	if !recursive {
		query.Delimiter = storage.Separator
	}
	var keys []string
	objectsIterator := g.client.Bucket(g.bucket).Objects(ctx, query)
	for {
		attrs, err := objectsIterator.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storage.NewError("list", prefix, toSentinelErrors(err))
		}
		if attrs.Prefix != "" {
			// synthetic directory entry in non-recursive mode
			keys = append(keys, attrs.Prefix)
			continue
		}
		keys = append(keys, attrs.Name)
	}
	g.l.Debug("gcs list", zap.String("prefix", prefix), zap.Int("keys", len(keys)))
	sort.Strings(keys)
	return keys, nil
}

func (g *gcs) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := g.object(dstKey).CopierFrom(g.object(srcKey)).Run(ctx)
	return storage.NewError("copy", srcKey, toSentinelErrors(err))
}

func (g *gcs) Checksum(ctx context.Context, key string) (string, error) {
	attrs, err := g.object(key).Attrs(ctx)
	if err != nil {
		return "", storage.NewError("checksum", key, toSentinelErrors(err))
	}
	return hex.EncodeToString(attrs.MD5), nil
}
