// Copyright © 2018 One Concern

// Package localfs implements a storage.Store as a directory tree on an afero file system.
package localfs

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/oneconcern/stowage/pkg/storage"
	"github.com/oneconcern/stowage/pkg/storage/status"
	"github.com/spf13/afero"
)

/* puts are made atomic via afero.Fs.Rename(): files are written in a staging
 * area within the store, then Rename()d into place. Concurrent writers of the
 * same key never observe a partially written object.
 */
const (
	nestedPutStageName = ".put-stage"
)

// New creates a new local file system backed storage model.
//
// The root of fs is the root of the key space.
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".stowage", "objects"))
	}
	return &localFS{
		fs: fs,
	}
}

// NewAt creates a local file system store rooted at some directory on the OS file system
func NewAt(root string) (storage.Store, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, storage.NewError("init", root, status.ErrLocalIO.Wrap(err))
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

type localFS struct {
	fs afero.Fs
}

func maybeInvalidKey(key string) error {
	components := strings.Split(strings.TrimLeft(key, storage.Separator), storage.Separator)
	if key == "" || strings.HasSuffix(key, storage.Separator) {
		return status.ErrInvalidKey.Wrapf("key %q does not designate an object", key)
	}
	if components[0] == nestedPutStageName {
		return status.ErrInvalidKey.Wrapf("key %q conflicts with put staging area name %q", key, nestedPutStageName)
	}
	for _, c := range components {
		if c == ".." {
			return status.ErrInvalidKey.Wrapf("key %q escapes the store", key)
		}
	}
	return nil
}

func (l *localFS) stat(key string) (os.FileInfo, error) {
	fi, err := l.fs.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotExists.Wrap(err)
		}
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	if fi.IsDir() {
		return nil, status.ErrNotExists.Wrapf("%q is a directory", key)
	}
	return fi, nil
}

func (l *localFS) Upload(ctx context.Context, key, localPath string) error {
	if err := maybeInvalidKey(key); err != nil {
		return storage.NewError("upload", key, err)
	}
	source, err := os.Open(localPath)
	if err != nil {
		return storage.NewError("upload", key, status.ErrLocalIO.Wrap(err))
	}
	defer source.Close()

	return storage.NewError("upload", key, l.put(key, source))
}

func (l *localFS) put(key string, source io.Reader) error {
	putStageKey := path.Join(nestedPutStageName, uuid.NewString())
	if err := l.fs.MkdirAll(nestedPutStageName, 0700); err != nil {
		return status.ErrStorageAPI.Wrap(err)
	}
	if err := afero.WriteReader(l.fs, putStageKey, source); err != nil {
		_ = l.fs.Remove(putStageKey)
		return status.ErrStorageAPI.Wrap(err)
	}
	/* Rename() doesn't create directories automatically */
	if dir := path.Dir(key); dir != "." {
		if err := l.fs.MkdirAll(dir, 0700); err != nil {
			_ = l.fs.Remove(putStageKey)
			return status.ErrStorageAPI.Wrap(err)
		}
	}
	if err := l.fs.Rename(putStageKey, key); err != nil {
		_ = l.fs.Remove(putStageKey)
		return status.ErrStorageAPI.Wrap(err)
	}
	return nil
}

func (l *localFS) Download(ctx context.Context, key, localPath string) error {
	if err := maybeInvalidKey(key); err != nil {
		return storage.NewError("download", key, err)
	}
	if _, err := l.stat(key); err != nil {
		return storage.NewError("download", key, err)
	}
	source, err := l.fs.Open(key)
	if err != nil {
		return storage.NewError("download", key, status.ErrStorageAPI.Wrap(err))
	}
	defer source.Close()

	if err = os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	target, err := os.Create(localPath)
	if err != nil {
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	if _, err = io.Copy(target, source); err != nil {
		_ = target.Close()
		return storage.NewError("download", key, status.ErrLocalIO.Wrap(err))
	}
	return storage.NewError("download", key, target.Close())
}

// keys walks the whole store. Keys are slash separated, without leading slash.
func (l *localFS) keys() ([]string, error) {
	const root = "."
	var res []string
	e := afero.Walk(l.fs, root, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		key := strings.TrimPrefix(filepath.ToSlash(pth), storage.Separator)
		if key == root || key == "" {
			return nil
		}
		if info.IsDir() {
			if key == nestedPutStageName {
				return filepath.SkipDir
			}
			return nil
		}
		res = append(res, key)
		return nil
	})
	if e != nil {
		return nil, status.ErrStorageAPI.Wrap(e)
	}
	return res, nil
}

func (l *localFS) List(ctx context.Context, prefix string, recursive bool) ([]string, error) {
	all, err := l.keys()
	if err != nil {
		return nil, storage.NewError("list", prefix, err)
	}
	seen := make(map[string]struct{}, len(all))
	res := make([]string, 0, len(all))
	for _, key := range all {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !recursive {
			rest := key[len(prefix):]
			if idx := strings.Index(rest, storage.Separator); idx >= 0 {
				key = prefix + rest[:idx+1]
			}
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, key)
	}
	sort.Strings(res)
	return res, nil
}

func (l *localFS) Copy(ctx context.Context, srcKey, dstKey string) error {
	for _, key := range []string{srcKey, dstKey} {
		if err := maybeInvalidKey(key); err != nil {
			return storage.NewError("copy", key, err)
		}
	}
	if _, err := l.stat(srcKey); err != nil {
		return storage.NewError("copy", srcKey, err)
	}
	source, err := l.fs.Open(srcKey)
	if err != nil {
		return storage.NewError("copy", srcKey, status.ErrStorageAPI.Wrap(err))
	}
	defer source.Close()
	return storage.NewError("copy", dstKey, l.put(dstKey, source))
}

func (l *localFS) Checksum(ctx context.Context, key string) (string, error) {
	if err := maybeInvalidKey(key); err != nil {
		return "", storage.NewError("checksum", key, err)
	}
	if _, err := l.stat(key); err != nil {
		return "", storage.NewError("checksum", key, err)
	}
	source, err := l.fs.Open(key)
	if err != nil {
		return "", storage.NewError("checksum", key, status.ErrStorageAPI.Wrap(err))
	}
	defer source.Close()
	sum, err := storage.ChecksumReader(source)
	if err != nil {
		return "", storage.NewError("checksum", key, status.ErrStorageAPI.Wrap(err))
	}
	return sum, nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}
