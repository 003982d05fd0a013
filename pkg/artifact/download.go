// Copyright © 2018 One Concern

package artifact

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oneconcern/stowage/pkg/catalog"
	"github.com/oneconcern/stowage/pkg/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Download an artifact into the local directory dst (defaults to the current directory).
//
// It returns the catalog of the artifact as local paths, one per slot, with nil for holes.
// Artifacts without catalog yield an empty list.
//
// Files written before a failure are left in place.
func Download(ctx context.Context, cfg Config, store storage.Store, h Handle, dst string, opts ...Option) ([]*string, error) {
	s := defaultSettings(cfg, opts)
	if dst == "" {
		dst = "."
	}
	if h.slice != nil && s.slice == nil && !s.hasSubPath {
		s.slice = h.slice
	}
	if h.subPath != "" && !s.hasSubPath && s.slice == nil {
		s.subPath = h.subPath
	}

	if h.IsLocal() || (cfg.Mode == ModeLocal && h.Key == "") {
		return downloadLocal(cfg, s, h, dst)
	}
	if h.Key == "" {
		return nil, ErrArtifactNotFound.Wrapf("empty key")
	}

	key := strings.TrimSuffix(h.Key, storage.Separator)
	subPath := s.subPath
	if s.slice != nil {
		cat, err := catalog.ReadRemote(ctx, store, key, cfg.catalogDir())
		if err != nil {
			return nil, err
		}
		if subPath, err = sliceItem(cat, *s.slice, key); err != nil {
			return nil, err
		}
	}
	if subPath = strings.Trim(subPath, storage.Separator); subPath != "" {
		key = key + storage.Separator + subPath
		dst = filepath.Join(dst, filepath.FromSlash(path.Dir(subPath)))
	}

	if err := downloadObjects(ctx, cfg, store, s, key, dst); err != nil {
		return nil, err
	}

	if strings.HasSuffix(key, ArchiveExt) && s.extract {
		if err := unpack(filepath.Join(dst, path.Base(key)), dst); err != nil {
			return nil, err
		}
	}

	s.l.Info("artifact downloaded", zap.String("key", key), zap.String("path", dst))
	return assemble(cfg, dst)
}

func sliceItem(cat catalog.Catalog, slice int, key string) (string, error) {
	if len(cat) == 0 {
		return "", ErrNotSliced.Wrapf("%s", key)
	}
	item, ok := cat.Item(slice)
	if !ok {
		return "", ErrSliceOutOfRange.Wrapf("slice %d of %s", slice, key)
	}
	if item == nil {
		return "", ErrArtifactNotFound.Wrapf("slice %d of %s has no content", slice, key)
	}
	return *item, nil
}

// downloadObjects fetches all objects under key
func downloadObjects(ctx context.Context, cfg Config, store storage.Store, s *settings, key, dst string) error {
	listed, err := store.List(ctx, key, true)
	if err != nil {
		return err
	}

	objects := make(map[string]string, len(listed))
	for _, obj := range listed {
		switch {
		case obj == key:
			objects[obj] = filepath.Join(dst, path.Base(key))
		case strings.HasPrefix(obj, key+storage.Separator):
			objects[obj] = filepath.Join(dst, filepath.FromSlash(obj[len(key)+1:]))
		}
	}
	if len(objects) == 0 {
		return ErrArtifactNotFound.Wrapf("%s", key)
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.concurrency())
	for obj, local := range objects {
		obj, local := obj, local
		group.Go(func() error {
			if s.skipExists && sameContent(gctx, store, obj, local) {
				s.l.Debug("skipping unchanged file", zap.String("key", obj), zap.String("path", local))
				return nil
			}
			return store.Download(gctx, obj, local)
		})
	}
	return group.Wait()
}

func sameContent(ctx context.Context, store storage.Store, key, local string) bool {
	if _, err := os.Stat(local); err != nil {
		return false
	}
	localSum, err := storage.FileChecksum(local)
	if err != nil {
		return false
	}
	remoteSum, err := store.Checksum(ctx, key)
	if err != nil {
		return false
	}
	return localSum == remoteSum
}

// unpack extracts a downloaded tarball and merges its content into dst.
//
// When the tarball holds a single top-level directory, the content of this directory
// is merged instead.
func unpack(tarball, dst string) (err error) {
	scratch, err := os.MkdirTemp(dst, ".stowage-extract-")
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(scratch))
	}()

	if err = extractArchive(tarball, scratch); err != nil {
		return err
	}
	if err = os.Remove(tarball); err != nil {
		return ErrStaging.Wrap(err)
	}

	root := scratch
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	if len(entries) == 1 {
		if info, ok := exists(filepath.Join(scratch, entries[0].Name())); ok && info.IsDir() {
			root = filepath.Join(scratch, entries[0].Name())
		}
	}
	return mergeDir(root, dst, forceMove)
}

// assemble removes bookkeeping files from a downloaded artifact and resolves its catalog as local paths
func assemble(cfg Config, dst string) ([]*string, error) {
	if err := removeEmptyDirMarkers(dst); err != nil {
		return nil, err
	}
	catalogDir := filepath.Join(dst, cfg.catalogDir())
	cat, err := catalog.ReadDir(catalogDir)
	if err != nil {
		return nil, err
	}
	if err = catalog.Cleanup(catalogDir); err != nil {
		return nil, err
	}

	items := cat.Items()
	res := make([]*string, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		local := filepath.Join(dst, filepath.FromSlash(*item))
		res[i] = &local
	}
	return res, nil
}

// downloadLocal links a locally materialized artifact into dst
func downloadLocal(cfg Config, s *settings, h Handle, dst string) ([]*string, error) {
	if !h.IsLocal() {
		return nil, ErrArtifactNotFound.Wrapf("no local path for artifact")
	}
	src := h.LocalPath
	subPath := s.subPath
	if s.slice != nil {
		cat, err := catalog.ReadDir(filepath.Join(src, cfg.catalogDir()))
		if err != nil {
			return nil, err
		}
		if subPath, err = sliceItem(cat, *s.slice, src); err != nil {
			return nil, err
		}
	}
	if subPath = strings.Trim(subPath, storage.Separator); subPath != "" {
		src = filepath.Join(src, filepath.FromSlash(subPath))
		dst = filepath.Join(dst, filepath.FromSlash(path.Dir(subPath)))
	}

	info, ok := exists(src)
	if !ok {
		return nil, ErrArtifactNotFound.Wrapf("%s", src)
	}
	if info.IsDir() {
		if err := linkTree(src, dst); err != nil {
			return nil, err
		}
	} else {
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return nil, ErrStaging.Wrap(err)
		}
		if err := forceLink(src, filepath.Join(dst, filepath.Base(src))); err != nil {
			return nil, ErrStaging.Wrap(err)
		}
	}

	s.l.Info("local artifact linked", zap.String("source", src), zap.String("path", dst))
	return assemble(cfg, dst)
}
