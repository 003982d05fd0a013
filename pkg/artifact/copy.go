// Copyright © 2018 One Concern

package artifact

import (
	"context"
	"path"
	"strings"

	"github.com/oneconcern/stowage/pkg/catalog"
	"github.com/oneconcern/stowage/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Copy all objects of the artifact src to the artifact dst.
//
// With Sort, the catalog of src is appended after the catalog of dst: source entries are
// renumbered past the largest order found in dst, and written as a new fragment of dst.
//
// Objects are copied server-side, unless a distinct DestinationStore is given.
// A tarball is copied as a single object, to the destination key with the archive extension.
func Copy(ctx context.Context, cfg Config, store storage.Store, src, dst Handle, opts ...Option) (Handle, error) {
	s := defaultSettings(cfg, opts)
	dstStore := s.dstStore
	if dstStore == nil {
		dstStore = store
	}
	if src.Key == "" {
		return Handle{}, ErrArtifactNotFound.Wrapf("empty source key")
	}
	if dst.Key == "" {
		return Handle{}, ErrArtifactNotFound.Wrapf("empty destination key")
	}

	if strings.HasSuffix(src.Key, ArchiveExt) {
		target := tarballKey(dst.Key)
		if err := copyTarball(ctx, store, src.Key, dstStore, target); err != nil {
			return Handle{}, err
		}
		s.l.Info("artifact copied", zap.String("source", src.Key), zap.String("destination", target))
		return Handle{Key: target}, nil
	}

	ignoreCatalog := s.ignoreCat
	if s.sort {
		appended, err := appendCatalog(ctx, cfg, store, src.Key, dstStore, dst.Key)
		if err != nil {
			return Handle{}, err
		}
		if appended {
			s.l.Debug("appended source catalog to destination", zap.String("source", src.Key), zap.String("destination", dst.Key))
			ignoreCatalog = true
		}
	}

	if err := copyPrefix(ctx, cfg, s, store, src.Key, dstStore, dst.Key, ignoreCatalog); err != nil {
		return Handle{}, err
	}
	s.l.Info("artifact copied", zap.String("source", src.Key), zap.String("destination", dst.Key))
	return Handle{Key: dst.Key}, nil
}

// appendCatalog writes the renumbered catalog of the source as a new fragment of the destination.
// Nothing is written unless both catalogs hold entries.
func appendCatalog(ctx context.Context, cfg Config, srcStore storage.Store, srcKey string, dstStore storage.Store, dstKey string) (bool, error) {
	srcCatalog, err := catalog.ReadRemote(ctx, srcStore, srcKey, cfg.catalogDir())
	if err != nil {
		return false, err
	}
	dstCatalog, err := catalog.ReadRemote(ctx, dstStore, dstKey, cfg.catalogDir())
	if err != nil {
		return false, err
	}
	if len(srcCatalog) == 0 || len(dstCatalog) == 0 {
		return false, nil
	}

	maxOrder, _ := dstCatalog.MaxOrder()
	dstPrefix, err := storage.ResolvePrefix(ctx, dstStore, dstKey, cfg.catalogDir())
	if err != nil {
		return false, err
	}
	if _, err = catalog.WriteRemote(ctx, dstStore, dstPrefix, cfg.catalogDir(), srcCatalog.Renumber(maxOrder+1).Entries()); err != nil {
		return false, err
	}
	return true, nil
}

func tarballKey(key string) string {
	key = strings.TrimSuffix(key, storage.Separator)
	if strings.HasSuffix(key, ArchiveExt) {
		return key
	}
	return key + ArchiveExt
}

func copyTarball(ctx context.Context, srcStore storage.Store, srcKey string, dstStore storage.Store, dstKey string) error {
	listed, err := srcStore.List(ctx, srcKey, false)
	if err != nil {
		return err
	}
	found := false
	for _, obj := range listed {
		found = found || obj == srcKey
	}
	if !found {
		return ErrArtifactNotFound.Wrapf("%s", srcKey)
	}
	return storage.CopyObject(ctx, srcStore, srcKey, dstStore, dstKey)
}

func copyPrefix(ctx context.Context, cfg Config, s *settings, srcStore storage.Store, srcKey string, dstStore storage.Store, dstKey string, ignoreCatalog bool) error {
	srcPrefix, err := storage.ResolvePrefix(ctx, srcStore, srcKey, cfg.catalogDir())
	if err != nil {
		return err
	}
	dstPrefix, err := storage.ResolvePrefix(ctx, dstStore, dstKey, cfg.catalogDir())
	if err != nil {
		return err
	}
	objects, err := srcStore.List(ctx, srcPrefix, true)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return ErrArtifactNotFound.Wrapf("%s", srcKey)
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.concurrency())
	for _, obj := range objects {
		if ignoreCatalog && inCatalogDir(obj, cfg.catalogDir()) {
			continue
		}
		obj := obj
		target := dstPrefix + strings.TrimPrefix(obj, srcPrefix)
		group.Go(func() error {
			s.l.Debug("copying object", zap.String("source", obj), zap.String("destination", target))
			return storage.CopyObject(gctx, srcStore, obj, dstStore, target)
		})
	}
	return group.Wait()
}

func inCatalogDir(key, catalogDir string) bool {
	return path.Base(path.Dir(key)) == catalogDir
}
