// Copyright © 2018 One Concern

package artifact

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/oneconcern/stowage/pkg/catalog"
	"github.com/oneconcern/stowage/pkg/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	stagingPattern = "stowage-"
	localUploadDir = "upload"
)

// Upload local paths as a single artifact.
//
// Every path is staged as a symbolic link in a scratch directory, at its location relative
// to the working directory, and recorded in a new catalog fragment. A nil path reserves its
// slot in the catalog without content.
//
// Explicit orders (see Orders) replace the position of each path in the catalog.
func Upload(ctx context.Context, cfg Config, store storage.Store, paths []*string, opts ...Option) (_ Handle, err error) {
	s := defaultSettings(cfg, opts)
	if s.orders != nil && len(s.orders) != len(paths) {
		return Handle{}, ErrOrdersMismatch.Wrapf("%d orders for %d paths", len(s.orders), len(paths))
	}
	for _, order := range s.orders {
		if order < 0 {
			return Handle{}, ErrSliceOutOfRange.Wrapf("negative order %d", order)
		}
	}

	workDir, err := resolveWorkDir(cfg)
	if err != nil {
		return Handle{}, err
	}

	stagingRoot := ""
	if cfg.Mode == ModeLocal {
		stagingRoot = filepath.Join(workDir, localUploadDir)
		if err = os.MkdirAll(stagingRoot, 0o755); err != nil {
			return Handle{}, ErrStaging.Wrap(err)
		}
	}
	staging, err := os.MkdirTemp(stagingRoot, stagingPattern)
	if err != nil {
		return Handle{}, ErrStaging.Wrap(err)
	}
	keepStaging := false
	defer func() {
		if !keepStaging {
			err = multierr.Append(err, os.RemoveAll(staging))
		}
	}()

	entries, err := stage(staging, workDir, paths, s)
	if err != nil {
		return Handle{}, err
	}
	if _, err = catalog.WriteFragment(filepath.Join(staging, cfg.catalogDir()), entries); err != nil {
		return Handle{}, err
	}

	if cfg.Mode == ModeLocal {
		keepStaging = true
		s.l.Debug("artifact staged locally", zap.String("path", staging), zap.Int("entries", len(entries)))
		return Handle{LocalPath: staging, PathList: entries}, nil
	}

	var key string
	switch s.archive {
	case ArchiveTar:
		tarball := staging + ArchiveExt
		defer func() {
			err = multierr.Append(err, ignoreNotExist(os.Remove(tarball)))
		}()
		if err = packTree(staging, tarball); err != nil {
			return Handle{}, err
		}
		if key, err = destinationKey(ctx, cfg, store, s, tarball); err != nil {
			return Handle{}, err
		}
		s.l.Debug("uploading archive", zap.String("key", key))
		if err = store.Upload(ctx, key, tarball); err != nil {
			return Handle{}, err
		}

	default:
		if key, err = destinationKey(ctx, cfg, store, s, staging); err != nil {
			return Handle{}, err
		}
		s.l.Debug("uploading files", zap.String("key", key))
		if err = uploadTree(ctx, cfg, store, staging, key); err != nil {
			return Handle{}, err
		}
	}

	s.l.Info("artifact uploaded", zap.String("key", key), zap.Int("entries", len(entries)))
	return Handle{Key: key, PathList: entries}, nil
}

func resolveWorkDir(cfg Config) (string, error) {
	workDir := cfg.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", ErrStaging.Wrap(err)
		}
		workDir = wd
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return "", ErrStaging.Wrap(err)
	}
	return abs, nil
}

// stage links paths into the staging directory and builds their catalog entries
func stage(staging, workDir string, paths []*string, s *settings) ([]catalog.Entry, error) {
	entries := make([]catalog.Entry, 0, len(paths))
	for i, p := range paths {
		order := i
		if s.orders != nil {
			order = s.orders[i]
		}
		if p == nil {
			entries = append(entries, catalog.Hole(order))
			continue
		}

		pth := *p
		if !filepath.IsAbs(pth) {
			pth = filepath.Join(workDir, pth)
		}
		abs, err := filepath.Abs(pth)
		if err != nil {
			return nil, ErrStaging.Wrap(err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			if s.holes && os.IsNotExist(err) {
				s.l.Debug("missing path recorded as a hole", zap.String("path", *p), zap.Int("order", order))
				entries = append(entries, catalog.Hole(order))
				continue
			}
			return nil, ErrPathNotFound.Wrapf("%s", *p)
		}

		rel := relativePath(abs, workDir)
		if err = linkStaged(abs, filepath.Join(staging, filepath.FromSlash(rel)), info); err != nil {
			return nil, err
		}
		entries = append(entries, catalog.NewEntry(rel, order))
	}
	return entries, nil
}

// linkStaged links some path into the staging area. Paths staged more than once,
// or nested in an already staged directory, are linked only once.
func linkStaged(abs, target string, info os.FileInfo) error {
	if existing, ok := exists(target); ok {
		if info.IsDir() && existing.IsDir() {
			return linkTree(abs, target)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ErrStaging.Wrap(err)
	}
	if err := os.Symlink(abs, target); err != nil {
		return ErrStaging.Wrap(err)
	}
	return nil
}

// destinationKey picks the key of an upload: an explicit key, a key derived from a
// prefix hint, or a unique key in the namespace.
func destinationKey(ctx context.Context, cfg Config, store storage.Store, s *settings, local string) (string, error) {
	switch {
	case s.key != "":
		return s.key, nil
	case s.hasPrefix:
		prefix, err := storage.ResolvePrefix(ctx, store, s.prefix, cfg.catalogDir())
		if err != nil {
			return "", err
		}
		return prefix + filepath.Base(local), nil
	default:
		return path.Join(cfg.Prefix+"upload", uuid.NewString(), filepath.Base(local)), nil
	}
}

// uploadTree uploads every file below root as an individual object under key.
// Empty directories are kept with a marker object.
func uploadTree(ctx context.Context, cfg Config, store storage.Store, root, key string) error {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.concurrency())

	err := walkDeref(root, "", func(rel string, info os.FileInfo, pth string) error {
		if gctx.Err() != nil {
			return gctx.Err()
		}
		if info.IsDir() {
			empty, err := isEmptyDir(pth)
			if err != nil || !empty || rel == "" {
				return err
			}
			marker := path.Join(key, rel, catalog.EmptyDirMarker)
			group.Go(func() error {
				return uploadEmpty(gctx, store, marker)
			})
			return nil
		}
		objKey := path.Join(key, rel)
		group.Go(func() error {
			return store.Upload(gctx, objKey, pth)
		})
		return nil
	})
	return multierr.Append(err, group.Wait())
}

func isEmptyDir(pth string) (bool, error) {
	entries, err := os.ReadDir(pth)
	if err != nil {
		return false, ErrStaging.Wrap(err)
	}
	return len(entries) == 0, nil
}

func uploadEmpty(ctx context.Context, store storage.Store, key string) (err error) {
	f, err := os.CreateTemp("", stagingPattern)
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	pth := f.Name()
	defer func() {
		err = multierr.Append(err, ignoreNotExist(os.Remove(pth)))
	}()
	if err = f.Close(); err != nil {
		return ErrStaging.Wrap(err)
	}
	return store.Upload(ctx, key, pth)
}

func ignoreNotExist(err error) error {
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
