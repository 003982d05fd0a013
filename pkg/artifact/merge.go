// Copyright © 2018 One Concern

package artifact

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oneconcern/stowage/pkg/catalog"
)

// placeFunc puts the file src at dst. dst does not exist when called.
type placeFunc func(src, dst string) error

func exists(pth string) (os.FileInfo, bool) {
	info, err := os.Stat(pth)
	if err != nil {
		return nil, false
	}
	return info, true
}

// force places src at dst, replacing any existing file unless it is the same as src
func force(place placeFunc) placeFunc {
	return func(src, dst string) error {
		if dstInfo, ok := exists(dst); ok {
			if srcInfo, err := os.Stat(src); err == nil && os.SameFile(srcInfo, dstInfo) {
				return nil
			}
			if err := os.Remove(dst); err != nil {
				return err
			}
		} else if _, err := os.Lstat(dst); err == nil {
			// dangling link
			if err = os.Remove(dst); err != nil {
				return err
			}
		}
		return place(src, dst)
	}
}

func symlink(src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	return os.Symlink(abs, dst)
}

var (
	forceMove = force(os.Rename)
	forceLink = force(symlink)
)

// mergeDir merges the content of src into dst.
//
// Directories are merged recursively, replacing any file in the way.
// Files replace existing files, and any directory in the way.
// Links in src are followed.
func mergeDir(src, dst string, place placeFunc) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	if err = os.MkdirAll(dst, 0o755); err != nil {
		return ErrStaging.Wrap(err)
	}
	for _, entry := range entries {
		srcFile := filepath.Join(src, entry.Name())
		dstFile := filepath.Join(dst, entry.Name())
		info, err := os.Stat(srcFile)
		if err != nil {
			return ErrStaging.Wrap(err)
		}

		switch {
		case info.IsDir():
			if dstInfo, ok := exists(dstFile); ok && !dstInfo.IsDir() {
				if err = os.Remove(dstFile); err != nil {
					return ErrStaging.Wrap(err)
				}
			}
			if err = mergeDir(srcFile, dstFile, place); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if dstInfo, ok := exists(dstFile); ok && dstInfo.IsDir() {
				if err = os.RemoveAll(dstFile); err != nil {
					return ErrStaging.Wrap(err)
				}
			}
			if err = place(srcFile, dstFile); err != nil {
				return ErrStaging.Wrap(err)
			}
		}
	}
	return nil
}

// linkTree mirrors src into dst, with symbolic links to the files of src
func linkTree(src, dst string) error {
	return mergeDir(src, dst, forceLink)
}

// removeEmptyDirMarkers removes all empty directory markers below root
func removeEmptyDirMarkers(root string) error {
	err := filepath.WalkDir(root, func(pth string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && d.Name() == catalog.EmptyDirMarker {
			return os.Remove(pth)
		}
		return nil
	})
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	return nil
}
