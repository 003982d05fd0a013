// Copyright © 2018 One Concern

package artifact

import (
	"archive/tar"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"
)

// packTree writes a gzip-compressed tarball of root to target.
//
// Entries are named after the base name of root. Symbolic links are dereferenced.
func packTree(root, target string) (err error) {
	f, err := os.Create(target)
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	zw := gzip.NewWriter(f)
	tw := tar.NewWriter(zw)
	defer func() {
		err = multierr.Combine(err, tw.Close(), zw.Close())
	}()

	base := filepath.Base(root)
	return walkDeref(root, "", func(rel string, info os.FileInfo, pth string) error {
		name := base
		if rel != "" {
			name = path.Join(base, rel)
		}
		hdr, erh := tar.FileInfoHeader(info, "")
		if erh != nil {
			return ErrStaging.Wrap(erh)
		}
		hdr.Name = name
		if info.IsDir() {
			hdr.Name += "/"
		}
		if erh = tw.WriteHeader(hdr); erh != nil {
			return ErrStaging.Wrap(erh)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFileTo(tw, pth)
	})
}

func copyFileTo(w io.Writer, pth string) error {
	src, err := os.Open(pth) // #nosec
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	defer src.Close()
	if _, err = io.Copy(w, src); err != nil {
		return ErrStaging.Wrap(err)
	}
	return nil
}

// walkDeref walks a tree, following symbolic links. Only directories and regular files are visited.
// rel is the slash separated path relative to the root of the walk.
func walkDeref(pth, rel string, fn func(rel string, info os.FileInfo, pth string) error) error {
	info, err := os.Stat(pth)
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil
	}
	if err = fn(rel, info, pth); err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}
	entries, err := os.ReadDir(pth)
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	for _, entry := range entries {
		if err = walkDeref(filepath.Join(pth, entry.Name()), path.Join(rel, entry.Name()), fn); err != nil {
			return err
		}
	}
	return nil
}

// extractArchive unpacks a gzip-compressed tarball into dir.
//
// Entries escaping dir are rejected.
func extractArchive(tarball, dir string) error {
	f, err := os.Open(tarball) // #nosec
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return ErrInvalidArchive.Wrap(err)
	}
	defer zr.Close()

	root := filepath.Clean(dir) + string(filepath.Separator)
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ErrInvalidArchive.Wrap(err)
		}

		target := filepath.Join(dir, filepath.FromSlash(hdr.Name))
		if !strings.HasPrefix(target+string(filepath.Separator), root) {
			return ErrInvalidArchive.Wrapf("entry %q escapes the extraction directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, 0o755); err != nil {
				return ErrStaging.Wrap(err)
			}
		case tar.TypeReg:
			if err = writeEntry(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			linked := hdr.Linkname
			if !filepath.IsAbs(linked) {
				linked = filepath.Join(filepath.Dir(target), linked)
			}
			if !strings.HasPrefix(filepath.Clean(linked)+string(filepath.Separator), root) {
				return ErrInvalidArchive.Wrapf("link %q escapes the extraction directory", hdr.Name)
			}
			if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return ErrStaging.Wrap(err)
			}
			if err = os.Symlink(hdr.Linkname, target); err != nil {
				return ErrStaging.Wrap(err)
			}
		}
	}
}

func writeEntry(r io.Reader, target string, perm os.FileMode) (err error) {
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ErrStaging.Wrap(err)
	}
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return ErrStaging.Wrap(err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if _, err = io.Copy(f, r); err != nil { // #nosec
		return ErrStaging.Wrap(err)
	}
	return nil
}
