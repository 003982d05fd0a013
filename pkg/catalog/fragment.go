// Copyright © 2018 One Concern

package catalog

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/stowage/pkg/errors"
	"github.com/oneconcern/stowage/pkg/storage"
	"go.uber.org/multierr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrInvalidFragment is returned when a fragment cannot be decoded
	ErrInvalidFragment = errors.New("invalid catalog fragment")

	// ErrFragmentIO is returned when a fragment cannot be read or written locally
	ErrFragmentIO = errors.New("catalog fragment i/o error")
)

// Fragment is the content of one catalog file, written by one producer
type Fragment struct {
	PathList []Entry `json:"path_list"`
}

// Encode a fragment as JSON
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(Fragment{PathList: entries})
}

// Decode a JSON fragment
func Decode(data []byte) ([]Entry, error) {
	var f Fragment
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, ErrInvalidFragment.Wrap(err)
	}
	return f.PathList, nil
}

// FragmentName yields a new, unique fragment file name
func FragmentName() string {
	return uuid.New().String()
}

// WriteFragment writes entries as a new fragment file in a local catalog directory,
// which is created if needed. It returns the path to the fragment.
func WriteFragment(dir string, entries []Entry) (string, error) {
	data, err := Encode(entries)
	if err != nil {
		return "", ErrInvalidFragment.Wrap(err)
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", ErrFragmentIO.Wrap(err)
	}
	pth := filepath.Join(dir, FragmentName())
	if err = os.WriteFile(pth, data, 0o644); err != nil { // #nosec
		return "", ErrFragmentIO.Wrap(err)
	}
	return pth, nil
}

// ReadFragment reads a single fragment file
func ReadFragment(pth string) ([]Entry, error) {
	data, err := os.ReadFile(pth) // #nosec
	if err != nil {
		return nil, ErrFragmentIO.Wrap(err)
	}
	return Decode(data)
}

// ReadDir merges all the fragments found in a local catalog directory.
// A missing directory yields an empty catalog.
func ReadDir(dir string) (Catalog, error) {
	infos, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Catalog{}, nil
		}
		return nil, ErrFragmentIO.Wrap(err)
	}

	fragments := make([][]Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		entries, err := ReadFragment(filepath.Join(dir, info.Name()))
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, entries)
	}
	return Merge(fragments...), nil
}

// Cleanup removes a local catalog directory and all its fragments
func Cleanup(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return ErrFragmentIO.Wrap(err)
	}
	return nil
}

// Dir yields the key prefix of the catalog directory of an artifact
func Dir(prefix, catalogDir string) string {
	if catalogDir == "" {
		catalogDir = DefaultDir
	}
	if prefix == "" {
		return catalogDir + storage.Separator
	}
	return path.Join(prefix, catalogDir) + storage.Separator
}

// ReadRemote merges all fragments stored in the catalog directory of an artifact.
//
// The artifact prefix is first resolved (see storage.ResolvePrefix).
// An artifact without catalog yields an empty catalog.
func ReadRemote(ctx context.Context, store storage.Store, key, catalogDir string) (_ Catalog, err error) {
	if catalogDir == "" {
		catalogDir = DefaultDir
	}
	prefix, err := storage.ResolvePrefix(ctx, store, key, catalogDir)
	if err != nil {
		return nil, err
	}
	keys, err := store.List(ctx, Dir(prefix, catalogDir), true)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return Catalog{}, nil
	}
	sort.Strings(keys)

	scratch, err := os.MkdirTemp("", "stowage-catalog-")
	if err != nil {
		return nil, ErrFragmentIO.Wrap(err)
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(scratch))
	}()

	fragments := make([][]Entry, 0, len(keys))
	for _, k := range keys {
		local := filepath.Join(scratch, uuid.New().String())
		if err = store.Download(ctx, k, local); err != nil {
			return nil, err
		}
		entries, erd := ReadFragment(local)
		if erd != nil {
			return nil, erd
		}
		fragments = append(fragments, entries)
	}
	return Merge(fragments...), nil
}

// WriteRemote uploads entries as a new fragment in the catalog directory of an artifact.
// The prefix must be already resolved. It returns the key of the new fragment.
func WriteRemote(ctx context.Context, store storage.Store, prefix, catalogDir string, entries []Entry) (_ string, err error) {
	scratch, err := os.MkdirTemp("", "stowage-catalog-")
	if err != nil {
		return "", ErrFragmentIO.Wrap(err)
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(scratch))
	}()

	local, err := WriteFragment(scratch, entries)
	if err != nil {
		return "", err
	}
	key := Dir(prefix, catalogDir) + filepath.Base(local)
	if err = store.Upload(ctx, key, local); err != nil {
		return "", err
	}
	return key, nil
}
