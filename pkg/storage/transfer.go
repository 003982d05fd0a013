// Copyright © 2018 One Concern

package storage

import (
	"context"
	"os"
	"strings"

	"github.com/oneconcern/stowage/pkg/storage/status"
	"go.uber.org/multierr"
)

// ResolvePrefix turns a key into a directory-like prefix with a trailing slash.
//
// When the prefix holds exactly one child and this child is itself a directory,
// the child is returned instead: artifacts uploaded under a prefix hint land in
// a single sub-directory named after their staging area.
//
// Reserved directory names (such as a catalog directory) are never collapsed into.
func ResolvePrefix(ctx context.Context, store Store, prefix string, reserved ...string) (string, error) {
	if !strings.HasSuffix(prefix, Separator) {
		prefix += Separator
	}
	children, err := store.List(ctx, prefix, false)
	if err != nil {
		return "", err
	}
	if len(children) == 1 && strings.HasSuffix(children[0], Separator) {
		name := strings.TrimSuffix(strings.TrimPrefix(children[0], prefix), Separator)
		for _, r := range reserved {
			if name == r {
				return prefix, nil
			}
		}
		return children[0], nil
	}
	return prefix, nil
}

// Transfer copies an object between two stores, staging its content through a temporary local file
func Transfer(ctx context.Context, src Store, srcKey string, dst Store, dstKey string) (err error) {
	tmp, err := os.CreateTemp("", "stowage-transfer-")
	if err != nil {
		return NewError("transfer", srcKey, status.ErrLocalIO.Wrap(err))
	}
	pth := tmp.Name()
	defer func() {
		err = multierr.Append(err, ignoreNotExist(os.Remove(pth)))
	}()
	if err = tmp.Close(); err != nil {
		return NewError("transfer", srcKey, status.ErrLocalIO.Wrap(err))
	}

	if err = src.Download(ctx, srcKey, pth); err != nil {
		return err
	}
	return dst.Upload(ctx, dstKey, pth)
}

// CopyObject copies an object server-side when both ends live in the same store,
// and transfers it otherwise. A nil destination store means the source store.
func CopyObject(ctx context.Context, src Store, srcKey string, dst Store, dstKey string) error {
	if dst == nil || dst == src {
		return src.Copy(ctx, srcKey, dstKey)
	}
	return Transfer(ctx, src, srcKey, dst, dstKey)
}

func ignoreNotExist(err error) error {
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
