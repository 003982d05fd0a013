// Copyright © 2018 One Concern

package storage

import (
	"context"
	"fmt"

	"github.com/oneconcern/stowage/pkg/errors"
	"github.com/oneconcern/stowage/pkg/storage/status"
)

// Separator between key components
const Separator = "/"

// ErrBackend is matched by all errors returned by a Store
var ErrBackend = errors.New("storage backend error")

// Store implementations know how to move whole objects between a backend and local files.
//
// Typically this is something object-store like. Examples are S3, GCS, local FS.
// Implementations of this interface are assumed to be fairly simple and do not retry.
type Store interface {
	String() string

	// Upload the content of a local file to key
	Upload(ctx context.Context, key, localPath string) error

	// Download the object at key into a local file, creating parent directories
	Download(ctx context.Context, key, localPath string) error

	// List the keys starting with prefix, in lexical order.
	//
	// When recursive is false, only the immediate children of prefix are returned:
	// "directories" are reported once, with a trailing slash.
	List(ctx context.Context, prefix string, recursive bool) ([]string, error)

	// Copy an object within the backend, without transferring its content locally
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Checksum yields the hex encoded MD5 of the object content
	Checksum(ctx context.Context, key string) (string, error)
}

// Error reports a failed backend operation on some key.
//
// The wrapped error is qualified by one of the sentinels in the status package.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap the backend error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrBackend
func (e *Error) Is(target error) bool {
	return target == ErrBackend
}

// NewError qualifies an error returned by some backend operation.
// It returns nil when err is nil, and leaves errors which are already qualified untouched.
func NewError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	return &Error{Op: op, Key: key, Err: err}
}

// IsNotExist tells if an error reports a missing object
func IsNotExist(err error) bool {
	return errors.Is(err, status.ErrNotExists) || errors.Is(err, status.ErrNotFound)
}
