// Copyright © 2018 One Concern

package artifact

import "github.com/oneconcern/stowage/pkg/errors"

var (
	// ErrPathNotFound is returned when uploading a local path which does not exist
	ErrPathNotFound = errors.New("file or directory not found")

	// ErrArtifactNotFound is returned when no object exists for an artifact
	ErrArtifactNotFound = errors.New("artifact not found in storage")

	// ErrNotSliced is returned when slicing an artifact without catalog
	ErrNotSliced = errors.New("artifact is not sliced")

	// ErrSliceOutOfRange is returned when a slice index exceeds the catalog of an artifact
	ErrSliceOutOfRange = errors.New("slice index out of range")

	// ErrOrdersMismatch is returned when explicit orders do not match the uploaded paths
	ErrOrdersMismatch = errors.New("number of orders does not match number of paths")

	// ErrInvalidArchive is returned when a tarball cannot be safely extracted
	ErrInvalidArchive = errors.New("invalid archive")

	// ErrStaging is returned on local file system failures
	ErrStaging = errors.New("staging error")
)
