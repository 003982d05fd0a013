// Copyright © 2018 One Concern

package workflow

import "github.com/oneconcern/stowage/pkg/errors"

var (
	// ErrNoSuchKey is returned when looking up a missing key in a map node
	ErrNoSuchKey = errors.New("no such key")

	// ErrNotAMap is returned when looking up a key in a node which is not a map
	ErrNotAMap = errors.New("node is not a map")

	// ErrNotAList is returned when indexing a node which is not a list
	ErrNotAList = errors.New("node is not a list")

	// ErrIndexOutOfRange is returned when indexing a list node past its end
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotAString is returned when reading a node which is not a string
	ErrNotAString = errors.New("node is not a string")

	// ErrInvalidDocument is returned when a status document cannot be decoded
	ErrInvalidDocument = errors.New("invalid status document")

	// ErrNoSuchParameter is returned when modifying a parameter a step does not declare
	ErrNoSuchParameter = errors.New("no such parameter")

	// ErrNoSuchArtifact is returned when modifying an artifact a step does not declare
	ErrNoSuchArtifact = errors.New("no such artifact")

	// ErrNotSlicedOutput is returned when an output artifact comes without path list
	ErrNotSlicedOutput = errors.New("not a sliced output artifact")

	// ErrParameterIO is returned when a big parameter cannot be staged on the local filesystem
	ErrParameterIO = errors.New("cannot stage big parameter")
)
