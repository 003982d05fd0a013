// Copyright © 2018 One Concern

package artifact

import (
	"strings"

	"github.com/oneconcern/stowage/pkg/catalog"
)

// Handle designates an uploaded artifact.
//
// Handles are values: SubPath and Slice derive narrowed views without altering their parent.
type Handle struct {
	// Key of the artifact in the backend, including the namespace prefix
	Key string

	// PathList is the catalog written by the upload which produced this handle, if known
	PathList []catalog.Entry

	// LocalPath is the location of the artifact in local mode
	LocalPath string

	subPath string
	slice   *int
}

// NewHandle builds a handle for some key, adding the namespace prefix when missing
func (c Config) NewHandle(key string) Handle {
	if !strings.HasPrefix(key, c.Prefix) {
		key = c.Prefix + key
	}
	return Handle{Key: key}
}

// LocalHandle builds a handle for an artifact materialized locally
func LocalHandle(localPath string) Handle {
	return Handle{LocalPath: localPath}
}

// IsLocal tells if the handle designates a local artifact
func (h Handle) IsLocal() bool {
	return h.LocalPath != ""
}

// SubPath narrows the handle to some path within the artifact
func (h Handle) SubPath(pth string) Handle {
	n := h.narrowed()
	n.subPath = strings.Trim(pth, "/")
	n.slice = nil
	return n
}

// Slice narrows the handle to one slot of the catalog of the artifact
func (h Handle) Slice(index int) Handle {
	n := h.narrowed()
	n.subPath = ""
	n.slice = &index
	return n
}

// Narrowing yields the sub path or slice this handle is restricted to
func (h Handle) Narrowing() (subPath string, slice int, isSliced bool) {
	if h.slice != nil {
		return "", *h.slice, true
	}
	return h.subPath, 0, false
}

func (h Handle) narrowed() Handle {
	n := h
	if h.PathList != nil {
		n.PathList = append([]catalog.Entry(nil), h.PathList...)
	}
	return n
}

// Catalog yields the merged catalog known from the handle
func (h Handle) Catalog() catalog.Catalog {
	return catalog.Merge(h.PathList)
}

func (h Handle) String() string {
	if h.IsLocal() {
		return h.LocalPath
	}
	return h.Key
}
