// Copyright © 2018 One Concern

// Package artifact moves artifacts between the local file system and a storage backend.
//
// An artifact is a file, a directory or an ordered collection of files, stored under a key.
// Its content is described by a catalog (see package catalog), written alongside the content
// by every producer which contributed to the artifact.
//
// Artifacts are stored either as loose objects under the key, or as a single gzip-compressed
// tarball when the key ends with ".tgz". Downloads transparently unpack tarballs and merge
// their content into the destination directory.
package artifact
