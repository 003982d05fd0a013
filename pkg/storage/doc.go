// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// This package supports the following backends:
//   - GCS (Google)
//   - S3 (AWS, or any S3 compatible service such as MinIO)
//   - local file system
//
// Keys are slash separated object names. A backend exposes whole-object
// transfers between a key and a local file, prefix listing, server-side copy
// and a content checksum (hex MD5).
package storage
