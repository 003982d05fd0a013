// Copyright © 2018 One Concern

// Package catalog describes the manifest of an artifact.
//
// A catalog is an ordered sequence of entries, each pairing an item (a path
// relative to the root of the artifact, or nothing) with an integer order.
//
// Catalogs are never written as a whole. Every producer writes its own
// fragment, a uniquely named file in a reserved directory of the artifact, and
// never touches other fragments. Readers merge all fragments they find:
//
//   - duplicate entries (same item, same order) are kept once,
//   - entries are sorted by order, then by item,
//   - the merged catalog is read as contiguous slots, from 0 to the largest order.
//     Slots without any entry, or with an entry without item, are holes.
//
// Merging is commutative and idempotent: retried producers and partial reads
// yield a consistent catalog.
package catalog
