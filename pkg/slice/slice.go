// Copyright © 2018 One Concern

// Package slice coordinates producers which each contribute some slices of a shared artifact.
//
// Producers upload their slices independently, under the same key, each with the explicit
// order of its slices. Consumers download the artifact and get all slices in order, with
// holes for the slices nobody contributed.
package slice

import (
	"context"
	"sort"

	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/oneconcern/stowage/pkg/catalog"
	"github.com/oneconcern/stowage/pkg/errors"
	"github.com/oneconcern/stowage/pkg/storage"
)

var (
	// ErrSliceCountMismatch is returned when the number of paths does not match the number of slices
	ErrSliceCountMismatch = errors.New("number of paths does not match number of slices")

	// ErrNotSliced is returned when the artifact has no catalog
	ErrNotSliced = artifact.ErrNotSliced

	// ErrSliceOutOfRange is returned when a slice index exceeds the artifact
	ErrSliceOutOfRange = artifact.ErrSliceOutOfRange
)

// Contribute uploads the slice of one producer under a shared key.
// A nil path, or a path which does not exist, marks the slice as absent.
func Contribute(ctx context.Context, cfg artifact.Config, store storage.Store, key string, index int, pth *string, opts ...artifact.Option) (artifact.Handle, error) {
	return ContributeMany(ctx, cfg, store, key, []int{index}, []*string{pth}, opts...)
}

// ContributeMany uploads several slices of one producer under a shared key
func ContributeMany(ctx context.Context, cfg artifact.Config, store storage.Store, key string, indices []int, paths []*string, opts ...artifact.Option) (artifact.Handle, error) {
	if len(indices) != len(paths) {
		return artifact.Handle{}, ErrSliceCountMismatch.Wrapf("%d paths for %d slices", len(paths), len(indices))
	}
	all := append(append([]artifact.Option(nil), opts...),
		artifact.Key(key),
		artifact.Orders(indices),
		artifact.Archive(artifact.ArchiveNone),
		artifact.MissingAsHoles(true),
	)
	return artifact.Upload(ctx, cfg, store, paths, all...)
}

// Assemble downloads all contributions to a shared key into dst.
// It returns one local path per slice, with nil for the absent ones.
func Assemble(ctx context.Context, cfg artifact.Config, store storage.Store, key, dst string, opts ...artifact.Option) ([]*string, error) {
	return artifact.Download(ctx, cfg, store, artifact.Handle{Key: key}, dst, opts...)
}

// Replace uploads new paths in place of the items of a known catalog.
//
// The i-th path, in order of the known entries, takes the order of the i-th entry.
// Slots of the resulting artifact which are not in the known catalog are holes.
func Replace(ctx context.Context, cfg artifact.Config, store storage.Store, known []catalog.Entry, paths []string, opts ...artifact.Option) (artifact.Handle, error) {
	if len(known) == 0 {
		return artifact.Handle{}, ErrNotSliced.Wrapf("empty catalog")
	}
	if len(paths) != len(known) {
		return artifact.Handle{}, ErrSliceCountMismatch.Wrapf("%d paths for %d catalog entries", len(paths), len(known))
	}

	sorted := append([]catalog.Entry(nil), known...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	if sorted[0].Order < 0 {
		return artifact.Handle{}, ErrSliceOutOfRange.Wrapf("negative order %d", sorted[0].Order)
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Order == sorted[i-1].Order {
			return artifact.Handle{}, ErrSliceCountMismatch.Wrapf("several catalog entries at order %d", sorted[i].Order)
		}
	}

	input := make([]*string, sorted[len(sorted)-1].Order+1)
	for i, e := range sorted {
		pth := paths[i]
		input[e.Order] = &pth
	}

	all := append(append([]artifact.Option(nil), opts...), artifact.Archive(artifact.ArchiveNone))
	return artifact.Upload(ctx, cfg, store, input, all...)
}

// Select picks some slices from an assembled list
func Select[T any](list []T, indices []int) ([]T, error) {
	res := make([]T, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(list) {
			return nil, ErrSliceOutOfRange.Wrapf("slice %d of %d", i, len(list))
		}
		res = append(res, list[i])
	}
	return res, nil
}
