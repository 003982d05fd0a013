// Copyright © 2018 One Concern

package artifact

import (
	"github.com/oneconcern/stowage/pkg/dlogger"
	"github.com/oneconcern/stowage/pkg/storage"
	"go.uber.org/zap"
)

type settings struct {
	key        string
	prefix     string
	hasPrefix  bool
	orders     []int
	archive    ArchiveMode
	l          *zap.Logger
	extract    bool
	subPath    string
	hasSubPath bool
	slice      *int
	skipExists bool
	sort       bool
	ignoreCat  bool
	holes      bool
	dstStore   storage.Store
	_          struct{}
}

// Option for the Upload, Download and Copy operations.
//
// Options which do not apply to an operation are ignored.
type Option func(*settings)

func defaultSettings(cfg Config, opts []Option) *settings {
	s := &settings{
		archive: cfg.archiveMode(),
		extract: true,
	}
	for _, apply := range opts {
		apply(s)
	}
	s.l = dlogger.OrNop(s.l)
	return s
}

// Logger for the operation
func Logger(l *zap.Logger) Option {
	return func(s *settings) {
		s.l = l
	}
}

// Key sets the explicit destination key of an upload
func Key(key string) Option {
	return func(s *settings) {
		s.key = key
	}
}

// Prefix sets a destination prefix for an upload. The key is derived from the prefix and the staging area.
func Prefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
		s.hasPrefix = true
	}
}

// Orders sets explicit catalog orders for uploaded paths, one per path
func Orders(orders []int) Option {
	return func(s *settings) {
		s.orders = orders
	}
}

// MissingAsHoles records local paths which do not exist as holes of the catalog,
// instead of failing the upload
func MissingAsHoles(enabled bool) Option {
	return func(s *settings) {
		s.holes = enabled
	}
}

// Archive overrides the configured archive mode of an upload
func Archive(mode ArchiveMode) Option {
	return func(s *settings) {
		if mode != "" {
			s.archive = mode
		}
	}
}

// Extract tarballs on download (default: true)
func Extract(enabled bool) Option {
	return func(s *settings) {
		s.extract = enabled
	}
}

// SubPath restricts a download to some path within the artifact
func SubPath(pth string) Option {
	return func(s *settings) {
		s.subPath = pth
		s.hasSubPath = true
	}
}

// Slice restricts a download to one slot of the artifact catalog
func Slice(index int) Option {
	return func(s *settings) {
		s.slice = &index
	}
}

// SkipExists skips downloading files which exist locally with the same checksum
func SkipExists(enabled bool) Option {
	return func(s *settings) {
		s.skipExists = enabled
	}
}

// Sort appends the catalog of the source after the catalog of the destination on copy
func Sort(enabled bool) Option {
	return func(s *settings) {
		s.sort = enabled
	}
}

// IgnoreCatalog skips catalog fragments on copy
func IgnoreCatalog(enabled bool) Option {
	return func(s *settings) {
		s.ignoreCat = enabled
	}
}

// DestinationStore copies to another backend
func DestinationStore(store storage.Store) Option {
	return func(s *settings) {
		s.dstStore = store
	}
}
