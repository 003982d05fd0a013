// Copyright © 2018 One Concern

package artifact

import (
	"fmt"
	"strings"

	"github.com/oneconcern/stowage/pkg/catalog"
)

const (
	// DefaultPrefix is the namespace of keys in the backend
	DefaultPrefix = "stowage/"

	// DefaultConcurrency is the default number of concurrent transfers within one operation
	DefaultConcurrency = 8

	// ArchiveExt is the extension of keys denoting a tarball
	ArchiveExt = ".tgz"
)

// Mode of operation
type Mode uint8

const (
	// ModeRemote transfers artifacts to and from a storage backend
	ModeRemote Mode = iota

	// ModeLocal keeps artifacts on the local file system, for debugging
	ModeLocal
)

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	default:
		return "remote"
	}
}

// ParseMode from a string
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "remote", "default":
		return ModeRemote, nil
	case "local", "debug":
		return ModeLocal, nil
	default:
		return ModeRemote, fmt.Errorf("invalid mode %q", s)
	}
}

// ArchiveMode tells how uploaded artifacts are packed
type ArchiveMode string

const (
	// ArchiveNone uploads every file as an individual object
	ArchiveNone ArchiveMode = "none"

	// ArchiveTar uploads a single gzip-compressed tarball
	ArchiveTar ArchiveMode = "tar"
)

// ParseArchiveMode from a string
func ParseArchiveMode(s string) (ArchiveMode, error) {
	switch ArchiveMode(strings.ToLower(s)) {
	case ArchiveNone, "":
		return ArchiveNone, nil
	case ArchiveTar:
		return ArchiveTar, nil
	default:
		return ArchiveNone, fmt.Errorf("invalid archive mode %q", s)
	}
}

// Config of the artifact pipelines. It is passed by value and never altered.
type Config struct {
	// Prefix is the namespace of all keys, e.g. "stowage/"
	Prefix string

	// CatalogDir is the name of the reserved directory holding catalog fragments
	CatalogDir string

	Mode        Mode
	ArchiveMode ArchiveMode

	// Concurrency bounds the number of concurrent transfers within one operation
	Concurrency int

	// WorkDir is the directory relative paths are resolved against. It defaults to the current directory.
	WorkDir string
}

// DefaultConfig yields a configuration with all defaults
func DefaultConfig() Config {
	return Config{
		Prefix:      DefaultPrefix,
		CatalogDir:  catalog.DefaultDir,
		Mode:        ModeRemote,
		ArchiveMode: ArchiveTar,
		Concurrency: DefaultConcurrency,
	}
}

func (c Config) catalogDir() string {
	if c.CatalogDir == "" {
		return catalog.DefaultDir
	}
	return c.CatalogDir
}

func (c Config) concurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

func (c Config) archiveMode() ArchiveMode {
	if c.ArchiveMode == "" {
		return ArchiveTar
	}
	return c.ArchiveMode
}
