// Copyright © 2018 One Concern

package workflow

import (
	"github.com/docker/go-units"
	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/oneconcern/stowage/pkg/dlogger"
	"github.com/oneconcern/stowage/pkg/storage"
	"go.uber.org/zap"
)

// DefaultBigParameterThreshold is the size above which parameter values are spilled to the backend,
// when the step declares an artifact to hold them
const DefaultBigParameterThreshold = "256KiB"

type env struct {
	cfg       artifact.Config
	store     storage.Store
	codec     Codec
	l         *zap.Logger
	threshold int64
	_         struct{}
}

// Option to parse and modify steps
type Option func(*env)

func newEnv(opts []Option) *env {
	threshold, _ := ParseThreshold(DefaultBigParameterThreshold)
	e := &env{
		cfg:       artifact.DefaultConfig(),
		codec:     JSONCodec{},
		threshold: threshold,
	}
	for _, apply := range opts {
		apply(e)
	}
	e.l = dlogger.OrNop(e.l)
	return e
}

// Backend used to load and store artifacts
func Backend(cfg artifact.Config, store storage.Store) Option {
	return func(e *env) {
		e.cfg = cfg
		e.store = store
	}
}

// WithCodec sets the codec of non-string parameters (default: JSON)
func WithCodec(c Codec) Option {
	return func(e *env) {
		if c != nil {
			e.codec = c
		}
	}
}

// Logger for step operations
func Logger(l *zap.Logger) Option {
	return func(e *env) {
		e.l = l
	}
}

// BigParameterThreshold sets the size in bytes above which output parameters are spilled.
// A negative threshold disables spilling parameters which are not explicitly saved as artifacts.
func BigParameterThreshold(size int64) Option {
	return func(e *env) {
		e.threshold = size
	}
}

// ParseThreshold parses a human readable size, such as "256KiB" or "1MB"
func ParseThreshold(size string) (int64, error) {
	return units.RAMInBytes(size)
}
