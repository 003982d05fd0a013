// Copyright © 2018 One Concern

package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Metrics collected about backend operations
type Metrics struct {
	Requests *prometheus.CounterVec   // stowage_storage_requests_total{backend,op,status}
	Duration *prometheus.HistogramVec // stowage_storage_request_duration_seconds{backend,op}
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// NewMetrics registers storage metrics with a prometheus registerer
func NewMetrics(registry prometheus.Registerer) *Metrics {
	return &Metrics{
		Requests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "stowage_storage_requests_total",
			Help: "Total storage backend requests by operation and status",
		}, []string{"backend", "op", "status"}),
		Duration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stowage_storage_request_duration_seconds",
			Help:    "Storage backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
	}
}

// DefaultMetrics are registered once with the default prometheus registerer
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// InstrumentOption configures an instrumented store
type InstrumentOption func(*instrumentedStore)

// Tracer for spans around backend calls. Defaults to the global tracer.
func Tracer(tr opentracing.Tracer) InstrumentOption {
	return func(i *instrumentedStore) {
		if tr != nil {
			i.tr = tr
		}
	}
}

// WithLogger logs backend calls at debug level
func WithLogger(l *zap.Logger) InstrumentOption {
	return func(i *instrumentedStore) {
		if l != nil {
			i.l = l
		}
	}
}

// WithMetrics collects backend metrics. Defaults to DefaultMetrics().
func WithMetrics(m *Metrics) InstrumentOption {
	return func(i *instrumentedStore) {
		if m != nil {
			i.m = m
		}
	}
}

// Instrument decorates a store with tracing, logging and metrics
func Instrument(store Store, opts ...InstrumentOption) Store {
	i := &instrumentedStore{
		store: store,
		tr:    opentracing.GlobalTracer(),
		l:     zap.NewNop(),
	}
	for _, apply := range opts {
		apply(i)
	}
	if i.m == nil {
		i.m = DefaultMetrics()
	}
	i.l = i.l.With(zap.String("backend", store.String()))
	return i
}

type instrumentedStore struct {
	store Store
	tr    opentracing.Tracer
	l     *zap.Logger
	m     *Metrics
}

func (i *instrumentedStore) opName(name string) string {
	return strings.Join([]string{"storage", i.String(), name}, ".")
}

func (i *instrumentedStore) spanFromContext(ctx context.Context, name string) opentracing.Span {
	parent := opentracing.SpanFromContext(ctx)
	if parent != nil {
		return i.tr.StartSpan(name, opentracing.ChildOf(parent.Context()))
	}
	return i.tr.StartSpan(name)
}

// observe wraps a call with a span, a debug log and metrics
func (i *instrumentedStore) observe(ctx context.Context, op, key string, call func(context.Context) error) error {
	span := i.spanFromContext(ctx, i.opName(op))
	defer span.Finish()
	span.SetTag("key", key)

	start := time.Now()
	err := call(opentracing.ContextWithSpan(ctx, span))

	result := "ok"
	if err != nil {
		result = "error"
		ext.Error.Set(span, true)
		i.l.Debug("storage "+op+" failed", zap.String("key", key), zap.Error(err))
	} else {
		i.l.Debug("storage "+op, zap.String("key", key))
	}
	i.m.Requests.WithLabelValues(i.String(), op, result).Inc()
	i.m.Duration.WithLabelValues(i.String(), op).Observe(time.Since(start).Seconds())
	return err
}

func (i *instrumentedStore) Upload(ctx context.Context, key, localPath string) error {
	return i.observe(ctx, "upload", key, func(ctx context.Context) error {
		return i.store.Upload(ctx, key, localPath)
	})
}

func (i *instrumentedStore) Download(ctx context.Context, key, localPath string) error {
	return i.observe(ctx, "download", key, func(ctx context.Context) error {
		return i.store.Download(ctx, key, localPath)
	})
}

func (i *instrumentedStore) List(ctx context.Context, prefix string, recursive bool) ([]string, error) {
	var keys []string
	err := i.observe(ctx, "list", prefix, func(ctx context.Context) error {
		var e error
		keys, e = i.store.List(ctx, prefix, recursive)
		return e
	})
	return keys, err
}

func (i *instrumentedStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	return i.observe(ctx, "copy", srcKey, func(ctx context.Context) error {
		return i.store.Copy(ctx, srcKey, dstKey)
	})
}

func (i *instrumentedStore) Checksum(ctx context.Context, key string) (string, error) {
	var sum string
	err := i.observe(ctx, "checksum", key, func(ctx context.Context) error {
		var e error
		sum, e = i.store.Checksum(ctx, key)
		return e
	})
	return sum, err
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}
