// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jprom "github.com/uber/jaeger-lib/metrics/prometheus"
	"go.uber.org/zap"
)

const tracingServiceName = "stowage"

// initTracing installs a jaeger tracer as the global tracer, used to trace storage backend calls.
//
// The tracer is configured from JAEGER_* environment variables, and reports to agent when not empty.
func initTracing(agent string, l *zap.Logger) (io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = tracingServiceName
	}
	if cfg.Sampler == nil {
		cfg.Sampler = &jaegercfg.SamplerConfig{}
	}
	if cfg.Sampler.Type == "" {
		cfg.Sampler.Type = "const"
		cfg.Sampler.Param = 1
	}
	if cfg.Reporter == nil {
		cfg.Reporter = &jaegercfg.ReporterConfig{}
	}
	if agent != "" {
		cfg.Reporter.LocalAgentHostPort = agent
	}

	tracer, closer, err := cfg.NewTracer(
		jaegercfg.Logger(jaegerLoggerAdapter{logger: l}),
		jaegercfg.Metrics(jprom.New()),
	)
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}

type jaegerLoggerAdapter struct {
	logger *zap.Logger
}

func (a jaegerLoggerAdapter) Error(msg string) {
	a.logger.Error(msg)
}

func (a jaegerLoggerAdapter) Infof(msg string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf(msg, args...))
}
