// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/oneconcern/stowage/pkg/dlogger"
	"github.com/oneconcern/stowage/pkg/storage"
	"github.com/oneconcern/stowage/pkg/storage/gcs"
	"github.com/oneconcern/stowage/pkg/storage/localfs"
	"github.com/oneconcern/stowage/pkg/storage/sthree"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Bucket      string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Root        string `mapstructure:"root" yaml:"root,omitempty"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region      string `mapstructure:"region" yaml:"region,omitempty"`
	AccessKey   string `mapstructure:"access-key" yaml:"access-key,omitempty"`
	SecretKey   string `mapstructure:"secret-key" yaml:"secret-key,omitempty"`
	Secure      bool   `mapstructure:"secure" yaml:"secure"`
	Credential  string `mapstructure:"credential" yaml:"credential,omitempty"` // Credentials to use for GCS
	Prefix      string `mapstructure:"prefix" yaml:"prefix"`
	CatalogDir  string `mapstructure:"catalog-dir" yaml:"catalog-dir"`
	Mode        string `mapstructure:"mode" yaml:"mode,omitempty"`
	Archive     string `mapstructure:"archive" yaml:"archive"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
	WorkDir     string `mapstructure:"workdir" yaml:"workdir,omitempty"`
	LogLevel    string `mapstructure:"loglevel" yaml:"loglevel,omitempty"`
	Tracing     bool   `mapstructure:"tracing" yaml:"tracing,omitempty"`
	TraceAgent  string `mapstructure:"trace-agent" yaml:"trace-agent,omitempty"`
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *CLIConfig) artifactConfig() (artifact.Config, error) {
	mode, err := artifact.ParseMode(c.Mode)
	if err != nil {
		return artifact.Config{}, err
	}
	archive, err := artifact.ParseArchiveMode(c.Archive)
	if err != nil {
		return artifact.Config{}, err
	}
	return artifact.Config{
		Prefix:      c.Prefix,
		CatalogDir:  c.CatalogDir,
		Mode:        mode,
		ArchiveMode: archive,
		Concurrency: c.Concurrency,
		WorkDir:     c.WorkDir,
	}, nil
}

func (c *CLIConfig) logger() (*zap.Logger, error) {
	level := c.LogLevel
	if level == "" {
		level = dlogger.LogLevelInfo
	}
	return dlogger.GetLogger(level)
}

// store builds the configured backend, instrumented with logs, metrics and traces
func (c *CLIConfig) store(ctx context.Context, l *zap.Logger) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch c.Backend {
	case backendLocalFS, "":
		store, err = localfs.NewAt(c.Root)
	case backendS3:
		var awsConfig *aws.Config
		if c.Endpoint != "" {
			awsConfig = sthree.MinioConfig(c.Endpoint, c.AccessKey, c.SecretKey, c.Secure)
		} else {
			awsConfig = aws.NewConfig()
		}
		if c.Region != "" {
			awsConfig = awsConfig.WithRegion(c.Region)
		}
		store, err = sthree.New(sthree.Bucket(c.Bucket), sthree.AWSConfig(awsConfig), sthree.Logger(l))
	case backendGCS:
		store, err = gcs.New(ctx, c.Bucket, gcs.CredentialFile(c.Credential), gcs.Logger(l))
	default:
		return nil, fmt.Errorf("unsupported backend %q", c.Backend)
	}
	if err != nil {
		return nil, err
	}
	return storage.Instrument(store, storage.WithLogger(l)), nil
}

// session gathers what commands need to operate on artifacts
type session struct {
	cfg    artifact.Config
	store  storage.Store
	l      *zap.Logger
	tracer io.Closer
}

// close flushes pending traces
func (s session) close() {
	if s.tracer != nil {
		_ = s.tracer.Close()
	}
}

func newSession(ctx context.Context) session {
	l, err := config.logger()
	if err != nil {
		wrapFatalln("failed to set up logging", err)
		return session{}
	}
	cfg, err := config.artifactConfig()
	if err != nil {
		wrapFatalln("invalid configuration", err)
		return session{}
	}
	s := session{cfg: cfg, l: l}
	if cfg.Mode == artifact.ModeLocal {
		return s
	}
	if config.Tracing {
		if s.tracer, err = initTracing(config.TraceAgent, l); err != nil {
			l.Warn("failed to initialize tracing, falling back to noop tracer", zap.Error(err))
		}
	}
	if s.store, err = config.store(ctx, l); err != nil {
		wrapFatalln("failed to set up storage backend", err)
		return session{}
	}
	return s
}

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage a config",
	Long: `Commands to manage stowage CLI config.

Configuration for stowage is the common set of flags that are needed for most commands and do not change across runs.
Every setting may be overridden by a flag, or by an environment variable such as STOWAGE_BACKEND.`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
