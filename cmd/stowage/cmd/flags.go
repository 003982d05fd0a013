// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	backendFlag     = "backend"
	bucketFlag      = "bucket"
	rootFlag        = "root"
	endpointFlag    = "endpoint"
	regionFlag      = "region"
	accessKeyFlag   = "access-key"
	secretKeyFlag   = "secret-key"
	secureFlag      = "secure"
	credentialFlag  = "credential"
	prefixFlag      = "prefix"
	catalogDirFlag  = "catalog-dir"
	modeFlag        = "mode"
	archiveFlag     = "archive"
	concurrencyFlag = "concurrency"
	workDirFlag     = "workdir"
	logLevelFlag    = "loglevel"
	tracingFlag     = "tracing"
	traceAgentFlag  = "trace-agent"

	backendLocalFS = "localfs"
	backendS3      = "s3"
	backendGCS     = "gcs"
)

type flagsT struct {
	upload struct {
		Key    string
		Hint   string
		Slices []int
	}
	download struct {
		Destination string
		SubPath     string
		Slice       int
		NoExtract   bool
		SkipExists  bool
	}
	copy struct {
		Sort          bool
		IgnoreCatalog bool
	}
	steps struct {
		Names  []string
		Keys   []string
		Phases []string
		Types  []string
		IDs    []string
	}
	config struct {
		Path string
	}
}

var stowageFlags = flagsT{}

// addRootFlags declares the persistent flags shared by all commands. Their values may also be
// set in the configuration file, or with STOWAGE_* environment variables.
func addRootFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String(backendFlag, backendLocalFS, "The storage backend: localfs, s3 or gcs")
	pf.String(bucketFlag, "", "The bucket holding artifacts (s3, gcs)")
	pf.String(rootFlag, ".stowage", "The root directory holding artifacts (localfs)")
	pf.String(endpointFlag, "", "The endpoint of an S3 compatible store, e.g. a MinIO server")
	pf.String(regionFlag, "", "The AWS region (s3)")
	pf.String(accessKeyFlag, "", "The access key of an S3 compatible store")
	pf.String(secretKeyFlag, "", "The secret key of an S3 compatible store")
	pf.Bool(secureFlag, true, "Use TLS to reach an S3 compatible store")
	pf.String(credentialFlag, "", "The path to a GCS service account credential file")
	pf.String(prefixFlag, "stowage/", "The namespace of keys in the backend")
	pf.String(catalogDirFlag, ".dflow", "The name of the directory holding catalog fragments")
	pf.String(modeFlag, "remote", "The mode of operation: remote or local")
	pf.String(archiveFlag, "tar", "The default archive mode of uploads: tar or none")
	pf.Int(concurrencyFlag, 8, "The number of concurrent transfers")
	pf.String(workDirFlag, "", "The directory uploaded paths are relative to. Defaults to the current directory")
	pf.String(logLevelFlag, "info", "The logging level: debug, info, warn, error or none")
	pf.Bool(tracingFlag, false, "Trace storage backend calls with jaeger, configured by JAEGER_* environment variables")
	pf.String(traceAgentFlag, "", "The host:port of the jaeger agent receiving traces")

	bindFlags(pf,
		backendFlag, bucketFlag, rootFlag, endpointFlag, regionFlag, accessKeyFlag, secretKeyFlag,
		secureFlag, credentialFlag, prefixFlag, catalogDirFlag, modeFlag, archiveFlag,
		concurrencyFlag, workDirFlag, logLevelFlag, tracingFlag, traceAgentFlag,
	)
}

// bindFlags lets viper resolve flags from the config file and the environment
func bindFlags(fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = viper.BindPFlag(name, fs.Lookup(name))
	}
}

func addKeyFlag(cmd *cobra.Command) string {
	key := "key"
	cmd.Flags().StringVar(&stowageFlags.upload.Key, key, "", "The key of the uploaded artifact. Defaults to a unique key in the namespace")
	return key
}

func addHintFlag(cmd *cobra.Command) string {
	hint := "to-prefix"
	cmd.Flags().StringVar(&stowageFlags.upload.Hint, hint, "", "Upload below this prefix rather than to a unique key")
	return hint
}

func addSlicesFlag(cmd *cobra.Command) string {
	slices := "slices"
	cmd.Flags().IntSliceVar(&stowageFlags.upload.Slices, slices, nil,
		"Contribute the uploaded paths as these slices of the artifact designated by --key, one per path")
	return slices
}

func addDestinationFlag(cmd *cobra.Command) string {
	destination := "destination"
	cmd.Flags().StringVar(&stowageFlags.download.Destination, destination, ".", "The path to the download dir")
	return destination
}

func addSubPathFlag(cmd *cobra.Command) string {
	subPath := "sub-path"
	cmd.Flags().StringVar(&stowageFlags.download.SubPath, subPath, "", "Download only this path within the artifact")
	return subPath
}

func addSliceFlag(cmd *cobra.Command) string {
	slice := "slice"
	cmd.Flags().IntVar(&stowageFlags.download.Slice, slice, -1, "Download only this slice of the artifact")
	return slice
}

func addNoExtractFlag(cmd *cobra.Command) string {
	noExtract := "no-extract"
	cmd.Flags().BoolVar(&stowageFlags.download.NoExtract, noExtract, false, "Keep downloaded tarballs as is")
	return noExtract
}

func addSkipExistsFlag(cmd *cobra.Command) string {
	skipExists := "skip-exists"
	cmd.Flags().BoolVar(&stowageFlags.download.SkipExists, skipExists, false, "Skip files which exist locally with the same checksum")
	return skipExists
}

func addSortFlag(cmd *cobra.Command) string {
	sort := "sort"
	cmd.Flags().BoolVar(&stowageFlags.copy.Sort, sort, false, "Append the catalog of the source after the catalog of the destination")
	return sort
}

func addIgnoreCatalogFlag(cmd *cobra.Command) string {
	ignoreCatalog := "ignore-catalog"
	cmd.Flags().BoolVar(&stowageFlags.copy.IgnoreCatalog, ignoreCatalog, false, "Do not copy catalog fragments")
	return ignoreCatalog
}

func addStepFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&stowageFlags.steps.Names, "name", nil, "Select steps by name")
	cmd.Flags().StringSliceVar(&stowageFlags.steps.Keys, "key", nil, "Select steps by key")
	cmd.Flags().StringSliceVar(&stowageFlags.steps.Phases, "phase", nil, "Select steps by phase")
	cmd.Flags().StringSliceVar(&stowageFlags.steps.Types, "type", nil, "Select steps by type")
	cmd.Flags().StringSliceVar(&stowageFlags.steps.IDs, "id", nil, "Select steps by id")
}

func addConfigPathFlag(cmd *cobra.Command) string {
	pth := "output"
	cmd.Flags().StringVar(&stowageFlags.config.Path, pth, "", "Where to write the config file. Defaults to $HOME/.stowage/stowage.yaml")
	return pth
}
