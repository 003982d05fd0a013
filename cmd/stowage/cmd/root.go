// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stowage",
	Short: "Stowage moves workflow artifacts to and from object storage",
	Long: `Stowage moves workflow artifacts to and from object storage.

Artifacts are files, directories or ordered collections of files, contributed by
any number of independent producers. Every producer writes its own catalog
fragment next to the content it uploads: consumers merge all fragments and get
the complete, ordered artifact back.

Supported backends are a local directory, S3 (or any S3 compatible store such as MinIO)
and Google Cloud Storage.
`,
	SilenceUsage: true,
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	addRootFlags(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault(backendFlag, backendLocalFS)
	viper.SetDefault(rootFlag, ".stowage")
	viper.SetDefault(prefixFlag, "stowage/")
	viper.SetDefault(catalogDirFlag, ".dflow")
	viper.SetDefault(archiveFlag, "tar")
	viper.SetDefault(concurrencyFlag, 8)
	viper.SetDefault(logLevelFlag, "info")

	if os.Getenv("STOWAGE_CONFIG") != "" {
		// Use config file from the environment.
		viper.SetConfigFile(os.Getenv("STOWAGE_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.stowage")
		viper.AddConfigPath("/etc/stowage")
		viper.SetConfigName("stowage")
	}

	viper.SetEnvPrefix("stowage")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		wrapFatalln("invalid configuration", err)
		return
	}
	if config.Credential != "" {
		// the credential file of the configuration wins over the environment
		_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", config.Credential)
	}
}
