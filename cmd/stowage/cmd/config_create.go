// Copyright © 2018 One Concern

package cmd

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var configCreate = &cobra.Command{
	Use:   "create",
	Short: "Create a config",
	Long:  "Create a config from the current flags. Config file will be placed in $HOME/.stowage/stowage.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := config.artifactConfig(); err != nil {
			wrapFatalln("invalid configuration", err)
			return
		}
		target := stowageFlags.config.Path
		if target == "" {
			user, err := user.Current()
			if user == nil || err != nil {
				wrapFatalln("Could not get home directory for user", nil)
				return
			}
			target = filepath.Join(user.HomeDir, ".stowage", "stowage.yaml")
		}
		o, e := yaml.Marshal(config)
		if e != nil {
			wrapFatalln("serialize config to yaml", e)
			return
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			wrapFatalln("create config directory", err)
			return
		}
		if err := os.WriteFile(target, o, 0o600); err != nil {
			wrapFatalln("write config file", err)
			return
		}
		infoLogger.Printf("config written to %s", target)
	},
}

func init() {
	addConfigPathFlag(configCreate)
	configCmd.AddCommand(configCreate)
}
