// Copyright © 2018 One Concern

package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// Build information, set with -ldflags at link time
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the running binary
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	BuildDate string `json:"buildDate,omitempty" yaml:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty" yaml:"gitCommit,omitempty"`
	GitState  string `json:"gitState,omitempty" yaml:"gitState,omitempty"`
}

// NewVersionInfo reports a "dev" version for binaries built without ldflags
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GitState:  GitState,
	}
	if Version != "" {
		ver.Version = Version
		if ver.GitState == "" {
			ver.GitState = "clean"
		}
	}
	return ver
}

func (v VersionInfo) String() string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return v.Version
	}
	return strings.TrimSpace(string(b))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of stowage",
	Long: `Prints the build information of stowage as yaml:
	* version: output of git describe --tags, or dev
	* buildDate: date at which the binary was built
	* gitCommit: the commit this binary was built from
	* gitState: dirty when there were uncommitted changes during the build
`,
	Run: func(cmd *cobra.Command, args []string) {
		infoLogger.Println(NewVersionInfo().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
