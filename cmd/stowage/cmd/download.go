// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"path/filepath"

	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/spf13/cobra"
)

const holeMarker = "<none>"

var downloadCmd = &cobra.Command{
	Use:   "download <key>",
	Short: "Download an artifact",
	Long: `Download an artifact into a local directory.

Tarballs are extracted and merged into the destination. The local paths of the
items in the artifact catalog are printed in order, with "<none>" for missing items.

In local mode, the argument is the local path of the artifact.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := newSession(ctx)
		defer s.close()

		h := s.cfg.NewHandle(args[0])
		if s.cfg.Mode == artifact.ModeLocal {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				wrapFatalln("resolve local artifact", err)
				return
			}
			h = artifact.LocalHandle(abs)
		}

		opts := []artifact.Option{
			artifact.Logger(s.l),
			artifact.Extract(!stowageFlags.download.NoExtract),
			artifact.SkipExists(stowageFlags.download.SkipExists),
		}
		switch {
		case stowageFlags.download.Slice >= 0:
			h = h.Slice(stowageFlags.download.Slice)
		case stowageFlags.download.SubPath != "":
			h = h.SubPath(stowageFlags.download.SubPath)
		}

		paths, err := artifact.Download(ctx, s.cfg, s.store, h, stowageFlags.download.Destination, opts...)
		if err != nil {
			wrapFatalln("download artifact", err)
			return
		}
		for _, pth := range paths {
			if pth == nil {
				infoLogger.Println(holeMarker)
				continue
			}
			infoLogger.Println(*pth)
		}
	},
}

func init() {
	addDestinationFlag(downloadCmd)
	addSubPathFlag(downloadCmd)
	addSliceFlag(downloadCmd)
	addNoExtractFlag(downloadCmd)
	addSkipExistsFlag(downloadCmd)
	rootCmd.AddCommand(downloadCmd)
}
