// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/oneconcern/stowage/pkg/slice"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [paths...]",
	Short: "Upload local paths as an artifact",
	Long: `Upload local files and directories as a single artifact.

Paths are kept relative to the working directory. A path given as "-" reserves
its slot in the artifact catalog, without content.

With --slices, the paths are contributed as slices of the artifact designated by
--key: independent producers may contribute to the same key concurrently.

The key of the artifact is printed on success.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := newSession(ctx)
		defer s.close()

		paths := make([]*string, len(args))
		for i := range args {
			if args[i] != "-" {
				paths[i] = &args[i]
			}
		}

		var (
			h   artifact.Handle
			err error
		)
		if len(stowageFlags.upload.Slices) > 0 {
			if stowageFlags.upload.Key == "" {
				wrapFatalln("contributing slices requires a key", nil)
				return
			}
			h, err = slice.ContributeMany(ctx, s.cfg, s.store, s.cfg.NewHandle(stowageFlags.upload.Key).Key,
				stowageFlags.upload.Slices, paths, artifact.Logger(s.l))
		} else {
			opts := []artifact.Option{artifact.Logger(s.l)}
			if stowageFlags.upload.Key != "" {
				opts = append(opts, artifact.Key(s.cfg.NewHandle(stowageFlags.upload.Key).Key))
			}
			if stowageFlags.upload.Hint != "" {
				opts = append(opts, artifact.Prefix(s.cfg.NewHandle(stowageFlags.upload.Hint).Key))
			}
			h, err = artifact.Upload(ctx, s.cfg, s.store, paths, opts...)
		}
		if err != nil {
			wrapFatalln("upload artifact", err)
			return
		}
		infoLogger.Println(h.String())
	},
}

func init() {
	addKeyFlag(uploadCmd)
	addHintFlag(uploadCmd)
	addSlicesFlag(uploadCmd)
	rootCmd.AddCommand(uploadCmd)
}
