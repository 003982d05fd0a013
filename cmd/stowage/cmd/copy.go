// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:     "copy <source key> <destination key>",
	Aliases: []string{"cp"},
	Short:   "Copy an artifact within the backend",
	Long: `Copy all objects of an artifact to another key, without transferring them locally.

With --sort, the catalog of the source is appended after the catalog of the destination,
so that several artifacts may be gathered under a single key, in order.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := newSession(ctx)
		defer s.close()
		if s.cfg.Mode == artifact.ModeLocal {
			wrapFatalWithCodef(2, "copy is not supported in local mode")
			return
		}

		h, err := artifact.Copy(ctx, s.cfg, s.store, s.cfg.NewHandle(args[0]), s.cfg.NewHandle(args[1]),
			artifact.Logger(s.l),
			artifact.Sort(stowageFlags.copy.Sort),
			artifact.IgnoreCatalog(stowageFlags.copy.IgnoreCatalog),
		)
		if err != nil {
			wrapFatalln("copy artifact", err)
			return
		}
		infoLogger.Println(h.String())
	},
}

func init() {
	addSortFlag(copyCmd)
	addIgnoreCatalogFlag(copyCmd)
	rootCmd.AddCommand(copyCmd)
}
