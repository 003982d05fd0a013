// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/oneconcern/stowage/pkg/catalog"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <key>",
	Short: "Show the merged catalog of an artifact",
	Long: `Show the catalog of an artifact, as merged from all the fragments written by its producers.

Slots without item are shown as "<none>".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := newSession(ctx)
		defer s.close()

		var (
			cat catalog.Catalog
			err error
		)
		if s.cfg.Mode == artifact.ModeLocal {
			cat, err = catalog.ReadDir(filepath.Join(args[0], s.cfg.CatalogDir))
		} else {
			cat, err = catalog.ReadRemote(ctx, s.store, s.cfg.NewHandle(args[0]).Key, s.cfg.CatalogDir)
		}
		if err != nil {
			wrapFatalln("read catalog", err)
			return
		}
		printCatalog(os.Stdout, cat)
	},
}

func printCatalog(w io.Writer, cat catalog.Catalog) {
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("SLOT", "ITEM")
	for i, item := range cat.Items() {
		if item == nil {
			table.AddRow(i, color.HiBlackString(holeMarker))
			continue
		}
		table.AddRow(i, *item)
	}
	_, _ = fmt.Fprintln(w, table)
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
