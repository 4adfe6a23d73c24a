package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quahogtools/quahog/internal/engine"
	"github.com/quahogtools/quahog/internal/ui"
)

var (
	foldOpts engine.FoldOptions

	foldCmd = &cobra.Command{
		Use:   "fold",
		Short: "Fold patch commits back into Quilt patch files",
		Long: `Fold collapses a chain of patch commits into patch files under
patches/, appends their names to the series file, and squashes the chain
into the quahog base commit. It is the inverse of pop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine()
			if err != nil {
				return err
			}
			logger.Printf("fold root=%q to=%q rev=%q count=%d all=%v", foldOpts.Root, foldOpts.To, foldOpts.Rev, foldOpts.Count, foldOpts.All)
			if err := eng.Fold(cmd.Context(), foldOpts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderPass("fold complete"))
			return nil
		},
	}
)

func init() {
	fs := foldCmd.Flags()
	addRootFlag(fs, &foldOpts.Root)
	fs.StringVar(&foldOpts.To, "to", "", "quahog changeset to fold into (default: inferred from ancestors)")
	fs.IntVarP(&foldOpts.Count, "count", "c", 0, "number of patches to fold (default 1)")
	fs.BoolVarP(&foldOpts.All, "all", "a", false, "fold every patch commit in the chain")
	fs.StringVar(&foldOpts.Rev, "rev", "", "revset of the exact patch commits to fold")
	rootCmd.AddCommand(foldCmd)
}
