package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quahogtools/quahog/internal/engine"
	"github.com/quahogtools/quahog/internal/ui"
)

var (
	popOpts engine.PopOptions

	popCmd = &cobra.Command{
		Use:   "pop",
		Short: "Pop trailing series entries into editable patch commits",
		Long: `Pop removes the last entries of the series file, reverse-applies
their diffs onto the quahog base commit, and reapplies each one as its own
patch commit so it can be edited in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noPopsRequested(cmd.Flags(), popOpts.Count) {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderWarn("no pops requested"))
				return nil
			}
			eng, err := newEngine()
			if err != nil {
				return err
			}
			logger.Printf("pop root=%q from=%q count=%d all=%v", popOpts.Root, popOpts.From, popOpts.Count, popOpts.All)
			if err := eng.Pop(cmd.Context(), popOpts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderPass("pop complete"))
			return nil
		},
	}
)

// noPopsRequested reports an explicit --count=0, which asks for nothing
// rather than falling back to the default of one.
func noPopsRequested(fs *pflag.FlagSet, count int) bool {
	return fs.Changed("count") && count == 0
}

func init() {
	fs := popCmd.Flags()
	addRootFlag(fs, &popOpts.Root)
	fs.StringVar(&popOpts.From, "from", "", "quahog changeset to pop on top of (default: inferred from ancestors)")
	fs.IntVarP(&popOpts.Count, "count", "c", 0, "number of patches to pop (default 1)")
	fs.BoolVarP(&popOpts.All, "all", "a", false, "pop every series entry")
	fs.StringVar(&popOpts.Rebase, "rebase", "", "revset of commits to rebase onto the last popped patch")
	rootCmd.AddCommand(popCmd)
}
