package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quahogtools/quahog/internal/patchcodec"
	"github.com/quahogtools/quahog/internal/series"
	"github.com/quahogtools/quahog/internal/ui"
)

var (
	seriesRoot string
	seriesStat bool

	seriesCmd = &cobra.Command{
		Use:   "series",
		Short: "List the active entries of the series file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine()
			if err != nil {
				return err
			}
			root, err := eng.ResolveRoot(cmd.Context(), seriesRoot)
			if err != nil {
				return err
			}
			sf, err := series.Load(root.SeriesPath)
			if err != nil {
				return err
			}

			active := sf.Active()
			if len(active) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderWarn("series is empty"))
				return nil
			}
			for _, name := range active {
				line := ui.RenderAccent(name)
				if seriesStat {
					line += " " + patchStat(filepath.Join(root.PatchesDir, name))
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
)

// patchStat summarizes a patch file's diff, or names what went wrong.
func patchStat(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ui.RenderWarn("(missing)")
	}
	diff, _ := patchcodec.SeparateDescription(string(raw))
	stats, err := patchcodec.Stat(diff)
	if err != nil {
		return ui.RenderWarn("(unparsable)")
	}
	return ui.RenderMuted(fmt.Sprintf("(%d files, %d hunks)", stats.Files, stats.Hunks))
}

func init() {
	fs := seriesCmd.Flags()
	addRootFlag(fs, &seriesRoot)
	fs.BoolVar(&seriesStat, "stat", false, "show file and hunk counts per patch")
	rootCmd.AddCommand(seriesCmd)
}
