package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quahogtools/quahog/internal/applier"
	"github.com/quahogtools/quahog/internal/config"
	"github.com/quahogtools/quahog/internal/engine"
	"github.com/quahogtools/quahog/internal/ui"
	"github.com/quahogtools/quahog/internal/vcs/jj"
)

var (
	cfg    config.Config
	logger *log.Logger

	rootCmd = &cobra.Command{
		Use:   "quahog",
		Short: "Manage Quilt patch sets as editable commits",
		Long: `Quahog moves patches between two representations: Quilt patch
files listed in a series file, and real commits in the repository.
"pop" lifts trailing series entries into editable patch commits;
"fold" is its inverse, collapsing patch commits back into files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			ui.Init(cfg.Color)
			logger = cfg.Logger()
			return nil
		},
	}
)

// addRootFlag registers the shared --root flag.
func addRootFlag(fs *pflag.FlagSet, p *string) {
	fs.StringVar(p, "root", "", "patch set directory containing patches/ (default: current directory)")
}

// newEngine opens the repository enclosing the working directory and wires
// up the operation engine from the loaded config.
func newEngine() (*engine.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	backend, err := jj.Open(cwd, jj.WithBinary(cfg.JJBinary))
	if err != nil {
		return nil, err
	}
	repoRoot, err := backend.Root()
	if err != nil {
		return nil, err
	}
	app := applier.NewGitApplier(repoRoot)
	app.Binary = cfg.GitBinary
	return engine.New(backend, app, engine.IO{}, logger), nil
}
