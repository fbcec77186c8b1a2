// Package cli wires the lsearchy commands: scan, serve and version.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lsearchy/internal/config"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=...".
var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	debug      bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "lsearchy",
		Short: "Harvest email addresses from a tree of documents",
		Long: `lsearchy walks a directory of PDF, Word, OpenDocument, OOXML and text
files, extracts their text, and collects every email address it finds,
including disguised forms like "jane at example dot com".`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "TOML config file")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "log per-document failures and decisions")
	root.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newScanCmd(g), newServeCmd(g), newVersionCmd())
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// loadConfig reads the config file and environment, then applies any global
// flag the user set explicitly.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = g.debug
	}
	if flags.Changed("no-color") {
		cfg.NoColor = g.noColor
	}
	return cfg, nil
}

// newLogger returns a text logger for interactive use.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("lsearchy version %s\n", version)
		},
	}
}
