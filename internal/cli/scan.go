package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lsearchy/internal/address"
	"github.com/dgallion1/lsearchy/internal/config"
	"github.com/dgallion1/lsearchy/internal/parser"
	"github.com/dgallion1/lsearchy/internal/pipeline"
	"github.com/dgallion1/lsearchy/internal/report"
)

type scanFlags struct {
	dir     string
	files   []string
	query   string
	output  string
	threads bool
	workers int
	hidden  bool
}

func newScanCmd(g *globalFlags) *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan documents for email addresses",
		Long: `Scan walks --dir (and any --file given) and prints every new address as it
is found. Addresses containing the query's needle are highlighted and
flagged in the saved report.`,
		Example: `  lsearchy scan --dir ./docs --query jane@example.com
  lsearchy scan -d ./docs -q example.com --threads --workers 8 -o results.xlsx
  lsearchy scan -f notes.pdf -f memo.doc -q jane`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			return runScan(cmd, cfg, f.files)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.dir, "dir", "d", "", "directory to scan recursively")
	flags.StringArrayVarP(&f.files, "file", "f", nil, "single file to scan (repeatable)")
	flags.StringVarP(&f.query, "query", "q", "", "address or domain to highlight")
	flags.StringVarP(&f.output, "output", "o", "", fmt.Sprintf("save results to a report (%v)", report.Formats()))
	flags.BoolVarP(&f.threads, "threads", "T", false, "extract documents concurrently")
	flags.IntVarP(&f.workers, "workers", "w", 0, "number of concurrent workers")
	flags.BoolVar(&f.hidden, "hidden", false, "include hidden files and directories")
	return cmd
}

// apply overrides cfg with the flags the user set explicitly.
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Root = f.dir
	}
	if flags.Changed("query") {
		cfg.Query = f.query
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("threads") {
		cfg.Mode = config.ModeSequential
		if f.threads {
			cfg.Mode = config.ModeConcurrent
		}
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("hidden") {
		cfg.SkipHidden = !f.hidden
	}
}

func runScan(cmd *cobra.Command, cfg config.Config, files []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Root == "" && len(files) == 0 {
		return errors.New("nothing to scan: pass --dir or --file")
	}
	if cfg.Output != "" && !report.Supported(cfg.Output) {
		return fmt.Errorf("%w: %s (want one of %v)", report.ErrUnknownFormat, cfg.Output, report.Formats())
	}

	log := newLogger(cmd.ErrOrStderr(), cfg.Debug)
	reg := parser.NewRegistry(cfg.ParserOptions(), log)
	eng := pipeline.NewEngine(cfg, reg, log)
	printer := newFindingPrinter(cmd.OutOrStdout(), !cfg.NoColor)
	eng.OnFinding = printer.print

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	query := address.NewQuery(cfg.Query)
	log.Debug("scan starting", "root", cfg.Root, "files", len(files), "mode", cfg.Mode, "workers", cfg.Workers)

	snap, err := scan(ctx, eng, cfg.Root, files, query)
	switch {
	case errors.Is(err, context.Canceled):
		log.Warn("scan interrupted, keeping partial results", "addresses", len(snap.Addresses))
	case err != nil:
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, summary(snap))
	for kind, n := range snap.Counters.FailedBy {
		log.Debug("extraction failures", "kind", kind, "count", n)
	}

	if cfg.Output != "" {
		if err := report.Save(cfg.Output, snap.Records); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %d records to %s\n", len(snap.Records), cfg.Output)
	}
	return nil
}

// scan runs the directory walk, the explicit file list, or both.
func scan(ctx context.Context, eng *pipeline.Engine, root string, files []string, query address.Query) (pipeline.Snapshot, error) {
	if len(files) == 0 {
		return eng.Run(ctx, root, query)
	}
	paths := make([]string, 0, len(files))
	if root != "" {
		info, err := os.Stat(root)
		if err != nil {
			return pipeline.Snapshot{}, fmt.Errorf("%w: %v", pipeline.ErrRootUnreadable, err)
		}
		if !info.IsDir() {
			return pipeline.Snapshot{}, fmt.Errorf("%w: %s is not a directory", pipeline.ErrRootUnreadable, root)
		}
		discovered, err := eng.Discover(root)
		if err != nil {
			return pipeline.Snapshot{}, err
		}
		paths = append(paths, discovered...)
	}
	paths = append(paths, files...)
	return eng.Process(ctx, paths, query)
}
