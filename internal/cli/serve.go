package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lsearchy/internal/api"
	"github.com/dgallion1/lsearchy/internal/config"
	"github.com/dgallion1/lsearchy/internal/parser"
	"github.com/dgallion1/lsearchy/internal/pipeline"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var port, serveRoot string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan HTTP service",
		Long: `Serve accepts scan requests over HTTP. Scans run in the background on a
bounded queue and can be polled by ID. LSEARCHY_API_KEY must be set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("serve-root") {
				cfg.ServeRoot = serveRoot
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default 8090)")
	cmd.Flags().StringVar(&serveRoot, "serve-root", "", "directory scans are confined to")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := parser.NewRegistry(cfg.ParserOptions(), log)
	orch := pipeline.NewOrchestrator(cfg, reg, nil, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting lsearchy", "port", cfg.Port, "serve_root", cfg.ServeRoot, "version", version)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)

	// No handler can submit once the listener is closed.
	orch.Stop()
	return err
}
