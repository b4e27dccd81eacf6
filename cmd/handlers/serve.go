package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"necromancer/internal/logger"
	"necromancer/internal/pipeline"
	"necromancer/internal/render"
	"necromancer/internal/server"
	"necromancer/internal/store"
)

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port       int
		host       string
		storageDir string
		noAI       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the Portfolio Necromancer REST API.

The server provides:
  • POST /api/generate to build a portfolio from posted projects
  • POST /api/classify to categorize and summarize without rendering
  • GET  /api/preview/{id}/ and /api/download/{id} for generated sites
  • GET  /api/portfolios, /api/portfolios/{id} and /api/stats from the catalog
  • GET  /api/health, /api/categories and /api/themes

Generated sites are kept under server.storage_dir.

Examples:
  # Start server on default port 5000
  necromancer serve

  # Start on custom port
  necromancer serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host, storageDir, noAI)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 5000)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")
	cmd.Flags().StringVar(&storageDir, "storage-dir", "", "directory for generated portfolios (default from config)")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "use the keyword rules and templates even when an API key is set")

	return cmd
}

func runServe(ctx context.Context, port int, host, storageDir string, noAI bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.For("serve")

	// Override server config from flags if provided
	serverCfg := *cfg
	if port != 0 {
		serverCfg.Server.Port = port
	}
	if host != "" {
		serverCfg.Server.Host = host
	}
	if storageDir != "" {
		serverCfg.Server.StorageDir = storageDir
	}

	gen, err := render.NewGenerator(serverCfg.Server.StorageDir)
	if err != nil {
		return err
	}
	builder := pipeline.NewBuilder(cfg).WithGenerator(gen)
	if noAI {
		builder = builder.WithoutAI()
	}
	p, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	catalog, err := store.NewStore(serverCfg.Server.StorageDir)
	if err != nil {
		return fmt.Errorf("failed to open portfolio catalog: %w", err)
	}
	defer catalog.Close()
	if serverCfg.Server.Retention > 0 {
		pruneExpired(ctx, catalog, serverCfg.Server.Retention)
	}

	srv := server.New(p, &serverCfg, catalog)

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().Msgf("Server listening on http://%s", srv.Addr())
		log.Info().Msg("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	// The root command's context is cancelled on SIGINT and SIGTERM.
	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		log.Info().Msg("Server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed, forcing close")
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		log.Info().Msg("Server stopped successfully")
	}

	return nil
}

// pruneExpired drops catalog entries older than retention along with their
// generated files.
func pruneExpired(ctx context.Context, catalog *store.Store, retention time.Duration) {
	log := logger.For("serve")
	removed, err := catalog.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to prune expired portfolios")
		return
	}
	for id, path := range removed {
		if err := os.RemoveAll(path); err != nil {
			log.Warn().Err(err).Str("portfolio_id", id).Msg("Failed to remove portfolio files")
		}
	}
	if len(removed) > 0 {
		log.Info().Int("removed", len(removed)).Dur("retention", retention).Msg("Pruned expired portfolios")
	}
}
