package handlers

import (
	"blogsmith/internal/auth"
	"blogsmith/internal/config"
	"blogsmith/internal/logger"
	"blogsmith/internal/pipeline"
	"blogsmith/internal/server"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the blog API server",
		Long: `Start the blogsmith HTTP server.

The server provides:
  • Public blog listing, detail, sitemap and RSS feed
  • Admin login and blog management
  • On-demand generation from Reddit, a free-text topic or a single post URL
  • Health check and Prometheus metrics

Generation endpoints are disabled when no Gemini API key is configured.

Examples:
  # Start server on the configured port
  blogsmith serve

  # Start on custom port
  blogsmith serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	log := logger.Get()
	log.Info("Starting HTTP server")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateForServer(); err != nil {
		return err
	}

	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Database connection successful")

	var generator server.Generator
	if err := cfg.ValidateForGeneration(); err != nil {
		log.Warn("Blog generation disabled", "reason", err.Error())
	} else {
		orchestrator, err := pipeline.NewBuilder(cfg).WithStore(db).WithLogger(log).Build(ctx)
		if err != nil {
			return fmt.Errorf("failed to build generation pipeline: %w", err)
		}
		generator = orchestrator
	}

	sessions := auth.NewManager(cfg.Admin, serverCfg.SecureCookies)
	srv := server.New(db, generator, sessions, serverCfg, log)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("Server listening on http://%s", serverCfg.Addr()))
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("Server shutdown initiated", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(serverCfg.ShutdownTimeout, 30*time.Second))
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed, forcing close", "error", err)
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		log.Info("Server stopped successfully")
	}

	return nil
}
