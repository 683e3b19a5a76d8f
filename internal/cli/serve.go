package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwhouse/retail-bi/internal/db"
	"github.com/dwhouse/retail-bi/internal/logging"
	"github.com/dwhouse/retail-bi/internal/reporting"
	"github.com/dwhouse/retail-bi/internal/server"
)

var (
	serveListen   string
	servePageSize int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and product API",
	Long: `Serve the HTTP API over a loaded warehouse: dashboard aggregates,
the paginated product listing, and the transaction-insert endpoint used
by the mobile client.

Example:
  retail-bi serve --listen :8080 --connection "postgres://..."`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"address to listen on (default: :8080)")
	serveCmd.Flags().IntVar(&servePageSize, "page-size", 0,
		"products per listing page (default: 20)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if serveListen != "" {
		cfg.Serve.Listen = serveListen
	}
	if servePageSize > 0 {
		cfg.Serve.PageSize = servePageSize
	}

	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	store := reporting.NewStore(pool, cfg.Serve.PageSize)
	srv := &http.Server{
		Addr:              cfg.Serve.Listen,
		Handler:           server.NewRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.Info().Str("listen", cfg.Serve.Listen).Msg("API server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
