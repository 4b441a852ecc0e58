// File: cmd/serve.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/internal/appraisal"
	"github.com/hverdane/ecoestate/internal/config"
	"github.com/hverdane/ecoestate/internal/events"
	"github.com/hverdane/ecoestate/internal/feasibility"
	"github.com/hverdane/ecoestate/internal/geo"
	"github.com/hverdane/ecoestate/internal/llmclient"
	"github.com/hverdane/ecoestate/internal/observability"
	"github.com/hverdane/ecoestate/internal/search"
	"github.com/hverdane/ecoestate/internal/server"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Starts the marketplace and reporting API. The server exposes listing
management, keyword and semantic search, AI appraisals, local event discovery
and feasibility report generation and export.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			// Re-resolve after flag binding so --addr overrides the config file.
			if addr := viper.GetString("server.addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			return runServe(ctx, logger, cfg, NewStoreProvider())
		},
	}

	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return serveCmd
}

// runServe wires the full service graph and serves until the context is
// canceled.
func runServe(ctx context.Context, logger *zap.Logger, cfg *config.Config, provider storeProvider) error {
	st, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	llm, err := llmclient.NewRouterFromConfig(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to build LLM clients: %w", err)
	}
	defer llm.Close()

	embedder, err := llmclient.NewEmbeddingClient(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to build embedding client: %w", err)
	}

	geocoder, err := geo.NewGoogleGeocoder(cfg.Maps, logger)
	if err != nil {
		return fmt.Errorf("failed to build geocoder: %w", err)
	}

	handlers := server.NewHandlers(
		st,
		search.NewService(st, embedder, cfg.Search, logger),
		appraisal.NewService(llm, st, logger),
		events.NewService(llm, logger),
		feasibility.NewService(llm, geocoder, st, logger),
		logger,
	)

	srv := server.New(cfg.Server, handlers, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	// Flush buffered log entries before the process exits.
	observability.Sync()
	return nil
}
