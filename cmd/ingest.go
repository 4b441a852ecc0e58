// File: cmd/ingest.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/config"
	"github.com/hverdane/ecoestate/internal/llmclient"
	"github.com/hverdane/ecoestate/internal/observability"
	"github.com/hverdane/ecoestate/internal/search"
)

// newIngestCmd creates and configures the `ingest` command.
func newIngestCmd(provider storeProvider) *cobra.Command {
	var filePath string

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Bulk-load listings from a JSON file and index them for search",
		Long: `Reads a JSON array of listings, assigns IDs where missing, computes the
embedding for each listing and persists them to the configured store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			embedder, err := llmclient.NewEmbeddingClient(cfg.LLM, logger)
			if err != nil {
				return fmt.Errorf("failed to build embedding client: %w", err)
			}

			return runIngest(ctx, logger, cfg, filePath, provider, embedder)
		},
	}

	ingestCmd.Flags().StringVar(&filePath, "file", "", "Path to a JSON file containing an array of listings (required)")
	_ = ingestCmd.MarkFlagRequired("file")

	return ingestCmd
}

// runIngest contains the core, testable logic for bulk listing ingestion.
func runIngest(
	ctx context.Context,
	logger *zap.Logger,
	cfg *config.Config,
	filePath string,
	provider storeProvider,
	embedder schemas.EmbeddingClient,
) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read listings file: %w", err)
	}

	var listings []schemas.Listing
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &listings); err != nil {
		return fmt.Errorf("failed to parse listings file: %w", err)
	}
	if len(listings) == 0 {
		return fmt.Errorf("listings file %s contains no listings", filePath)
	}

	st, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	searchSvc := search.NewService(st, embedder, cfg.Search, logger)

	var failed int
	for i := range listings {
		l := &listings[i]
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now().UTC()
		}

		if err := searchSvc.Index(ctx, l); err != nil {
			logger.Error("Failed to ingest listing", zap.String("title", l.Title), zap.Error(err))
			failed++
			continue
		}
	}

	logger.Info("Ingestion complete",
		zap.Int("total", len(listings)),
		zap.Int("indexed", len(listings)-failed),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return fmt.Errorf("%d of %d listings failed to ingest", failed, len(listings))
	}
	return nil
}
