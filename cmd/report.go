// File: cmd/report.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/config"
	"github.com/hverdane/ecoestate/internal/feasibility"
	"github.com/hverdane/ecoestate/internal/geo"
	"github.com/hverdane/ecoestate/internal/llmclient"
	"github.com/hverdane/ecoestate/internal/observability"
	"github.com/hverdane/ecoestate/internal/report"
	"github.com/hverdane/ecoestate/internal/store"
)

// storeProvider defines an interface for components that can create a data
// store. This abstraction allows tests to inject an in-memory store instead
// of a live database connection.
type storeProvider interface {
	// Create initializes and returns a schemas.Store, a cleanup function to
	// release resources, and an error if the creation fails.
	Create(ctx context.Context, cfg *config.Config) (schemas.Store, func(), error)
}

// defaultStoreProvider is the concrete implementation used in production. It
// connects to MongoDB when a URI is configured and falls back to the
// ephemeral in-memory store otherwise.
type defaultStoreProvider struct{}

// NewStoreProvider is a factory function that creates the production store
// provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

func (p *defaultStoreProvider) Create(ctx context.Context, cfg *config.Config) (schemas.Store, func(), error) {
	logger := observability.GetLogger()

	if cfg.Database.URI == "" {
		logger.Warn("No database URI configured (ECOESTATE_DATABASE_URI); using ephemeral in-memory store")
		return store.NewInMemoryStore(logger), func() {}, nil
	}

	mongoStore, err := store.NewMongoStore(ctx, cfg.Database, cfg.Search.NumCandidates, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	cleanup := func() {
		if err := mongoStore.Close(context.Background()); err != nil {
			logger.Warn("Failed to close database connection", zap.Error(err))
		}
	}
	return mongoStore, cleanup, nil
}

// newReportCmd creates and configures the `report` command.
func newReportCmd(provider storeProvider) *cobra.Command {
	var address string
	var projectName string
	var outputPath string
	var format string

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a sustainability feasibility report for an address",
		Long: `Geocodes the given address, gathers an AI sustainability assessment and
policy summary, validates the scores, persists the report and exports it in
the requested format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			llm, err := llmclient.NewRouterFromConfig(cfg.LLM, logger)
			if err != nil {
				return fmt.Errorf("failed to build LLM clients: %w", err)
			}
			defer llm.Close()

			geocoder, err := geo.NewGoogleGeocoder(cfg.Maps, logger)
			if err != nil {
				return fmt.Errorf("failed to build geocoder: %w", err)
			}

			// Delegate to the testable core logic function.
			return runReport(ctx, logger, cfg, address, projectName, outputPath, format, provider, llm, geocoder)
		},
	}

	reportCmd.Flags().StringVar(&address, "address", "", "Address or place to assess (required)")
	_ = reportCmd.MarkFlagRequired("address")
	reportCmd.Flags().StringVar(&projectName, "project-name", "", "Project name for the report cover. Defaults to a name derived from the location.")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path. If unset, a path under report.output_dir is derived from the report ID.")
	reportCmd.Flags().StringVarP(&format, "format", "f", "", "Export format ('pdf' or 'json'). Defaults to report.default_format.")

	return reportCmd
}

// runReport contains the core, testable logic for generating a report.
func runReport(
	ctx context.Context,
	logger *zap.Logger,
	cfg *config.Config,
	address, projectName, outputPath, format string,
	provider storeProvider,
	llm schemas.LLMClient,
	geocoder schemas.Geocoder,
) error {
	logger.Info("Starting report generation", zap.String("address", address))

	storeService, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := feasibility.NewService(llm, geocoder, storeService, logger)
	projectReport, err := svc.GenerateReport(ctx, address, projectName)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	composed, err := report.Compose(projectReport)
	if err != nil {
		return fmt.Errorf("report composition failed: %w", err)
	}

	if format == "" {
		format = cfg.Report.DefaultFormat
	}
	if outputPath == "" {
		if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outputPath = filepath.Join(cfg.Report.OutputDir, projectReport.ID+"."+format)
	}

	exporter, err := report.NewExporter(format, outputPath)
	if err != nil {
		return err
	}
	defer exporter.Close()

	if err := exporter.Export(composed); err != nil {
		return err
	}

	logger.Info("Report exported",
		zap.String("report_id", projectReport.ID),
		zap.String("format", format),
		zap.String("output", outputPath),
		zap.Float64("overall_score", projectReport.Sustainability.Overall),
	)
	return nil
}
