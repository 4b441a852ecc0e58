// File: internal/search/service.go
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/config"
)

// Service answers keyword and semantic listing searches. Keyword queries go
// straight to the store; semantic queries embed the free-text query first and
// run a vector search over listing embeddings.
type Service struct {
	store    schemas.Store
	embedder schemas.EmbeddingClient
	cfg      config.SearchConfig
	logger   *zap.Logger
}

// NewService wires up the search service.
func NewService(store schemas.Store, embedder schemas.EmbeddingClient, cfg config.SearchConfig, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.Named("search"),
	}
}

// Keyword runs a plain filtered search over the listings collection.
func (s *Service) Keyword(ctx context.Context, filter schemas.ListingFilter) ([]schemas.Listing, error) {
	if filter.Limit <= 0 || filter.Limit > s.cfg.Limit {
		filter.Limit = s.cfg.Limit
	}
	return s.store.SearchListings(ctx, filter)
}

// Semantic embeds the query text and ranks listings by vector similarity.
// Results below the configured relevance floor are dropped by the store.
func (s *Service) Semantic(ctx context.Context, query string) ([]schemas.ScoredListing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}

	results, err := s.store.VectorSearch(ctx, embedding, s.cfg.Limit, s.cfg.MinScore)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	s.logger.Debug("Semantic search complete",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Float64("min_score", s.cfg.MinScore),
	)
	return results, nil
}

// Index computes and attaches the embedding for a listing, then persists it.
// The embedded text concatenates the fields that matter for discovery.
func (s *Service) Index(ctx context.Context, listing *schemas.Listing) error {
	text := embeddingText(listing)
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed listing '%s': %w", listing.ID, err)
	}
	listing.Embedding = embedding

	if err := s.store.SaveListing(ctx, listing); err != nil {
		return err
	}

	s.logger.Info("Listing indexed", zap.String("id", listing.ID), zap.Int("dimensions", len(embedding)))
	return nil
}

func embeddingText(l *schemas.Listing) string {
	parts := []string{l.Title, l.Description, l.Address}
	if len(l.Amenities) > 0 {
		parts = append(parts, strings.Join(l.Amenities, ", "))
	}
	return strings.Join(parts, "\n")
}
