// File: internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
)

// InMemoryStore provides a fast, ephemeral implementation of the Store
// interface. It's great for testing, local demos, or situations where a
// MongoDB deployment isn't available. Vector search falls back to exact
// cosine similarity over the stored embeddings.
type InMemoryStore struct {
	listings map[string]schemas.Listing
	reports  map[string]schemas.ProjectReport
	mu       sync.RWMutex
	log      *zap.Logger
}

// Ensures InMemoryStore correctly implements the Store interface at compile time.
var _ schemas.Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new, empty in-memory store.
func NewInMemoryStore(logger *zap.Logger) *InMemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryStore{
		listings: make(map[string]schemas.Listing),
		reports:  make(map[string]schemas.ProjectReport),
		log:      logger.Named("store.memory"),
	}
}

// SaveListing stores a listing. An existing listing with the same ID is
// overwritten.
func (s *InMemoryStore) SaveListing(ctx context.Context, listing *schemas.Listing) error {
	if listing.ID == "" {
		return fmt.Errorf("listing ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[listing.ID] = *listing
	s.log.Debug("Listing saved", zap.String("id", listing.ID))
	return nil
}

// GetListing retrieves a listing by its ID.
func (s *InMemoryStore) GetListing(ctx context.Context, id string) (*schemas.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing '%s': %w", id, ErrNotFound)
	}
	return &listing, nil
}

// SearchListings filters the stored listings by keyword, price ceiling and
// bedroom floor. Results are sorted newest first for stable ordering.
func (s *InMemoryStore) SearchListings(ctx context.Context, filter schemas.ListingFilter) ([]schemas.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(filter.Query)
	var results []schemas.Listing
	for _, l := range s.listings {
		if query != "" && !matchesQuery(l, query) {
			continue
		}
		if filter.MaxPrice > 0 && l.Price > filter.MaxPrice {
			continue
		}
		if filter.MinBedrooms > 0 && l.Bedrooms < filter.MinBedrooms {
			continue
		}
		results = append(results, l)
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

func matchesQuery(l schemas.Listing, query string) bool {
	return strings.Contains(strings.ToLower(l.Title), query) ||
		strings.Contains(strings.ToLower(l.Description), query) ||
		strings.Contains(strings.ToLower(l.Address), query)
}

// VectorSearch ranks stored listings by cosine similarity against the query
// embedding and drops candidates below the minimum score.
func (s *InMemoryStore) VectorSearch(ctx context.Context, embedding []float32, limit int, minScore float64) ([]schemas.ScoredListing, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []schemas.ScoredListing
	for _, l := range s.listings {
		if len(l.Embedding) != len(embedding) {
			continue
		}
		score := cosineSimilarity(embedding, l.Embedding)
		if score < minScore {
			continue
		}
		l.Embedding = nil
		results = append(results, schemas.ScoredListing{Listing: l, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Listing.ID < results[j].Listing.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SaveReport stores a project report. An existing report with the same ID is
// overwritten.
func (s *InMemoryStore) SaveReport(ctx context.Context, report *schemas.ProjectReport) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = *report
	s.log.Debug("Report saved", zap.String("id", report.ID))
	return nil
}

// GetReport retrieves a project report by its ID.
func (s *InMemoryStore) GetReport(ctx context.Context, id string) (*schemas.ProjectReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("report '%s': %w", id, ErrNotFound)
	}
	return &report, nil
}
