package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/config"
	"github.com/hverdane/ecoestate/internal/store"
)

// mockStoreProvider hands out a shared in-memory store so tests can inspect
// persisted documents after a command runs.
type mockStoreProvider struct {
	store *store.InMemoryStore
}

func newMockStoreProvider() *mockStoreProvider {
	return &mockStoreProvider{store: store.NewInMemoryStore(zap.NewNop())}
}

func (p *mockStoreProvider) Create(ctx context.Context, cfg *config.Config) (schemas.Store, func(), error) {
	return p.store, func() {}, nil
}

const testAssessmentJSON = `{
	"sustainability_score": {
		"scores": {
			"Climate & Weather Data": {"raw_score": 8},
			"Air Quality & Pollution": {"raw_score": 6},
			"Disaster Risk & Hazard Data": {"raw_score": 7},
			"Biodiversity & Ecosystem Health": {"raw_score": 9},
			"Renewable Energy & Infrastructure Feasibility": {"raw_score": 5}
		},
		"weights": {
			"Climate & Weather Data": {"weight": 0.3},
			"Air Quality & Pollution": {"weight": 0.2},
			"Disaster Risk & Hazard Data": {"weight": 0.2},
			"Biodiversity & Ecosystem Health": {"weight": 0.15},
			"Renewable Energy & Infrastructure Feasibility": {"weight": 0.15}
		}
	},
	"feasibility_report": {"status": "Approved for development"}
}`

const testPolicyJSON = `{"policy_compliance": {}, "funding_opportunities": []}`

// tierLLM answers with a canned response per model tier.
type tierLLM struct {
	byTier map[schemas.ModelTier]string
	err    error
}

func (l *tierLLM) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	return l.byTier[req.Tier], nil
}

func (l *tierLLM) Close() error { return nil }

func happyLLM() *tierLLM {
	return &tierLLM{byTier: map[schemas.ModelTier]string{
		schemas.TierPowerful: testAssessmentJSON,
		schemas.TierFast:     testPolicyJSON,
	}}
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, address string) (*schemas.Location, error) {
	return &schemas.Location{City: "Valencia", Country: "Spain", Latitude: 39.4699, Longitude: -0.3763}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}
