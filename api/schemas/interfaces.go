// File: api/schemas/interfaces.go
package schemas

import (
	"context"
)

// -- LLM Client Schemas & Interface --

// ModelTier selects a large language model based on a preference for speed
// versus advanced capabilities.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, potentially less capable model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable, potentially slower model.
)

// GenerationOptions controls the text generation process of the LLM.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, forces the model to output valid JSON.
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
}

// GenerationRequest encapsulates a complete request to the LLM, including the
// system and user prompts, the desired model tier, and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient abstracts a text-generation provider (Gemini, OpenAI).
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// EmbeddingClient abstracts an embedding provider used for semantic search.
type EmbeddingClient interface {
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// -- Persistence Interface --

// Store defines the persistence contract consumed by services and commands.
// The concrete implementation is backed by MongoDB; the interface exists so
// handlers and orchestrators can be tested against mocks.
type Store interface {
	SaveListing(ctx context.Context, listing *Listing) error
	GetListing(ctx context.Context, id string) (*Listing, error)
	SearchListings(ctx context.Context, filter ListingFilter) ([]Listing, error)
	// VectorSearch runs an Atlas $vectorSearch aggregation over listing
	// embeddings and filters the candidates by minimum relevance score.
	VectorSearch(ctx context.Context, embedding []float32, limit int, minScore float64) ([]ScoredListing, error)
	SaveReport(ctx context.Context, report *ProjectReport) error
	GetReport(ctx context.Context, id string) (*ProjectReport, error)
}

// -- Geocoding Interface --

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}
