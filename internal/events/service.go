// File: internal/events/service.go
package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/llmutil"
)

const systemPrompt = `You are a local guide. List notable upcoming or recurring events near the
location the user names. Respond ONLY with a JSON object matching this schema:
{
  "events": [
    {
      "name": "<event name>",
      "date": "<date or recurrence, free text>",
      "venue": "<venue>",
      "category": "<music|market|sport|culture|food|other>",
      "description": "<one sentence>"
    }
  ]
}
Return an empty events array if you know of none. Never invent specific dates you are unsure of.`

// eventsEnvelope matches the JSON object the model is instructed to return.
type eventsEnvelope struct {
	Events []schemas.LocalEvent `json:"events"`
}

// Service discovers local events around a place using the fast model tier.
// Event discovery is advisory content, so speed is preferred over depth.
type Service struct {
	llm    schemas.LLMClient
	logger *zap.Logger
}

// NewService wires up the events service.
func NewService(llm schemas.LLMClient, logger *zap.Logger) *Service {
	return &Service{
		llm:    llm,
		logger: logger.Named("events"),
	}
}

// Discover asks the model for events near the given location.
func (s *Service) Discover(ctx context.Context, loc schemas.Location) ([]schemas.LocalEvent, error) {
	if loc.City == "" {
		return nil, fmt.Errorf("location city is required")
	}

	place := loc.City
	if loc.Country != "" {
		place += ", " + loc.Country
	}

	raw, err := s.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   fmt.Sprintf("List events near %s.", place),
		Tier:         schemas.TierFast,
		Options: schemas.GenerationOptions{
			Temperature:     0.4,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("event discovery failed for %q: %w", place, err)
	}

	envelope, err := llmutil.ParseJSONResponse[eventsEnvelope](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events response: %w", err)
	}

	// Drop entries without a name; the model occasionally pads the list.
	valid := envelope.Events[:0]
	for _, e := range envelope.Events {
		if e.Name != "" {
			valid = append(valid, e)
		}
	}

	s.logger.Info("Event discovery complete", zap.String("place", place), zap.Int("events", len(valid)))
	return valid, nil
}
