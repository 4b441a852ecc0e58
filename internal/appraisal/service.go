// File: internal/appraisal/service.go
package appraisal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/llmutil"
)

const systemPrompt = `You are an expert real-estate appraiser. Estimate the market value of the
property described by the user. Respond ONLY with a JSON object matching this schema:
{
  "estimated_value": <number>,
  "value_low": <number>,
  "value_high": <number>,
  "currency": "<ISO 4217 code>",
  "confidence": <number between 0 and 1>,
  "factors": ["<short factor>", ...],
  "rationale": "<two or three sentences>"
}`

// Service produces AI-generated valuations for stored listings.
type Service struct {
	llm    schemas.LLMClient
	store  schemas.Store
	logger *zap.Logger
}

// NewService wires up the appraisal service.
func NewService(llm schemas.LLMClient, store schemas.Store, logger *zap.Logger) *Service {
	return &Service{
		llm:    llm,
		store:  store,
		logger: logger.Named("appraisal"),
	}
}

// Appraise fetches the listing, asks the powerful-tier model for a valuation
// and validates the structured response.
func (s *Service) Appraise(ctx context.Context, listingID string) (*schemas.AppraisalResult, error) {
	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   describeListing(listing),
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     0.2,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("appraisal generation failed for listing '%s': %w", listingID, err)
	}

	result, err := llmutil.ParseJSONResponse[schemas.AppraisalResult](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse appraisal response: %w", err)
	}
	result.ListingID = listing.ID

	if err := validate(result); err != nil {
		return nil, fmt.Errorf("appraisal response failed validation: %w", err)
	}

	s.logger.Info("Appraisal complete",
		zap.String("listing_id", listing.ID),
		zap.Float64("estimated_value", result.EstimatedValue),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

func describeListing(l *schemas.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", l.Title)
	fmt.Fprintf(&b, "Address: %s\n", l.Address)
	fmt.Fprintf(&b, "Asking price: %.0f\n", l.Price)
	fmt.Fprintf(&b, "Bedrooms: %d, Bathrooms: %d, Area: %.0f sqm\n", l.Bedrooms, l.Bathrooms, l.AreaSqM)
	if len(l.Amenities) > 0 {
		fmt.Fprintf(&b, "Amenities: %s\n", strings.Join(l.Amenities, ", "))
	}
	if l.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", l.Description)
	}
	return b.String()
}

func validate(r *schemas.AppraisalResult) error {
	if r.EstimatedValue <= 0 {
		return fmt.Errorf("estimated_value must be positive, got %.2f", r.EstimatedValue)
	}
	if r.ValueLow > r.ValueHigh {
		return fmt.Errorf("value_low %.2f exceeds value_high %.2f", r.ValueLow, r.ValueHigh)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0, 1], got %.2f", r.Confidence)
	}
	return nil
}
