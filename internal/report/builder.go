// File: internal/report/builder.go
package report

import (
	"fmt"
	"time"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/score"
)

// Payload is the loosely-typed shape of the structured sustainability response
// returned by the LLM. Category keys arrive as free-form strings and the
// payload may carry a weighted_score per category; both are validated and
// normalized by Build before anything reaches rendering.
type Payload struct {
	ProjectName    string                        `json:"project_name"`
	Sustainability PayloadScores                 `json:"sustainability_score"`
	Feasibility    schemas.FeasibilityReport     `json:"feasibility_report"`
	Risks          map[string]schemas.RiskEntry  `json:"risk_analysis"`
	Policy         schemas.PolicyCompliance      `json:"policy_compliance"`
	Funding        []schemas.FundingOpportunity  `json:"funding_opportunities"`
}

// PayloadScores mirrors the provider's score block.
type PayloadScores struct {
	Scores  map[string]PayloadCategoryScore  `json:"scores"`
	Weights map[string]PayloadCategoryWeight `json:"weights"`
}

// PayloadCategoryScore is one category's raw assessment as supplied upstream.
// WeightedScore is accepted on the wire but deliberately discarded: weighted
// values are always recomputed from raw*weight.
type PayloadCategoryScore struct {
	Raw           float64            `json:"raw_score"`
	WeightedScore float64            `json:"weighted_score,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

// PayloadCategoryWeight is one category's weight and justification.
type PayloadCategoryWeight struct {
	Weight        float64 `json:"weight"`
	Justification string  `json:"justification,omitempty"`
}

// Build validates a raw provider payload into an immutable ProjectReport.
//
// It fails fast with score.ErrMissingCategory when any of the five fixed
// categories is absent from either map, and with score.ErrOutOfRangeScore for
// raw scores outside [0,10]. A payload that fails here is malformed upstream
// data; the caller surfaces an error state rather than rendering a
// partially-valid report. Optional sections are normalized to empty values so
// the composer can render explicit placeholders.
func Build(p *Payload, id string, loc schemas.Location, now time.Time) (*schemas.ProjectReport, error) {
	scores := make(map[schemas.Category]schemas.CategoryScore, len(p.Sustainability.Scores))
	for name, cs := range p.Sustainability.Scores {
		cat := schemas.Category(name)
		if !cat.Valid() {
			return nil, fmt.Errorf("%w: provider returned unknown category %q", score.ErrMissingCategory, name)
		}
		scores[cat] = schemas.CategoryScore{Raw: cs.Raw, Metrics: cs.Metrics}
	}

	weights := make(map[schemas.Category]schemas.CategoryWeight, len(p.Sustainability.Weights))
	for name, cw := range p.Sustainability.Weights {
		cat := schemas.Category(name)
		if !cat.Valid() {
			return nil, fmt.Errorf("%w: provider returned unknown weight category %q", score.ErrMissingCategory, name)
		}
		weights[cat] = schemas.CategoryWeight{Weight: cw.Weight, Justification: cw.Justification}
	}

	sustainability := schemas.SustainabilityScore{Scores: scores, Weights: weights}
	if err := score.Recompute(&sustainability); err != nil {
		return nil, err
	}

	projectName := p.ProjectName
	if projectName == "" {
		projectName = fmt.Sprintf("Feasibility Study: %s", loc.City)
	}

	r := &schemas.ProjectReport{
		ID:             id,
		ProjectName:    projectName,
		Location:       loc,
		Sustainability: sustainability,
		Feasibility:    p.Feasibility,
		Risks:          p.Risks,
		Policy:         p.Policy,
		Funding:        p.Funding,
		LastUpdated:    now.UTC(),
	}
	return r, nil
}
