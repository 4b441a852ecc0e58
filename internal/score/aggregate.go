// File: internal/score/aggregate.go
package score

import (
	"errors"
	"fmt"
	"math"

	"github.com/hverdane/ecoestate/api/schemas"
)

var (
	// ErrMissingCategory indicates a required sustainability category was
	// absent from either the score map or the weight map. This is malformed
	// upstream data and is propagated to the caller, never recovered locally.
	ErrMissingCategory = errors.New("missing category data")

	// ErrOutOfRangeScore indicates a raw score outside [0,10]. Scores are
	// rejected rather than clamped; no clamping behavior exists anywhere in
	// the pipeline.
	ErrOutOfRangeScore = errors.New("raw score out of range")
)

// ComputeWeightedScore multiplies a raw score by its weight and rounds the
// product to one decimal place. Used both for the aggregate and for the
// per-category display bars.
func ComputeWeightedScore(raw, weight float64) float64 {
	return round1(raw * weight)
}

// ComputeOverallScore combines per-category raw scores and weights into the
// single overall sustainability score.
//
// The score and weight maps must share the exact key set of the five fixed
// categories; a category present in one but not the other fails with
// ErrMissingCategory. Accumulation uses full float64 precision and only the
// final sum is rounded, so per-category rounding error never compounds.
//
// No normalization by the sum of weights is performed. If the supplied
// weights do not sum to 1.0 the overall score can land outside the nominal
// [0,10] range; that is accepted as-is.
func ComputeOverallScore(scores map[schemas.Category]schemas.CategoryScore, weights map[schemas.Category]schemas.CategoryWeight) (float64, error) {
	if err := validateCategories(scores, weights); err != nil {
		return 0, err
	}

	var total float64
	for _, cat := range schemas.CategoryOrder {
		cs := scores[cat]
		if cs.Raw < 0 || cs.Raw > 10 {
			return 0, fmt.Errorf("%w: category %q has raw score %.2f", ErrOutOfRangeScore, cat, cs.Raw)
		}
		total += cs.Raw * weights[cat].Weight
	}
	return round1(total), nil
}

// Recompute derives the overall score in place, replacing whatever overall
// value upstream supplied. The composer never trusts a stored weighted score.
func Recompute(s *schemas.SustainabilityScore) error {
	overall, err := ComputeOverallScore(s.Scores, s.Weights)
	if err != nil {
		return err
	}
	s.Overall = overall
	return nil
}

func validateCategories(scores map[schemas.Category]schemas.CategoryScore, weights map[schemas.Category]schemas.CategoryWeight) error {
	for _, cat := range schemas.CategoryOrder {
		if _, ok := scores[cat]; !ok {
			return fmt.Errorf("%w: %q absent from score map", ErrMissingCategory, cat)
		}
		if _, ok := weights[cat]; !ok {
			return fmt.Errorf("%w: %q absent from weight map", ErrMissingCategory, cat)
		}
	}
	for cat := range scores {
		if !cat.Valid() {
			return fmt.Errorf("%w: unknown category %q in score map", ErrMissingCategory, cat)
		}
	}
	for cat := range weights {
		if !cat.Valid() {
			return fmt.Errorf("%w: unknown category %q in weight map", ErrMissingCategory, cat)
		}
	}
	return nil
}

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
