package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hverdane/ecoestate/api/schemas"
)

// -- Test Fixtures --

// fixtureScores returns the end-to-end scoring fixture used across the suite:
// overall = 8.0*0.3 + 6.0*0.2 + 7.0*0.2 + 9.0*0.15 + 5.0*0.15 = 7.1.
func fixtureScores() (map[schemas.Category]schemas.CategoryScore, map[schemas.Category]schemas.CategoryWeight) {
	scores := map[schemas.Category]schemas.CategoryScore{
		schemas.CategoryClimate:      {Raw: 8.0},
		schemas.CategoryAirQuality:   {Raw: 6.0},
		schemas.CategoryDisasterRisk: {Raw: 7.0},
		schemas.CategoryBiodiversity: {Raw: 9.0},
		schemas.CategoryRenewables:   {Raw: 5.0},
	}
	weights := map[schemas.Category]schemas.CategoryWeight{
		schemas.CategoryClimate:      {Weight: 0.3},
		schemas.CategoryAirQuality:   {Weight: 0.2},
		schemas.CategoryDisasterRisk: {Weight: 0.2},
		schemas.CategoryBiodiversity: {Weight: 0.15},
		schemas.CategoryRenewables:   {Weight: 0.15},
	}
	return scores, weights
}

// -- ComputeWeightedScore --

func TestComputeWeightedScore(t *testing.T) {
	tests := []struct {
		name   string
		raw    float64
		weight float64
		want   float64
	}{
		{"quarter weight", 8.0, 0.25, 2.0},
		{"zero weight yields zero", 8.0, 0.0, 0.0},
		{"zero raw", 0.0, 0.3, 0.0},
		{"rounds to one decimal", 7.77, 0.33, 2.6}, // 2.5641 -> 2.6
		{"half rounds away from zero", 5.0, 0.25, 1.3},
		{"full weight passes through", 9.4, 1.0, 9.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeWeightedScore(tt.raw, tt.weight), 1e-9)
		})
	}
}

// -- ComputeOverallScore --

func TestComputeOverallScore_Fixture(t *testing.T) {
	scores, weights := fixtureScores()

	overall, err := ComputeOverallScore(scores, weights)
	require.NoError(t, err)
	assert.InDelta(t, 7.1, overall, 1e-9)
	assert.Equal(t, BandPartiallySustain, Classify(overall, 10))
}

func TestComputeOverallScore_Deterministic(t *testing.T) {
	scores, weights := fixtureScores()

	first, err := ComputeOverallScore(scores, weights)
	require.NoError(t, err)

	// Re-running with identical inputs must be idempotent: no hidden state,
	// no randomness.
	for i := 0; i < 50; i++ {
		again, err := ComputeOverallScore(scores, weights)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeOverallScore_InRangeForUnitWeights(t *testing.T) {
	// For any weight set summing to 1.0 and raw scores in [0,10], the overall
	// score stays in [0,10].
	cases := [][5]float64{
		{0.2, 0.2, 0.2, 0.2, 0.2},
		{1.0, 0, 0, 0, 0},
		{0.5, 0.3, 0.1, 0.05, 0.05},
	}
	raws := [][5]float64{
		{0, 0, 0, 0, 0},
		{10, 10, 10, 10, 10},
		{3.3, 9.9, 0.1, 5.5, 7.2},
	}

	for _, ws := range cases {
		for _, rs := range raws {
			scores := map[schemas.Category]schemas.CategoryScore{}
			weights := map[schemas.Category]schemas.CategoryWeight{}
			for i, cat := range schemas.CategoryOrder {
				scores[cat] = schemas.CategoryScore{Raw: rs[i]}
				weights[cat] = schemas.CategoryWeight{Weight: ws[i]}
			}
			overall, err := ComputeOverallScore(scores, weights)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, overall, 0.0)
			assert.LessOrEqual(t, overall, 10.0)
		}
	}
}

func TestComputeOverallScore_NoRenormalization(t *testing.T) {
	// Weights summing past 1.0 are used as supplied; the result is allowed to
	// exceed the nominal range.
	scores := map[schemas.Category]schemas.CategoryScore{}
	weights := map[schemas.Category]schemas.CategoryWeight{}
	for _, cat := range schemas.CategoryOrder {
		scores[cat] = schemas.CategoryScore{Raw: 10}
		weights[cat] = schemas.CategoryWeight{Weight: 0.5}
	}

	overall, err := ComputeOverallScore(scores, weights)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, overall, 1e-9)
}

func TestComputeOverallScore_MissingCategory(t *testing.T) {
	scores, weights := fixtureScores()
	delete(scores, schemas.CategoryBiodiversity)

	_, err := ComputeOverallScore(scores, weights)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCategory)
	assert.Contains(t, err.Error(), string(schemas.CategoryBiodiversity))

	// Same failure when the weight map is the incomplete side.
	scores, weights = fixtureScores()
	delete(weights, schemas.CategoryClimate)
	_, err = ComputeOverallScore(scores, weights)
	assert.ErrorIs(t, err, ErrMissingCategory)
}

func TestComputeOverallScore_UnknownCategoryRejected(t *testing.T) {
	scores, weights := fixtureScores()
	scores["Walkability"] = schemas.CategoryScore{Raw: 5}

	_, err := ComputeOverallScore(scores, weights)
	assert.ErrorIs(t, err, ErrMissingCategory)
}

func TestComputeOverallScore_OutOfRangeRejected(t *testing.T) {
	for _, bad := range []float64{-0.1, 10.1, 42} {
		scores, weights := fixtureScores()
		scores[schemas.CategoryAirQuality] = schemas.CategoryScore{Raw: bad}

		_, err := ComputeOverallScore(scores, weights)
		assert.ErrorIs(t, err, ErrOutOfRangeScore, "raw=%v must be rejected, not clamped", bad)
	}
}

func TestRecompute_ReplacesUpstreamOverall(t *testing.T) {
	scores, weights := fixtureScores()
	s := schemas.SustainabilityScore{
		Scores:  scores,
		Weights: weights,
		Overall: 9.9, // stale upstream value, must not be trusted
	}

	require.NoError(t, Recompute(&s))
	assert.InDelta(t, 7.1, s.Overall, 1e-9)
}

// -- Classification Bands --

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		max   float64
		want  Band
	}{
		{"top of range", 10, 10, BandSustainable},
		{"exact sustainable boundary", 7.5, 10, BandSustainable},
		{"just below sustainable", 7.499, 10, BandPartiallySustain},
		{"exact partial boundary", 5.0, 10, BandPartiallySustain},
		{"just below partial", 4.999, 10, BandPartiallyInfeasible},
		{"exact infeasible boundary", 2.5, 10, BandPartiallyInfeasible},
		{"just below infeasible", 2.499, 10, BandNotFeasible},
		{"zero", 0, 10, BandNotFeasible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.score, tt.max))
		})
	}
}

func TestClassify_WeightedAgainstOwnMax(t *testing.T) {
	// A weighted score of exactly weight*7.5 sits on the closed lower bound of
	// the Sustainable tier against a max of weight*10.
	weight := 0.2
	max := weight * 10

	assert.Equal(t, BandSustainable, Classify(weight*7.5, max))
	assert.Equal(t, BandPartiallySustain, Classify(weight*7.499, max))
}

func TestClassify_ZeroWeightCategory(t *testing.T) {
	// weight = 0 means max = 0: displayed as "0.0/0.0", classified at the
	// bottom tier, and never a division error.
	assert.Equal(t, BandNotFeasible, Classify(0, 0))
	assert.Zero(t, Percent(0, 0))
	assert.False(t, math.IsNaN(Percent(0, 0)))
}

func TestPercent(t *testing.T) {
	assert.InDelta(t, 75.0, Percent(7.5, 10), 1e-9)
	assert.InDelta(t, 100.0, Percent(2.0, 2.0), 1e-9)
}
