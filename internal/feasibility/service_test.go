package feasibility

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/score"
	"github.com/hverdane/ecoestate/internal/store"
)

const assessmentJSON = `{
	"sustainability_score": {
		"scores": {
			"Climate & Weather Data": {"raw_score": 8, "weighted_score": 99, "metrics": {"sunshine_hours": 2660}},
			"Air Quality & Pollution": {"raw_score": 6},
			"Disaster Risk & Hazard Data": {"raw_score": 7},
			"Biodiversity & Ecosystem Health": {"raw_score": 9},
			"Renewable Energy & Infrastructure Feasibility": {"raw_score": 5}
		},
		"weights": {
			"Climate & Weather Data": {"weight": 0.3, "justification": "Solar yield dominates viability."},
			"Air Quality & Pollution": {"weight": 0.2},
			"Disaster Risk & Hazard Data": {"weight": 0.2},
			"Biodiversity & Ecosystem Health": {"weight": 0.15},
			"Renewable Energy & Infrastructure Feasibility": {"weight": 0.15}
		}
	},
	"feasibility_report": {
		"status": "Approved for development",
		"key_findings": ["High annual irradiance", "Grid connection within 2km"],
		"recommendations": ["Commission a detailed flood survey"]
	},
	"risk_analysis": {
		"flood_risk": {"value": "moderate", "explanation": "Coastal lowland within a mapped flood zone."}
	}
}`

const policyJSON = `{
	"policy_compliance": {
		"local_regulations": [{"law_name": "Coastal Protection Act", "compliance_status": "review needed", "notes": "Setback rules apply within 500m of the shore."}],
		"international_guidelines": [{"treaty": "EU Taxonomy Climate Delegated Act", "alignment": "aligned"}]
	},
	"funding_opportunities": [
		{"name": "Next Generation EU Green Transition", "amount": "up to 40% of capex"}
	]
}`

// tierLLM answers with a canned response per model tier.
type tierLLM struct {
	byTier map[schemas.ModelTier]string
	errs   map[schemas.ModelTier]error
}

func (l *tierLLM) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := l.errs[req.Tier]; err != nil {
		return "", err
	}
	return l.byTier[req.Tier], nil
}

func (l *tierLLM) Close() error { return nil }

type stubGeocoder struct {
	loc *schemas.Location
	err error
}

func (g *stubGeocoder) Geocode(ctx context.Context, address string) (*schemas.Location, error) {
	return g.loc, g.err
}

func happyLLM() *tierLLM {
	return &tierLLM{byTier: map[schemas.ModelTier]string{
		schemas.TierPowerful: assessmentJSON,
		schemas.TierFast:     policyJSON,
	}}
}

func valenciaGeocoder() *stubGeocoder {
	return &stubGeocoder{loc: &schemas.Location{
		City: "Valencia", Country: "Spain", Latitude: 39.4699, Longitude: -0.3763,
	}}
}

func TestGenerateReport_Success(t *testing.T) {
	st := store.NewInMemoryStore(zaptest.NewLogger(t))
	svc := NewService(happyLLM(), valenciaGeocoder(), st, zaptest.NewLogger(t))

	r, err := svc.GenerateReport(context.Background(), "Valencia, Spain", "")
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Feasibility Study: Valencia", r.ProjectName)
	assert.Equal(t, "Valencia", r.Location.City)
	assert.InDelta(t, 7.1, r.Sustainability.Overall, 1e-9, "overall is recomputed from raw scores and weights")
	assert.Equal(t, "Approved for development", r.Feasibility.Status)
	require.Len(t, r.Policy.LocalRegulations, 1)
	require.Len(t, r.Funding, 1)

	persisted, err := st.GetReport(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, persisted.ID)
}

func TestGenerateReport_CustomProjectName(t *testing.T) {
	svc := NewService(happyLLM(), valenciaGeocoder(), store.NewInMemoryStore(nil), zaptest.NewLogger(t))

	r, err := svc.GenerateReport(context.Background(), "Valencia, Spain", "Albufera Solar Park")
	require.NoError(t, err)
	assert.Equal(t, "Albufera Solar Park", r.ProjectName)
}

func TestGenerateReport_GeocodeFailure(t *testing.T) {
	geocoder := &stubGeocoder{err: fmt.Errorf("quota exceeded")}
	svc := NewService(happyLLM(), geocoder, store.NewInMemoryStore(nil), zaptest.NewLogger(t))

	_, err := svc.GenerateReport(context.Background(), "Valencia, Spain", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to geocode")
}

func TestGenerateReport_AssessmentFailureAbortsRun(t *testing.T) {
	llm := happyLLM()
	llm.errs = map[schemas.ModelTier]error{schemas.TierPowerful: fmt.Errorf("model overloaded")}

	st := store.NewInMemoryStore(zaptest.NewLogger(t))
	svc := NewService(llm, valenciaGeocoder(), st, zaptest.NewLogger(t))

	_, err := svc.GenerateReport(context.Background(), "Valencia, Spain", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sustainability assessment failed")
}

func TestGenerateReport_MissingCategoryRejected(t *testing.T) {
	llm := happyLLM()
	llm.byTier[schemas.TierPowerful] = `{
		"sustainability_score": {
			"scores": {"Climate & Weather Data": {"raw_score": 8}},
			"weights": {"Climate & Weather Data": {"weight": 1.0}}
		}
	}`

	svc := NewService(llm, valenciaGeocoder(), store.NewInMemoryStore(nil), zaptest.NewLogger(t))

	_, err := svc.GenerateReport(context.Background(), "Valencia, Spain", "")
	assert.ErrorIs(t, err, score.ErrMissingCategory)
}

func TestGenerateReport_OutOfRangeScoreRejected(t *testing.T) {
	llm := happyLLM()
	llm.byTier[schemas.TierPowerful] = `{
		"sustainability_score": {
			"scores": {
				"Climate & Weather Data": {"raw_score": 11},
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
		}
	}`

	svc := NewService(llm, valenciaGeocoder(), store.NewInMemoryStore(nil), zaptest.NewLogger(t))

	_, err := svc.GenerateReport(context.Background(), "Valencia, Spain", "")
	assert.ErrorIs(t, err, score.ErrOutOfRangeScore)
}
