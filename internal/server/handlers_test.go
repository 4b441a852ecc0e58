package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/appraisal"
	"github.com/hverdane/ecoestate/internal/config"
	"github.com/hverdane/ecoestate/internal/events"
	"github.com/hverdane/ecoestate/internal/feasibility"
	"github.com/hverdane/ecoestate/internal/search"
	"github.com/hverdane/ecoestate/internal/store"
)

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

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, address string) (*schemas.Location, error) {
	return &schemas.Location{City: "Valencia", Country: "Spain", Latitude: 39.4699, Longitude: -0.3763}, nil
}

type testEnv struct {
	server *httptest.Server
	store  *store.InMemoryStore
}

func newTestEnv(t *testing.T, llm schemas.LLMClient) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	st := store.NewInMemoryStore(logger)

	searchCfg := config.SearchConfig{Limit: 10, NumCandidates: 150, MinScore: 0.5}
	searchSvc := search.NewService(st, stubEmbedder{}, searchCfg, logger)
	appraisalSvc := appraisal.NewService(llm, st, logger)
	eventsSvc := events.NewService(llm, logger)
	feasibilitySvc := feasibility.NewService(llm, stubGeocoder{}, st, logger)

	handlers := NewHandlers(st, searchSvc, appraisalSvc, eventsSvc, feasibilitySvc, logger)

	r := chi.NewRouter()
	r.Get("/healthz", handlers.HandleHealthCheck)
	r.Route("/api", handlers.RegisterRoutes)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: st}
}

func happyLLM() *tierLLM {
	return &tierLLM{byTier: map[schemas.ModelTier]string{
		schemas.TierPowerful: testAssessmentJSON,
		schemas.TierFast:     testPolicyJSON,
	}}
}

func (e *testEnv) postJSON(t *testing.T, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, data
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, data
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	resp, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestCreateAndGetListing(t *testing.T) {
	env := newTestEnv(t, happyLLM())

	resp, body := env.postJSON(t, "/api/listings", `{"title": "Coastal Villa", "address": "Valencia, Spain", "price": 450000}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created schemas.Listing
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID, "server assigns an ID")
	assert.False(t, created.CreatedAt.IsZero())

	resp, body = env.get(t, "/api/listings/"+created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched schemas.Listing
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "Coastal Villa", fetched.Title)
}

func TestCreateListing_RequiresTitle(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	resp, _ := env.postJSON(t, "/api/listings", `{"price": 100}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListListings(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	env.postJSON(t, "/api/listings", `{"title": "Coastal Villa"}`)
	env.postJSON(t, "/api/listings", `{"title": "City Apartment"}`)

	resp, body := env.get(t, "/api/listings")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Count    int               `json:"count"`
		Listings []schemas.Listing `json:"listings"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 2, out.Count)

	resp, body = env.get(t, "/api/listings?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 1, out.Count)
}

func TestGetListing_NotFound(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	resp, _ := env.get(t, "/api/listings/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKeywordSearch(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	env.postJSON(t, "/api/listings", `{"title": "Coastal Villa", "price": 450000, "bedrooms": 4}`)
	env.postJSON(t, "/api/listings", `{"title": "City Apartment", "price": 220000, "bedrooms": 2}`)

	resp, body := env.get(t, "/api/search?q=coastal&max_price=500000")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Count    int               `json:"count"`
		Listings []schemas.Listing `json:"listings"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Coastal Villa", out.Listings[0].Title)
}

func TestKeywordSearch_BadParams(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	resp, _ := env.get(t, "/api/search?max_price=lots")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSemanticSearch(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	env.postJSON(t, "/api/listings", `{"title": "Solar Farm Plot"}`)

	resp, body := env.postJSON(t, "/api/search/semantic", `{"query": "land for solar panels"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		Count   int                     `json:"count"`
		Results []schemas.ScoredListing `json:"results"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Solar Farm Plot", out.Results[0].Listing.Title)
	assert.InDelta(t, 1.0, out.Results[0].Score, 1e-9)
}

func TestSemanticSearch_RequiresQuery(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	resp, _ := env.postJSON(t, "/api/search/semantic", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAppraise(t *testing.T) {
	llm := happyLLM()
	llm.byTier[schemas.TierPowerful] = `{
		"estimated_value": 465000, "value_low": 430000, "value_high": 495000,
		"currency": "EUR", "confidence": 0.82
	}`
	env := newTestEnv(t, llm)

	_, body := env.postJSON(t, "/api/listings", `{"title": "Coastal Villa", "price": 450000}`)
	var created schemas.Listing
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body := env.postJSON(t, "/api/appraisals", fmt.Sprintf(`{"listing_id": %q}`, created.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result schemas.AppraisalResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, created.ID, result.ListingID)
	assert.Equal(t, 465000.0, result.EstimatedValue)
}

func TestAppraise_UnknownListing(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	resp, _ := env.postJSON(t, "/api/appraisals", `{"listing_id": "missing"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDiscoverEvents(t *testing.T) {
	llm := happyLLM()
	llm.byTier[schemas.TierFast] = `{"events": [{"name": "Fallas Festival", "category": "culture"}]}`
	env := newTestEnv(t, llm)

	resp, body := env.postJSON(t, "/api/events", `{"city": "Valencia", "country": "Spain"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		Count  int                  `json:"count"`
		Events []schemas.LocalEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Fallas Festival", out.Events[0].Name)
}

func TestGenerateGetAndExportReport(t *testing.T) {
	env := newTestEnv(t, happyLLM())

	resp, body := env.postJSON(t, "/api/reports", `{"address": "Valencia, Spain"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created schemas.ProjectReport
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	assert.InDelta(t, 7.1, created.Sustainability.Overall, 1e-9)

	resp, body = env.get(t, "/api/reports/"+created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched schemas.ProjectReport
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	t.Run("json export", func(t *testing.T) {
		resp, body := env.get(t, "/api/reports/"+created.ID+"/export?format=json")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "Feasibility Study: Valencia")
	})

	t.Run("pdf export", func(t *testing.T) {
		resp, body := env.get(t, "/api/reports/"+created.ID+"/export?format=pdf")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(body, []byte("%PDF")), "response is a PDF document")
	})

	t.Run("unsupported format", func(t *testing.T) {
		resp, _ := env.get(t, "/api/reports/"+created.ID+"/export?format=docx")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGenerateReport_RequiresAddress(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	resp, _ := env.postJSON(t, "/api/reports", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateReport_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, &tierLLM{err: fmt.Errorf("model overloaded")})
	resp, _ := env.postJSON(t, "/api/reports", `{"address": "Valencia, Spain"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestExportReport_NotFound(t *testing.T) {
	env := newTestEnv(t, happyLLM())
	resp, _ := env.get(t, "/api/reports/missing/export")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
