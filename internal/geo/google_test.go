package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/internal/config"
)

const valenciaResponse = `{
	"status": "OK",
	"results": [{
		"formatted_address": "Valencia, Spain",
		"address_components": [
			{"long_name": "Valencia", "types": ["locality", "political"]},
			{"long_name": "Spain", "types": ["country", "political"]}
		],
		"geometry": {"location": {"lat": 39.4699, "lng": -0.3763}}
	}]
}`

func setupGeocoder(t *testing.T, handler http.HandlerFunc) *GoogleGeocoder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewGoogleGeocoder(config.MapsConfig{
		APIKey:        "test-key",
		Endpoint:      server.URL,
		Timeout:       5 * time.Second,
		RatePerSecond: 100,
	}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestGoogleGeocoder_RequiresAPIKey(t *testing.T) {
	_, err := NewGoogleGeocoder(config.MapsConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestGoogleGeocoder_Success(t *testing.T) {
	g := setupGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Valencia, Spain", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, valenciaResponse)
	})

	loc, err := g.Geocode(context.Background(), "Valencia, Spain")
	require.NoError(t, err)
	assert.Equal(t, "Valencia", loc.City)
	assert.Equal(t, "Spain", loc.Country)
	assert.InDelta(t, 39.4699, loc.Latitude, 1e-6)
	assert.InDelta(t, -0.3763, loc.Longitude, 1e-6)
}

func TestGoogleGeocoder_ZeroResults(t *testing.T) {
	var calls atomic.Int32
	g := setupGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
	})

	_, err := g.Geocode(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, int32(1), calls.Load(), "zero results is permanent, no retry")
}

func TestGoogleGeocoder_RetriesQuotaExceeded(t *testing.T) {
	var calls atomic.Int32
	g := setupGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			fmt.Fprint(w, `{"status":"OVER_QUERY_LIMIT"}`)
			return
		}
		fmt.Fprint(w, valenciaResponse)
	})

	loc, err := g.Geocode(context.Background(), "Valencia, Spain")
	require.NoError(t, err)
	assert.Equal(t, "Valencia", loc.City)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGoogleGeocoder_DeniedIsPermanent(t *testing.T) {
	var calls atomic.Int32
	g := setupGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`)
	})

	_, err := g.Geocode(context.Background(), "Valencia, Spain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGoogleGeocoder_EmptyAddress(t *testing.T) {
	g := setupGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty address")
	})

	_, err := g.Geocode(context.Background(), "")
	assert.Error(t, err)
}

func TestGoogleGeocoder_FallsBackToFormattedAddress(t *testing.T) {
	g := setupGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status": "OK",
			"results": [{
				"formatted_address": "La Albufera, Spain",
				"address_components": [],
				"geometry": {"location": {"lat": 39.33, "lng": -0.35}}
			}]
		}`)
	})

	loc, err := g.Geocode(context.Background(), "La Albufera")
	require.NoError(t, err)
	assert.Equal(t, "La Albufera, Spain", loc.City)
}
