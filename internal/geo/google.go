// File: internal/geo/google.go
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/config"
)

const defaultGeocodeEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// ErrNoResults is returned when the geocoding API recognizes the request but
// finds no matching place.
var ErrNoResults = errors.New("no geocoding results")

// GoogleGeocoder implements schemas.Geocoder against the Google Maps
// Geocoding API. Outbound requests are throttled with a client-side rate
// limiter to stay inside the API quota.
type GoogleGeocoder struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Ensures GoogleGeocoder correctly implements the Geocoder interface at compile time.
var _ schemas.Geocoder = (*GoogleGeocoder)(nil)

// -- Geocoding API Response Structures (internal to this file) --

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NewGoogleGeocoder initializes the client.
func NewGoogleGeocoder(cfg config.MapsConfig, logger *zap.Logger) (*GoogleGeocoder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Maps API Key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultGeocodeEndpoint
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 10
	}

	return &GoogleGeocoder{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.Named("geocoder.google"),
	}, nil
}

// Geocode resolves a free-text address to coordinates, retrying transient
// failures with exponential backoff.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*schemas.Location, error) {
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second

	var loc *schemas.Location
	operation := func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		result, err := g.fetch(ctx, address)
		if err != nil {
			return err
		}
		loc = result
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return loc, nil
}

func (g *GoogleGeocoder) fetch(ctx context.Context, address string) (*schemas.Location, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn("Network error during geocode request, retrying...", zap.Error(err))
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("geocoding API error: status %d, body: %s", resp.StatusCode, string(body))
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
			return nil, err // Transient errors, retry.
		default:
			return nil, backoff.Permanent(err)
		}
	}

	var payload geocodeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode geocode response: %w", err))
	}

	switch payload.Status {
	case "OK":
		// Fall through to result extraction.
	case "ZERO_RESULTS":
		return nil, backoff.Permanent(fmt.Errorf("address %q: %w", address, ErrNoResults))
	case "OVER_QUERY_LIMIT":
		return nil, fmt.Errorf("geocoding API quota exceeded") // Transient, retry.
	default:
		return nil, backoff.Permanent(fmt.Errorf("geocoding API status %s: %s", payload.Status, payload.ErrorMessage))
	}

	if len(payload.Results) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("address %q: %w", address, ErrNoResults))
	}

	best := payload.Results[0]
	loc := &schemas.Location{
		Latitude:  best.Geometry.Location.Lat,
		Longitude: best.Geometry.Location.Lng,
	}
	for _, comp := range best.AddressComponents {
		for _, typ := range comp.Types {
			switch typ {
			case "locality":
				loc.City = comp.LongName
			case "country":
				loc.Country = comp.LongName
			}
		}
	}
	if loc.City == "" {
		loc.City = best.FormattedAddress
	}

	g.logger.Debug("Address geocoded",
		zap.String("address", address),
		zap.String("city", loc.City),
		zap.Float64("lat", loc.Latitude),
		zap.Float64("lng", loc.Longitude),
	)
	return loc, nil
}
