// File: internal/server/handlers.go
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/appraisal"
	"github.com/hverdane/ecoestate/internal/events"
	"github.com/hverdane/ecoestate/internal/feasibility"
	"github.com/hverdane/ecoestate/internal/report"
	"github.com/hverdane/ecoestate/internal/score"
	"github.com/hverdane/ecoestate/internal/search"
	"github.com/hverdane/ecoestate/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handlers exposes the marketplace and reporting services over HTTP.
type Handlers struct {
	store       schemas.Store
	search      *search.Service
	appraisals  *appraisal.Service
	events      *events.Service
	feasibility *feasibility.Service
	log         *zap.Logger
}

// NewHandlers wires the services into the HTTP layer.
func NewHandlers(
	st schemas.Store,
	searchSvc *search.Service,
	appraisalSvc *appraisal.Service,
	eventsSvc *events.Service,
	feasibilitySvc *feasibility.Service,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		store:       st,
		search:      searchSvc,
		appraisals:  appraisalSvc,
		events:      eventsSvc,
		feasibility: feasibilitySvc,
		log:         logger.Named("handlers"),
	}
}

// RegisterRoutes sets up the API routes. Called by Server with the /api
// prefix already applied.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/listings", h.HandleCreateListing)
	r.Get("/listings", h.HandleListListings)
	r.Get("/listings/{listingID}", h.HandleGetListing)

	r.Get("/search", h.HandleKeywordSearch)
	r.Post("/search/semantic", h.HandleSemanticSearch)

	r.Post("/appraisals", h.HandleAppraise)
	r.Post("/events", h.HandleDiscoverEvents)

	r.Post("/reports", h.HandleGenerateReport)
	r.Get("/reports/{reportID}", h.HandleGetReport)
	r.Get("/reports/{reportID}/export", h.HandleExportReport)
}

// HandleHealthCheck is a simple handler to confirm the server is responsive.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleCreateListing stores a new listing and indexes it for semantic
// search.
func (h *Handlers) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	var listing schemas.Listing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if listing.Title == "" {
		h.respondError(w, http.StatusBadRequest, "Listing title is required.")
		return
	}

	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = time.Now().UTC()
	}

	if err := h.search.Index(r.Context(), &listing); err != nil {
		h.log.Error("Failed to index listing", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to store listing.")
		return
	}

	h.respondJSON(w, http.StatusCreated, listing)
}

// HandleListListings returns stored listings, newest first. An optional limit
// query parameter caps the page size.
func (h *Handlers) HandleListListings(w http.ResponseWriter, r *http.Request) {
	var filter schemas.ListingFilter
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "limit must be an integer.")
			return
		}
		filter.Limit = n
	}

	listings, err := h.search.Keyword(r.Context(), filter)
	if err != nil {
		h.log.Error("Failed to list listings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to list listings.")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"count": len(listings), "listings": listings})
}

// HandleGetListing returns one listing by ID.
func (h *Handlers) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "listingID")
	listing, err := h.store.GetListing(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, fmt.Sprintf("Listing '%s' not found.", id))
			return
		}
		h.log.Error("Failed to fetch listing", zap.String("id", id), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch listing.")
		return
	}
	h.respondJSON(w, http.StatusOK, listing)
}

// HandleKeywordSearch runs a filtered keyword search. Filters arrive as query
// parameters: q, max_price, min_bedrooms, limit.
func (h *Handlers) HandleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := schemas.ListingFilter{Query: q.Get("q")}
	if v := q.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "max_price must be a number.")
			return
		}
		filter.MaxPrice = f
	}
	if v := q.Get("min_bedrooms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "min_bedrooms must be an integer.")
			return
		}
		filter.MinBedrooms = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "limit must be an integer.")
			return
		}
		filter.Limit = n
	}

	results, err := h.search.Keyword(r.Context(), filter)
	if err != nil {
		h.log.Error("Keyword search failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Search failed.")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"count": len(results), "listings": results})
}

// HandleSemanticSearch embeds a free-text query and ranks listings by vector
// similarity.
func (h *Handlers) HandleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "Query is required.")
		return
	}

	results, err := h.search.Semantic(r.Context(), req.Query)
	if err != nil {
		h.log.Error("Semantic search failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Semantic search failed.")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"count": len(results), "results": results})
}

// HandleAppraise generates an AI valuation for a stored listing.
func (h *Handlers) HandleAppraise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID string `json:"listing_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.ListingID == "" {
		h.respondError(w, http.StatusBadRequest, "listing_id is required.")
		return
	}

	result, err := h.appraisals.Appraise(r.Context(), req.ListingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, fmt.Sprintf("Listing '%s' not found.", req.ListingID))
			return
		}
		h.log.Error("Appraisal failed", zap.String("listing_id", req.ListingID), zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "Appraisal generation failed.")
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// HandleDiscoverEvents returns AI-discovered events near a location.
func (h *Handlers) HandleDiscoverEvents(w http.ResponseWriter, r *http.Request) {
	var loc schemas.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if loc.City == "" {
		h.respondError(w, http.StatusBadRequest, "city is required.")
		return
	}

	found, err := h.events.Discover(r.Context(), loc)
	if err != nil {
		h.log.Error("Event discovery failed", zap.String("city", loc.City), zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "Event discovery failed.")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"count": len(found), "events": found})
}

// HandleGenerateReport produces and persists a full feasibility report for an
// address.
func (h *Handlers) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address     string `json:"address"`
		ProjectName string `json:"project_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.Address == "" {
		h.respondError(w, http.StatusBadRequest, "address is required.")
		return
	}

	result, err := h.feasibility.GenerateReport(r.Context(), req.Address, req.ProjectName)
	if err != nil {
		h.log.Error("Report generation failed", zap.String("address", req.Address), zap.Error(err))
		if errors.Is(err, score.ErrMissingCategory) || errors.Is(err, score.ErrOutOfRangeScore) {
			h.respondError(w, http.StatusBadGateway, "The assessment provider returned malformed score data.")
			return
		}
		h.respondError(w, http.StatusBadGateway, "Report generation failed.")
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// HandleGetReport returns one stored report by ID.
func (h *Handlers) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	rep, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, fmt.Sprintf("Report '%s' not found.", id))
			return
		}
		h.log.Error("Failed to fetch report", zap.String("id", id), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch report.")
		return
	}
	h.respondJSON(w, http.StatusOK, rep)
}

// HandleExportReport composes a stored report and streams it in the requested
// format (json or pdf, default json).
func (h *Handlers) HandleExportReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	rep, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, fmt.Sprintf("Report '%s' not found.", id))
			return
		}
		h.log.Error("Failed to fetch report", zap.String("id", id), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch report.")
		return
	}

	composed, err := report.Compose(rep)
	if err != nil {
		h.log.Error("Report composition failed", zap.String("id", id), zap.Error(err))
		h.respondError(w, http.StatusUnprocessableEntity, "Stored report contains malformed score data.")
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		h.respondJSON(w, http.StatusOK, composed)
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".pdf"))
		if err := report.WritePDF(w, composed); err != nil {
			h.log.Error("PDF export failed", zap.String("id", id), zap.Error(err))
		}
	default:
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported export format: %s", format))
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, map[string]string{"error": message})
}
