package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Andi5986/flight-search-engine/internal/flights"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	builder  QueryBuilder
	searcher FlightSearcher
	dir      CityDirectory
	policy   flights.PresentPolicy
	log      *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(builder QueryBuilder, searcher FlightSearcher, dir CityDirectory, policy flights.PresentPolicy, log *slog.Logger) *Handlers {
	return &Handlers{
		builder:  builder,
		searcher: searcher,
		dir:      dir,
		policy:   policy,
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// searchRequest is the POST /api/search body.
type searchRequest struct {
	OriginCity      string `json:"origin_city"`
	DestinationCity string `json:"destination_city"`
	OutboundDate    string `json:"outbound_date"`
	ReturnDate      string `json:"return_date,omitempty"`
}

// searchResponse is the POST /api/search reply. Options is never null: an
// empty array means the route had no flights.
type searchResponse struct {
	SearchID string           `json:"search_id"`
	Currency string           `json:"currency"`
	Options  []flights.Option `json:"options"`
}

// SearchFlights handles POST /api/search.
// Validation failures come back as 400 with a machine-readable code;
// provider failures map to 502/503/504 without leaking provider internals.
func (h *Handlers) SearchFlights(w http.ResponseWriter, r *http.Request) {
	var in searchRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON")
		return
	}

	req, err := h.builder.Build(in.OriginCity, in.DestinationCity, in.OutboundDate, in.ReturnDate)
	if err != nil {
		h.writeBuildError(w, err)
		return
	}

	searchID := uuid.NewString()
	h.log.Info("flight search started",
		"search_id", searchID,
		"origin", in.OriginCity,
		"destination", in.DestinationCity,
		"outbound_date", in.OutboundDate,
		"return_date", in.ReturnDate,
	)

	result, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		h.writeSearchError(w, searchID, err)
		return
	}

	options := flights.Present(result, h.policy)
	h.log.Info("flight search completed", "search_id", searchID, "options", len(options))

	writeJSON(w, http.StatusOK, searchResponse{
		SearchID: searchID,
		Currency: result.Currency,
		Options:  options,
	})
}

// ListCities handles GET /api/cities.
func (h *Handlers) ListCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"cities": h.dir.Cities()})
}

// Health handles GET /api/health. The directory is loaded before the server
// starts listening, so reaching this handler at all means the service is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cities": h.dir.Len(),
	})
}
