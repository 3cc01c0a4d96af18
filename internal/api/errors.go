package api

import (
	"errors"
	"net/http"

	"github.com/Andi5986/flight-search-engine/internal/flights"
	"github.com/Andi5986/flight-search-engine/internal/serpapi"
)

// errorBody is the JSON shape of every non-2xx reply.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a machine-readable error reply.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeBuildError maps query validation failures onto 400 replies. The
// sentinel text plus its detail is safe to show users.
func (h *Handlers) writeBuildError(w http.ResponseWriter, err error) {
	code := "bad_request"
	switch {
	case errors.Is(err, flights.ErrUnknownCity):
		code = "unknown_city"
	case errors.Is(err, flights.ErrInvalidRoute):
		code = "invalid_route"
	case errors.Is(err, flights.ErrInvalidDate):
		code = "invalid_date"
	}
	h.log.Warn("rejected search input", "code", code, "err", err)
	writeError(w, http.StatusBadRequest, code, err.Error())
}

// writeSearchError maps provider failures onto replies. Users get a short
// generic message; the full cause goes to the log under the search id.
func (h *Handlers) writeSearchError(w http.ResponseWriter, searchID string, err error) {
	var perr *serpapi.ProviderError
	switch {
	case errors.Is(err, serpapi.ErrAuth):
		h.log.Error("provider authentication failed", "search_id", searchID, "err", err)
		writeError(w, http.StatusServiceUnavailable, "auth", "flight search is not available right now")
	case errors.As(err, &perr):
		h.log.Error("provider search failed", "search_id", searchID, "status", perr.StatusCode, "err", err)
		writeError(w, http.StatusBadGateway, "provider", "the flight search failed, please try again")
	case errors.Is(err, serpapi.ErrNetwork):
		h.log.Error("provider unreachable", "search_id", searchID, "err", err)
		writeError(w, http.StatusGatewayTimeout, "network", "could not reach the flight search service")
	default:
		h.log.Error("flight search failed", "search_id", searchID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
