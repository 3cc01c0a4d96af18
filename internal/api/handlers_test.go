package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andi5986/flight-search-engine/internal/api"
	"github.com/Andi5986/flight-search-engine/internal/flights"
	"github.com/Andi5986/flight-search-engine/internal/serpapi"
)

// ---- mock implementations ----

type mockBuilder struct {
	buildFn func(originCity, destinationCity, outboundDate, returnDate string) (flights.SearchRequest, error)
}

func (m *mockBuilder) Build(originCity, destinationCity, outboundDate, returnDate string) (flights.SearchRequest, error) {
	return m.buildFn(originCity, destinationCity, outboundDate, returnDate)
}

type mockSearcher struct {
	searchFn func(ctx context.Context, req flights.SearchRequest) (*flights.SearchResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, req flights.SearchRequest) (*flights.SearchResult, error) {
	return m.searchFn(ctx, req)
}

type mockDirectory struct {
	cities []string
}

func (m *mockDirectory) Cities() []string { return m.cities }
func (m *mockDirectory) Len() int         { return len(m.cities) }

// ---- helpers ----

func parisTokyoRequest() flights.SearchRequest {
	ret := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	return flights.SearchRequest{
		OriginCodes:      []string{"CDG", "ORY"},
		DestinationCodes: []string{"NRT", "HND"},
		OutboundDate:     time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
		ReturnDate:       &ret,
	}
}

// okBuilder accepts anything and hands back the Paris-Tokyo request.
func okBuilder() *mockBuilder {
	return &mockBuilder{
		buildFn: func(_, _, _, _ string) (flights.SearchRequest, error) {
			return parisTokyoRequest(), nil
		},
	}
}

// failingBuilder rejects every query with err.
func failingBuilder(err error) *mockBuilder {
	return &mockBuilder{
		buildFn: func(_, _, _, _ string) (flights.SearchRequest, error) {
			return flights.SearchRequest{}, err
		},
	}
}

// noSearch fails the test if the provider is ever reached.
func noSearch(t *testing.T) *mockSearcher {
	t.Helper()
	return &mockSearcher{
		searchFn: func(_ context.Context, _ flights.SearchRequest) (*flights.SearchResult, error) {
			t.Fatal("searcher must not be called")
			return nil, nil
		},
	}
}

func resultWith(options ...flights.ProviderOption) *flights.SearchResult {
	return &flights.SearchResult{Options: options, Currency: "USD"}
}

func providerOption(price float64, flightNumber string) flights.ProviderOption {
	return flights.ProviderOption{
		Price:           price,
		DurationMinutes: 655,
		Legs: []flights.Leg{{
			FlightNumber:    flightNumber,
			Airline:         "ANA",
			Departure:       flights.FlightPoint{Name: "Paris Charles de Gaulle Airport", Code: "CDG", Time: "2026-09-04 13:30"},
			Arrival:         flights.FlightPoint{Name: "Tokyo Haneda Airport", Code: "HND", Time: "2026-09-05 08:55"},
			DurationMinutes: 655,
		}},
	}
}

func buildRouter(builder api.QueryBuilder, searcher api.FlightSearcher, policy flights.PresentPolicy) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := &mockDirectory{cities: []string{"Paris", "Tokyo"}}
	handlers := api.NewHandlers(builder, searcher, dir, policy, log)
	return api.NewRouter(handlers, "", nil)
}

func postSearch(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error.Code, body.Error.Message
}

const validSearchBody = `{
	"origin_city": "Paris",
	"destination_city": "Tokyo",
	"outbound_date": "2026-09-04",
	"return_date": "2026-09-18"
}`

// ---- POST /api/search ----

func TestSearchFlights_OK(t *testing.T) {
	var gotReq flights.SearchRequest
	searcher := &mockSearcher{
		searchFn: func(_ context.Context, req flights.SearchRequest) (*flights.SearchResult, error) {
			gotReq = req
			return resultWith(providerOption(1178, "NH 216"), providerOption(1420, "AF 276")), nil
		},
	}

	router := buildRouter(okBuilder(), searcher, flights.PresentPolicy{})
	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, parisTokyoRequest().OriginCodes, gotReq.OriginCodes, "the built request must reach the searcher")

	var body struct {
		SearchID string           `json:"search_id"`
		Currency string           `json:"currency"`
		Options  []flights.Option `json:"options"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))

	_, err := uuid.Parse(body.SearchID)
	assert.NoError(t, err, "search_id must be a uuid")
	assert.Equal(t, "USD", body.Currency)
	require.Len(t, body.Options, 2)
	assert.Equal(t, "NH 216", body.Options[0].FlightNumber)
	assert.Equal(t, 1178.0, body.Options[0].Price.Amount)
	assert.Equal(t, "AF 276", body.Options[1].FlightNumber)
}

func TestSearchFlights_PassesRawInputToBuilder(t *testing.T) {
	var gotOrigin, gotDestination, gotOutbound, gotReturn string
	builder := &mockBuilder{
		buildFn: func(originCity, destinationCity, outboundDate, returnDate string) (flights.SearchRequest, error) {
			gotOrigin, gotDestination, gotOutbound, gotReturn = originCity, destinationCity, outboundDate, returnDate
			return parisTokyoRequest(), nil
		},
	}
	searcher := &mockSearcher{
		searchFn: func(_ context.Context, _ flights.SearchRequest) (*flights.SearchResult, error) {
			return resultWith(), nil
		},
	}

	router := buildRouter(builder, searcher, flights.PresentPolicy{})
	w := postSearch(router, `{"origin_city":"Paris","destination_city":"Tokyo","outbound_date":"2026-09-04"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paris", gotOrigin)
	assert.Equal(t, "Tokyo", gotDestination)
	assert.Equal(t, "2026-09-04", gotOutbound)
	assert.Equal(t, "", gotReturn, "a missing return_date stays empty for one-way trips")
}

func TestSearchFlights_NoFlightsFound(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(_ context.Context, _ flights.SearchRequest) (*flights.SearchResult, error) {
			return resultWith(), nil
		},
	}

	router := buildRouter(okBuilder(), searcher, flights.PresentPolicy{})
	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusOK, w.Code, "an empty result is not an error")
	assert.Contains(t, w.Body.String(), `"options":[]`, "options must encode as an empty array, never null")
}

func TestSearchFlights_SortByPricePolicy(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(_ context.Context, _ flights.SearchRequest) (*flights.SearchResult, error) {
			return resultWith(
				providerOption(900, "AF 276"),
				providerOption(420, "NH 216"),
				providerOption(650, "JL 46"),
			), nil
		},
	}

	router := buildRouter(okBuilder(), searcher, flights.PresentPolicy{SortByPrice: true})
	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Options []flights.Option `json:"options"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Options, 3)
	assert.Equal(t, "NH 216", body.Options[0].FlightNumber)
	assert.Equal(t, "JL 46", body.Options[1].FlightNumber)
	assert.Equal(t, "AF 276", body.Options[2].FlightNumber)
}

func TestSearchFlights_MalformedBody(t *testing.T) {
	builder := &mockBuilder{
		buildFn: func(_, _, _, _ string) (flights.SearchRequest, error) {
			t.Fatal("builder must not see a malformed body")
			return flights.SearchRequest{}, nil
		},
	}

	router := buildRouter(builder, noSearch(t), flights.PresentPolicy{})
	w := postSearch(router, `{"origin_city": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := decodeError(t, w)
	assert.Equal(t, "bad_request", code)
}

func TestSearchFlights_UnknownCity(t *testing.T) {
	err := fmt.Errorf("%w: %q", flights.ErrUnknownCity, "Atlantis")
	router := buildRouter(failingBuilder(err), noSearch(t), flights.PresentPolicy{})

	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, message := decodeError(t, w)
	assert.Equal(t, "unknown_city", code)
	assert.Contains(t, message, "Atlantis")
}

func TestSearchFlights_InvalidRoute(t *testing.T) {
	err := fmt.Errorf("%w: Paris and Paname are served by the same airports", flights.ErrInvalidRoute)
	router := buildRouter(failingBuilder(err), noSearch(t), flights.PresentPolicy{})

	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := decodeError(t, w)
	assert.Equal(t, "invalid_route", code)
}

func TestSearchFlights_InvalidDate(t *testing.T) {
	err := fmt.Errorf("%w: outbound date 2020-01-01 is in the past", flights.ErrInvalidDate)
	router := buildRouter(failingBuilder(err), noSearch(t), flights.PresentPolicy{})

	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := decodeError(t, w)
	assert.Equal(t, "invalid_date", code)
}

func TestSearchFlights_AuthFailure(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(_ context.Context, _ flights.SearchRequest) (*flights.SearchResult, error) {
			return nil, fmt.Errorf("%w: invalid API key", serpapi.ErrAuth)
		},
	}

	router := buildRouter(okBuilder(), searcher, flights.PresentPolicy{})
	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	code, message := decodeError(t, w)
	assert.Equal(t, "auth", code)
	assert.NotContains(t, message, "API key", "provider detail must not leak to users")
}

func TestSearchFlights_ProviderFailure(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(_ context.Context, _ flights.SearchRequest) (*flights.SearchResult, error) {
			return nil, &serpapi.ProviderError{StatusCode: http.StatusInternalServerError, Message: "upstream exploded"}
		},
	}

	router := buildRouter(okBuilder(), searcher, flights.PresentPolicy{})
	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	code, message := decodeError(t, w)
	assert.Equal(t, "provider", code)
	assert.NotContains(t, message, "upstream exploded")
}

func TestSearchFlights_NetworkFailure(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(_ context.Context, _ flights.SearchRequest) (*flights.SearchResult, error) {
			return nil, fmt.Errorf("%w: dial tcp: connection refused", serpapi.ErrNetwork)
		},
	}

	router := buildRouter(okBuilder(), searcher, flights.PresentPolicy{})
	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	code, _ := decodeError(t, w)
	assert.Equal(t, "network", code)
}

func TestSearchFlights_UnexpectedFailure(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(_ context.Context, _ flights.SearchRequest) (*flights.SearchResult, error) {
			return nil, errors.New("something odd")
		},
	}

	router := buildRouter(okBuilder(), searcher, flights.PresentPolicy{})
	w := postSearch(router, validSearchBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	code, _ := decodeError(t, w)
	assert.Equal(t, "internal", code)
}

// ---- GET /api/cities ----

func TestListCities(t *testing.T) {
	router := buildRouter(okBuilder(), noSearch(t), flights.PresentPolicy{})

	req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string][]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, []string{"Paris", "Tokyo"}, body["cities"])
}

// ---- GET /api/health ----

func TestHealth(t *testing.T) {
	router := buildRouter(okBuilder(), noSearch(t), flights.PresentPolicy{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["cities"])
}

// ---- router wiring ----

func TestRouter_ServesStaticUI(t *testing.T) {
	publicDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<title>Flight Search Engine</title>"), 0o644))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(okBuilder(), noSearch(t), &mockDirectory{}, flights.PresentPolicy{}, log)
	router := api.NewRouter(handlers, publicDir, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Flight Search Engine")
}

func TestRouter_CORSOnlyWhenConfigured(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(okBuilder(), noSearch(t), &mockDirectory{cities: []string{"Paris"}}, flights.PresentPolicy{}, log)

	withOrigins := api.NewRouter(handlers, "", []string{"http://localhost:5173"})
	req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	withOrigins.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	withoutOrigins := api.NewRouter(handlers, "", nil)
	req = httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	withoutOrigins.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
