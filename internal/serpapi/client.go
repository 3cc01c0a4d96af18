package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Andi5986/flight-search-engine/internal/flights"
)

const (
	defaultBaseURL = "https://serpapi.com/search.json"
	searchTimeout  = 30 * time.Second
)

// Sentinel errors the API layer matches on to pick a response.
var (
	// ErrAuth means the provider rejected the API key, or none was configured.
	ErrAuth = errors.New("provider rejected the API key")
	// ErrNetwork means the provider could not be reached at all.
	ErrNetwork = errors.New("provider unreachable")
)

// ProviderError is a reply from the provider that is not a usable result: an
// unexpected status code, an in-band error message, or a body that fails
// validation.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// Client searches Google Flights through SerpAPI. At most one search is in
// flight at a time; concurrent calls queue behind the active one until it
// finishes or their context ends.
type Client struct {
	apiKey   string
	currency string
	locale   string
	baseURL  string
	client   *http.Client
	gate     *semaphore.Weighted
}

// NewClient constructs a Client with the given API key. Prices come back in
// currency and result text in locale (an hl language code).
func NewClient(apiKey, currency, locale string) *Client {
	return NewClientWithURL(defaultBaseURL, apiKey, currency, locale)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey, currency, locale string) *Client {
	return &Client{
		apiKey:   apiKey,
		currency: currency,
		locale:   locale,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: searchTimeout},
		gate:     semaphore.NewWeighted(1),
	}
}

type searchResponse struct {
	Error        string      `json:"error"`
	BestFlights  []rawOption `json:"best_flights"`
	OtherFlights []rawOption `json:"other_flights"`
}

type rawOption struct {
	Flights         []rawLeg     `json:"flights"`
	Layovers        []rawLayover `json:"layovers"`
	TotalDuration   int          `json:"total_duration"`
	CarbonEmissions struct {
		ThisFlight *int `json:"this_flight"`
	} `json:"carbon_emissions"`
	Price       float64 `json:"price"`
	AirlineLogo string  `json:"airline_logo"`
}

type rawLeg struct {
	DepartureAirport rawAirport `json:"departure_airport"`
	ArrivalAirport   rawAirport `json:"arrival_airport"`
	Duration         int        `json:"duration"`
	Airplane         string     `json:"airplane"`
	Airline          string     `json:"airline"`
	AirlineLogo      string     `json:"airline_logo"`
	TravelClass      string     `json:"travel_class"`
	FlightNumber     string     `json:"flight_number"`
	Legroom          string     `json:"legroom"`
	Extensions       []string   `json:"extensions"`
}

type rawAirport struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Time string `json:"time"`
}

type rawLayover struct {
	Duration  int    `json:"duration"`
	Name      string `json:"name"`
	ID        string `json:"id"`
	Overnight bool   `json:"overnight"`
}

// Search runs one query against the provider. The request must already be
// validated; Search does not re-check it.
func (c *Client) Search(ctx context.Context, req flights.SearchRequest) (*flights.SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrAuth)
	}

	// One outbound search at a time. Waiting is bounded by the caller's
	// context; expiry while queued surfaces as ErrNetwork.
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for active search: %v", ErrNetwork, err)
	}
	defer c.gate.Release(1)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("creating provider request: %w", redacted(err))
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, redacted(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrAuth, providerMessage(body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: providerMessage(body)}
	}

	return parseSearch(resp.StatusCode, body, c.currency)
}

// searchURL builds the provider query. Multi-airport cities send every code
// comma-separated, so a single search covers e.g. both CDG and ORY.
func (c *Client) searchURL(req flights.SearchRequest) string {
	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("api_key", c.apiKey)
	params.Set("departure_id", strings.Join(req.OriginCodes, ","))
	params.Set("arrival_id", strings.Join(req.DestinationCodes, ","))
	params.Set("outbound_date", req.OutboundDate.Format(flights.DateLayout))
	if req.RoundTrip() {
		params.Set("type", "1")
		params.Set("return_date", req.ReturnDate.Format(flights.DateLayout))
	} else {
		params.Set("type", "2")
	}
	params.Set("currency", c.currency)
	params.Set("hl", c.locale)
	return c.baseURL + "?" + params.Encode()
}

// redacted drops the query string from a transport error's URL. The query
// carries the API key, and these errors end up in logs.
func redacted(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if i := strings.IndexByte(uerr.URL, '?'); i >= 0 {
			uerr.URL = uerr.URL[:i]
		}
	}
	return err
}

// providerMessage pulls the human-readable error out of a provider body,
// falling back to a trimmed copy of the body itself.
func providerMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return "no error detail"
	}
	return msg
}

// parseSearch decodes and validates a 2xx provider body. Ranked best_flights
// come first, then other_flights; both absent or empty is a valid result
// with no options.
func parseSearch(status int, body []byte, currency string) (*flights.SearchResult, error) {
	var raw searchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ProviderError{StatusCode: status, Message: fmt.Sprintf("malformed response body: %v", err)}
	}
	if raw.Error != "" {
		return nil, &ProviderError{StatusCode: status, Message: raw.Error}
	}

	options := make([]flights.ProviderOption, 0, len(raw.BestFlights)+len(raw.OtherFlights))
	for _, group := range [][]rawOption{raw.BestFlights, raw.OtherFlights} {
		for _, opt := range group {
			converted, err := convertOption(opt, len(options), status)
			if err != nil {
				return nil, err
			}
			options = append(options, converted)
		}
	}

	return &flights.SearchResult{
		Options:  options,
		Currency: currency,
		Raw:      json.RawMessage(body),
	}, nil
}

// convertOption validates one itinerary. An option without a positive price
// or without at least one leg marks the whole response unusable.
func convertOption(opt rawOption, index, status int) (flights.ProviderOption, error) {
	if opt.Price <= 0 {
		return flights.ProviderOption{}, &ProviderError{StatusCode: status, Message: fmt.Sprintf("option %d has no price", index)}
	}
	if len(opt.Flights) == 0 {
		return flights.ProviderOption{}, &ProviderError{StatusCode: status, Message: fmt.Sprintf("option %d has no flight legs", index)}
	}

	legs := make([]flights.Leg, 0, len(opt.Flights))
	for _, leg := range opt.Flights {
		legs = append(legs, flights.Leg{
			FlightNumber:    leg.FlightNumber,
			Airline:         leg.Airline,
			AirlineLogo:     leg.AirlineLogo,
			Airplane:        leg.Airplane,
			TravelClass:     leg.TravelClass,
			Legroom:         leg.Legroom,
			Departure:       flightPoint(leg.DepartureAirport),
			Arrival:         flightPoint(leg.ArrivalAirport),
			DurationMinutes: leg.Duration,
			Extensions:      leg.Extensions,
		})
	}

	layovers := make([]flights.Layover, 0, len(opt.Layovers))
	for _, l := range opt.Layovers {
		layovers = append(layovers, flights.Layover{
			Airport:         l.Name,
			Code:            l.ID,
			DurationMinutes: l.Duration,
			Overnight:       l.Overnight,
		})
	}

	return flights.ProviderOption{
		Price:           opt.Price,
		DurationMinutes: opt.TotalDuration,
		Legs:            legs,
		Layovers:        layovers,
		CarbonGrams:     opt.CarbonEmissions.ThisFlight,
		AirlineLogo:     opt.AirlineLogo,
	}, nil
}

func flightPoint(a rawAirport) flights.FlightPoint {
	return flights.FlightPoint{Name: a.Name, Code: a.ID, Time: a.Time}
}
