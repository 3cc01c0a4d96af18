package flights

import (
	"encoding/json"
	"time"
)

// SearchRequest is a fully validated flight query, ready for the provider.
// OriginCodes and DestinationCodes each hold at least one IATA code; a nil
// ReturnDate means a one-way trip.
type SearchRequest struct {
	OriginCodes      []string
	DestinationCodes []string
	OutboundDate     time.Time
	ReturnDate       *time.Time
}

// RoundTrip reports whether the request includes a return leg.
func (r SearchRequest) RoundTrip() bool { return r.ReturnDate != nil }

// SearchResult is the provider's answer to a single search, normalized into
// domain types. Raw keeps the unmodified provider body for debugging.
type SearchResult struct {
	Options  []ProviderOption
	Currency string
	Raw      json.RawMessage
}

// ProviderOption is one itinerary as returned by the provider, after
// validation: Price is positive and Legs holds at least one entry.
type ProviderOption struct {
	Price           float64
	DurationMinutes int
	Legs            []Leg
	Layovers        []Layover
	CarbonGrams     *int // nil when the provider did not report emissions
	AirlineLogo     string
}

// Option is a display-ready itinerary. Options are produced by Present and
// nowhere else.
type Option struct {
	Airline         string    `json:"airline"`
	FlightNumber    string    `json:"flight_number"`
	AirlineLogo     string    `json:"airline_logo,omitempty"`
	Price           Price     `json:"price"`
	DurationMinutes int       `json:"duration_minutes"`
	Stops           []Layover `json:"stops"`
	CarbonGrams     *int      `json:"carbon_emissions_grams,omitempty"`
	Legs            []Leg     `json:"legs"`
}

// Price is an amount in a specific currency.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Layover is a stop between two legs of an itinerary.
type Layover struct {
	Airport         string `json:"airport"`
	Code            string `json:"code"`
	DurationMinutes int    `json:"duration_minutes"`
	Overnight       bool   `json:"overnight,omitempty"`
}

// Leg is a single flight segment.
type Leg struct {
	FlightNumber    string      `json:"flight_number"`
	Airline         string      `json:"airline"`
	AirlineLogo     string      `json:"airline_logo,omitempty"`
	Airplane        string      `json:"airplane,omitempty"`
	TravelClass     string      `json:"travel_class,omitempty"`
	Legroom         string      `json:"legroom,omitempty"`
	Departure       FlightPoint `json:"departure"`
	Arrival         FlightPoint `json:"arrival"`
	DurationMinutes int         `json:"duration_minutes"`
	Extensions      []string    `json:"extensions,omitempty"`
}

// FlightPoint is an airport plus the provider's local timestamp for it.
// Time stays exactly as the provider formats it (e.g. "2026-09-04 13:30");
// the provider does not attach zone information, so no parsing is attempted.
type FlightPoint struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Time string `json:"time"`
}
