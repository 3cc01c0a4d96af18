package api

import (
	"context"

	"github.com/Andi5986/flight-search-engine/internal/flights"
)

// QueryBuilder validates raw search input into a provider-ready request.
type QueryBuilder interface {
	Build(originCity, destinationCity, outboundDate, returnDate string) (flights.SearchRequest, error)
}

// FlightSearcher runs one search against the flight provider.
type FlightSearcher interface {
	Search(ctx context.Context, req flights.SearchRequest) (*flights.SearchResult, error)
}

// CityDirectory exposes the cities flights can be searched between.
type CityDirectory interface {
	Cities() []string
	Len() int
}
