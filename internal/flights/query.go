package flights

import (
	"errors"
	"fmt"
	"time"
)

// Validation failures for user-supplied queries. Handlers match on these to
// pick a response code; the wrapped detail is safe to show users.
var (
	ErrUnknownCity  = errors.New("unknown city")
	ErrInvalidRoute = errors.New("invalid route")
	ErrInvalidDate  = errors.New("invalid travel date")
)

// DateLayout is the wire format for travel dates.
const DateLayout = "2006-01-02"

// CityDirectory resolves a city name to its airport codes.
type CityDirectory interface {
	Lookup(city string) []string
}

// Builder turns raw search input into validated SearchRequests.
type Builder struct {
	dir CityDirectory
	now func() time.Time
}

// NewBuilder constructs a Builder over the given directory.
func NewBuilder(dir CityDirectory) *Builder {
	return &Builder{dir: dir, now: time.Now}
}

// NewBuilderWithClock constructs a Builder with a fixed clock (for tests).
func NewBuilderWithClock(dir CityDirectory, now func() time.Time) *Builder {
	return &Builder{dir: dir, now: now}
}

// Build resolves both cities to airport codes and validates the travel
// dates. returnDate may be empty for a one-way trip. Every failure is caught
// here, before any network work happens.
func (b *Builder) Build(originCity, destinationCity, outboundDate, returnDate string) (SearchRequest, error) {
	origin := b.dir.Lookup(originCity)
	if len(origin) == 0 {
		return SearchRequest{}, fmt.Errorf("%w: %q", ErrUnknownCity, originCity)
	}
	dest := b.dir.Lookup(destinationCity)
	if len(dest) == 0 {
		return SearchRequest{}, fmt.Errorf("%w: %q", ErrUnknownCity, destinationCity)
	}
	if sameCodes(origin, dest) {
		return SearchRequest{}, fmt.Errorf("%w: %s and %s are served by the same airports", ErrInvalidRoute, originCity, destinationCity)
	}

	outbound, err := parseDate(outboundDate)
	if err != nil {
		return SearchRequest{}, err
	}
	if outbound.Before(dateOnly(b.now())) {
		return SearchRequest{}, fmt.Errorf("%w: outbound date %s is in the past", ErrInvalidDate, outboundDate)
	}

	req := SearchRequest{
		OriginCodes:      origin,
		DestinationCodes: dest,
		OutboundDate:     outbound,
	}

	if returnDate != "" {
		ret, err := parseDate(returnDate)
		if err != nil {
			return SearchRequest{}, err
		}
		if ret.Before(outbound) {
			return SearchRequest{}, fmt.Errorf("%w: return date %s is before the outbound date", ErrInvalidDate, returnDate)
		}
		req.ReturnDate = &ret
	}

	return req, nil
}

// parseDate parses a YYYY-MM-DD date. time.Parse already rejects impossible
// calendar dates such as 2026-02-30.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDate, s)
	}
	return t, nil
}

// dateOnly truncates t to midnight UTC of its calendar day, so date
// comparisons ignore the time of day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sameCodes reports whether a and b hold exactly the same codes, in any
// order. Two city aliases backed by the same airports are not a searchable
// route.
func sameCodes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, code := range a {
		set[code] = struct{}{}
	}
	for _, code := range b {
		if _, ok := set[code]; !ok {
			return false
		}
	}
	return true
}
