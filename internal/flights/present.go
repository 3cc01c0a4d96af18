package flights

import "sort"

// PresentPolicy controls how search results are turned into display options.
type PresentPolicy struct {
	// SortByPrice orders options cheapest first. When false the provider's
	// own ranking is kept.
	SortByPrice bool
}

// Present maps a search result onto display-ready options. The result is
// never modified and the returned slice is freshly allocated, so callers may
// do what they like with it. A nil result, or one with no options, yields an
// empty slice rather than nil.
func Present(result *SearchResult, policy PresentPolicy) []Option {
	if result == nil {
		return []Option{}
	}

	options := make([]Option, 0, len(result.Options))
	for _, po := range result.Options {
		options = append(options, presentOption(po, result.Currency))
	}

	if policy.SortByPrice {
		sort.SliceStable(options, func(i, j int) bool {
			return options[i].Price.Amount < options[j].Price.Amount
		})
	}

	return options
}

// presentOption flattens one provider itinerary into a display option. The
// headline airline and flight number come from the first leg, which is how
// the results page titles each itinerary.
func presentOption(po ProviderOption, currency string) Option {
	first := po.Legs[0]

	logo := po.AirlineLogo
	if logo == "" {
		logo = first.AirlineLogo
	}

	var carbon *int
	if po.CarbonGrams != nil {
		grams := *po.CarbonGrams
		carbon = &grams
	}

	legs := make([]Leg, len(po.Legs))
	copy(legs, po.Legs)
	stops := make([]Layover, len(po.Layovers))
	copy(stops, po.Layovers)

	return Option{
		Airline:         first.Airline,
		FlightNumber:    first.FlightNumber,
		AirlineLogo:     logo,
		Price:           Price{Amount: po.Price, Currency: currency},
		DurationMinutes: po.DurationMinutes,
		Stops:           stops,
		CarbonGrams:     carbon,
		Legs:            legs,
	}
}
