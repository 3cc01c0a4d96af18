package airports

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
)

// ErrInvalidDirectory marks an airports file that cannot be used: unreadable,
// malformed JSON, no cities, or a city without a single airport code.
var ErrInvalidDirectory = errors.New("invalid airports file")

// Directory maps city names to their IATA airport codes. It is built once at
// startup and never written again, so it is safe for concurrent readers.
type Directory struct {
	codes  map[string][]string
	cities []string
}

// codeList accepts either a bare string or a list of strings in JSON, so a
// single-airport city can be written without brackets.
type codeList []string

func (c *codeList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*c = codeList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return errors.New("airport codes must be a string or a list of strings")
	}
	*c = codeList(many)
	return nil
}

// Load reads the city-to-airports mapping from the JSON file at path. The
// file must hold a non-empty "cities_airports" object; codes are trimmed,
// uppercased and de-duplicated. A blank code, or two city names that
// collapse to one after trimming, fails the load.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidDirectory, path, err)
	}

	var file struct {
		CitiesAirports map[string]codeList `json:"cities_airports"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidDirectory, path, err)
	}
	if len(file.CitiesAirports) == 0 {
		return nil, fmt.Errorf("%w: %s has no cities_airports entries", ErrInvalidDirectory, path)
	}

	codes := make(map[string][]string, len(file.CitiesAirports))
	cities := make([]string, 0, len(file.CitiesAirports))
	for city, list := range file.CitiesAirports {
		city = strings.TrimSpace(city)
		if city == "" {
			return nil, fmt.Errorf("%w: %s contains an empty city name", ErrInvalidDirectory, path)
		}
		if _, ok := codes[city]; ok {
			return nil, fmt.Errorf("%w: duplicate city %q", ErrInvalidDirectory, city)
		}

		cleaned := make([]string, 0, len(list))
		for _, code := range list {
			code = strings.ToUpper(strings.TrimSpace(code))
			if code == "" {
				return nil, fmt.Errorf("%w: city %q has a blank airport code", ErrInvalidDirectory, city)
			}
			if slices.Contains(cleaned, code) {
				continue
			}
			cleaned = append(cleaned, code)
		}
		if len(cleaned) == 0 {
			return nil, fmt.Errorf("%w: city %q has no airport codes", ErrInvalidDirectory, city)
		}

		codes[city] = cleaned
		cities = append(cities, city)
	}
	sort.Strings(cities)

	return &Directory{codes: codes, cities: cities}, nil
}

// Lookup returns the airport codes for city in file order, or nil if the
// city is not listed. The match is exact apart from surrounding whitespace.
func (d *Directory) Lookup(city string) []string {
	codes, ok := d.codes[strings.TrimSpace(city)]
	if !ok {
		return nil
	}
	out := make([]string, len(codes))
	copy(out, codes)
	return out
}

// Cities returns every known city name in sorted order.
func (d *Directory) Cities() []string {
	out := make([]string, len(d.cities))
	copy(out, d.cities)
	return out
}

// Len returns the number of cities in the directory.
func (d *Directory) Len() int {
	return len(d.codes)
}
