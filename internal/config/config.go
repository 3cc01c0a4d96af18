package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// ErrMissingAPIKey is returned when SERPAPI_API_KEY is absent. The server
// refuses to start without it rather than failing on the first search.
var ErrMissingAPIKey = errors.New("SERPAPI_API_KEY is not set")

// Config holds everything the server needs, read once at startup.
type Config struct {
	APIKey          string
	AirportsFile    string
	PublicDir       string
	Port            string
	Currency        string
	Locale          string
	SortByPrice     bool
	FrontendOrigins []string
}

// Load reads configuration from the environment. Only the provider API key
// is required; everything else has a default.
func Load() (*Config, error) {
	apiKey := os.Getenv("SERPAPI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &Config{
		APIKey:          apiKey,
		AirportsFile:    getEnv("AIRPORTS_FILE", "cities_airports.json"),
		PublicDir:       getEnv("PUBLIC_DIR", "public"),
		Port:            getEnv("PORT", "8080"),
		Currency:        getEnv("CURRENCY", "USD"),
		Locale:          getEnv("LOCALE", "en"),
		SortByPrice:     getEnvBool("SORT_BY_PRICE", false),
		FrontendOrigins: splitList(os.Getenv("FRONTEND_ORIGINS")),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvBool reads a boolean flag, keeping the fallback on unset or
// unparsable values.
func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// splitList turns a comma-separated value into trimmed entries, dropping
// empty ones.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
