package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
)

// NewRouter builds the router with all routes configured.
// Rate limiting is applied globally: 60 requests per minute per IP. When
// publicDir is non-empty the single-page UI is served from it at /. CORS
// headers are only emitted when allowedOrigins is set; the bundled UI is
// same-origin and needs none.
func NewRouter(handlers *Handlers, publicDir string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/health", handlers.Health)
	r.Get("/api/cities", handlers.ListCities)
	r.Post("/api/search", handlers.SearchFlights)

	if publicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(publicDir)))
	}

	if len(allowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		})
		return c.Handler(r)
	}

	return r
}
