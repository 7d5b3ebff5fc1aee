package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browser calls from the given origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", APIKeyHeader, TenantHeader, "Last-Event-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         600,
	})
	return c.Handler
}
