package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// CORS lets the register UI origins call the API from the browser. A "*"
// origin turns credentials off, browsers reject that combination anyway.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			IdempotencyHeader, SessionHeader, RequestIDHeader,
		},
		ExposedHeaders:   []string{RequestIDHeader, replayedHeader, "Retry-After"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	})
}
