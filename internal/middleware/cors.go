package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// EnableCORS wraps next with an origin allow-list. Preflight requests are
// answered directly.
func EnableCORS(origins []string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	}).Handler(next)
}
