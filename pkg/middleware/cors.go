package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS returns middleware that allows the configured SPA origin to call
// the API with credentials. An empty origin allows any origin, which is
// only suitable for development.
func CORS(origin string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if origin == "" {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	} else {
		opts.AllowedOrigins = []string{origin}
	}
	return cors.New(opts).Handler
}
