package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows credentialed requests only for an explicit origin list.
// Browsers reject Access-Control-Allow-Credentials combined with a wildcard
// origin, so the wildcard default stays credential-less.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	wildcard := false
	for _, origin := range origins {
		if origin == "*" {
			wildcard = true
			break
		}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Access-Token", "X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: !wildcard,
	})

	return handler.Handler
}
