package middlewares

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS wraps the whole engine so preflight requests never reach gin.
// Credentials are allowed for the device cookie unless origins is "*".
func CORS(origins []string) *cors.Cors {
	wildcard := len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Accept-Language", "If-Match", "X-Requested-With"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	})
}
