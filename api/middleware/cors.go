package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",                   // React dev server
	"http://127.0.0.1:3000",                   // alternate localhost
	"http://localhost:5173",                   // Vite dev server
	"https://campuspay-enrollment.vercel.app", // production frontend
}

// CORS returns middleware that applies the API's allowed origin policy.
// Extra origins come from configuration so staging frontends can be added
// without a deploy of this list.
func CORS(extraOrigins []string) func(http.Handler) http.Handler {
	origins := append([]string{}, defaultCORSOrigins...)
	origins = append(origins, extraOrigins...)
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
