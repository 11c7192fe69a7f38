package utils

import (
	"net/http"

	"github.com/gorilla/mux"
)

// withCORS reflects trusted origins back on every response and answers
// preflights directly. Untrusted origins get no CORS headers at all, which
// makes the browser refuse the response.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && TrustedOrigin(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter builds the base router with CORS and the health check; the API
// routes are mounted by the handlers package.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(withCORS)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	return r
}
