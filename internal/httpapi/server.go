// Package httpapi exposes the operational HTTP surface: health, metrics and
// a JSON status snapshot.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/brightears/zonewatch/internal/logging"
	"github.com/brightears/zonewatch/internal/metrics"
)

// HealthResponse is the JSON body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// NewRouter builds the operational router.
func NewRouter() chi.Router {
	started := time.Now()

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "ok",
			Uptime: time.Since(started).Round(time.Second).String(),
		})
	})
	r.Method(http.MethodGet, "/status", metrics.JSONHandler())
	r.Method(http.MethodGet, "/metrics", metrics.PromHandler())
	return r
}

// Serve starts the operational server on the given port. Blocks; intended to
// run in its own goroutine.
func Serve(port int) {
	addr := fmt.Sprintf(":%d", port)
	logging.Get().Info().Str("addr", addr).Msg("starting metrics server")
	if err := http.ListenAndServe(addr, NewRouter()); err != nil {
		logging.Get().Error().Err(err).Msg("metrics server stopped")
	}
}
