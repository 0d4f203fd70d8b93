package handlers

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const webIndexPath = "web/index.html"

// NewRouter mounts the full HTTP surface.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Post("/pair/start", h.PairStart)
	router.Post("/pair/claim", h.PairClaim)
	router.Post("/device/{deviceID}/module", h.SetModule)
	router.Get("/device/config", h.DeviceConfig)
	router.Get("/healthz", h.Healthz)
	router.Handle("/metrics", promhttp.Handler())

	// Serve the web UI when deployed alongside the API.
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(webIndexPath); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, webIndexPath)
	})

	return router
}
