package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transport-request-service/internal/api/handlers"
	"transport-request-service/internal/ports"
	"transport-request-service/internal/services"
)

type Deps struct {
	Transfers ports.TransferRepository
	Locations ports.LocationDirectory
	Sessions  *services.SessionStore
	Submitter *services.Submitter
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	catalog := &handlers.CatalogHandler{Transfers: d.Transfers, Locations: d.Locations}
	sessions := &handlers.SessionHandler{Store: d.Sessions, Submitter: d.Submitter}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/transfers", catalog.ListTransfers)
	r.Get("/locations", catalog.ListLocations)
	r.Post("/cost", handlers.Cost)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", sessions.Open)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sessions.Get)
			r.Delete("/", sessions.Close)
			r.Put("/form", sessions.UpdateForm)
			r.Post("/transfers/{transferID}", sessions.SelectTransfer)
			r.Delete("/transfers/{transferID}", sessions.DeselectTransfer)
			r.Post("/distances", sessions.RecomputeDistances)
			r.Post("/validate", sessions.Validate)
			r.Post("/draft", sessions.SaveDraft)
			r.Post("/submit", sessions.Submit)
		})
	})

	return r
}
