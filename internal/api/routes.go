package api

import (
	"github.com/gorilla/mux"

	"ge-price-lab/internal/observability"
)

// SetupRoutes configures all API routes.
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Operational endpoints
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.HandleFunc("/status", handler.Status).Methods("GET")
	r.Handle("/metrics", observability.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/items", handler.ListItems).Methods("GET")
	api.HandleFunc("/items/{id}", handler.GetItem).Methods("GET")
	api.HandleFunc("/items/{id}/history", handler.GetHistory).Methods("GET")
	api.HandleFunc("/spikes", handler.ListSpikes).Methods("GET")

	return r
}
