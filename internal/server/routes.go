package server

import (
	"net/http"

	"bitcoin-node-sim/internal/health"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the HTTP routes
func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/healthz", health.LivenessHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", health.ReadinessHandler).Methods(http.MethodGet)
	r.HandleFunc("/status", health.StatusHandler).Methods(http.MethodGet)

	if h.book != nil {
		r.HandleFunc("/contacts", h.ListContacts).Methods(http.MethodGet)
		r.HandleFunc("/contacts", h.AddContact).Methods(http.MethodPost)
		r.HandleFunc("/contacts/{id}", h.GetContact).Methods(http.MethodGet)
		r.HandleFunc("/contacts/{id}", h.DeleteContact).Methods(http.MethodDelete)
		r.HandleFunc("/airdrop", h.Airdrop).Methods(http.MethodPost)
	}

	// bitcoin-cli -rpcwallet style paths
	r.HandleFunc("/wallet/{address}", h.RPC).Methods(http.MethodPost)
	r.HandleFunc("/", h.RPC).Methods(http.MethodPost)
}

// NewRouter returns a router with every route registered.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	RegisterRoutes(r, h)
	return r
}
