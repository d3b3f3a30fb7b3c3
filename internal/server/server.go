// Package server exposes the node over HTTP: a bitcoind style JSON-RPC
// endpoint, the contact book and the health probes.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/node"

	"github.com/rs/zerolog"
)

// Executor runs console commands.
type Executor interface {
	Execute(ctx context.Context, command string, args []string, network models.Network, wallet node.WalletContext) (interface{}, error)
}

// ContactBook is the address book behind /contacts.
type ContactBook interface {
	Add(name, address string, network models.Network) (models.Contact, error)
	Get(id string) (models.Contact, error)
	List(network models.Network) ([]models.Contact, error)
	Delete(id string) error
}

// Handler contains the HTTP handlers
type Handler struct {
	node    Executor
	book    ContactBook
	network models.Network
	wallet  string
	logger  *zerolog.Logger
}

// NewHandler creates a Handler. network and wallet are used when a request
// does not name them.
func NewHandler(exec Executor, book ContactBook, network models.Network, wallet string, logger *zerolog.Logger) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Handler{
		node:    exec,
		book:    book,
		network: network,
		wallet:  wallet,
		logger:  logger,
	}
}

func (h *Handler) networkFrom(r *http.Request) (models.Network, error) {
	if q := r.URL.Query().Get("network"); q != "" {
		return models.ParseNetwork(q)
	}
	return h.network, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
