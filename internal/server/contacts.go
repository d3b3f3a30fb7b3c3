package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"bitcoin-node-sim/internal/contacts"
	"bitcoin-node-sim/internal/models"

	"github.com/gorilla/mux"
)

type contactRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Network string `json:"network"`
}

// ListContacts handles GET /contacts
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	var network models.Network
	if q := r.URL.Query().Get("network"); q != "" {
		n, err := models.ParseNetwork(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		network = n
	}

	list, err := h.book.List(network)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list contacts")
		writeError(w, http.StatusInternalServerError, "Failed to list contacts")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddContact handles POST /contacts
func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	network := h.network
	if req.Network != "" {
		n, err := models.ParseNetwork(req.Network)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		network = n
	}

	contact, err := h.book.Add(req.Name, req.Address, network)
	switch {
	case errors.Is(err, contacts.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info().
		Str("id", contact.ID).
		Str("name", contact.Name).
		Str("network", contact.Network.String()).
		Msg("Contact added")
	writeJSON(w, http.StatusCreated, contact)
}

// GetContact handles GET /contacts/{id}
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := h.book.Get(mux.Vars(r)["id"])
	if err != nil {
		h.contactError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// DeleteContact handles DELETE /contacts/{id}
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.book.Delete(id); err != nil {
		h.contactError(w, err)
		return
	}
	h.logger.Info().Str("id", id).Msg("Contact deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) contactError(w http.ResponseWriter, err error) {
	if errors.Is(err, contacts.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error().Err(err).Msg("Contact book failure")
	writeError(w, http.StatusInternalServerError, "Contact book failure")
}
