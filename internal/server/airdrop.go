package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"bitcoin-node-sim/internal/contacts"
	"bitcoin-node-sim/internal/node"
	"bitcoin-node-sim/internal/validation"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/shopspring/decimal"
)

type airdropRequest struct {
	Wallet   string   `json:"wallet"`
	Contacts []string `json:"contacts"`
	Amount   string   `json:"amount"`
}

// AirdropResult reports a batched payment to contacts.
type AirdropResult struct {
	TxID       string          `json:"txid"`
	Recipients int             `json:"recipients"`
	Total      decimal.Decimal `json:"total"`
}

// Airdrop handles POST /airdrop: one sendmany paying the same amount to
// every selected contact of the request network.
func (h *Handler) Airdrop(w http.ResponseWriter, r *http.Request) {
	var req airdropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(req.Contacts) == 0 {
		writeError(w, http.StatusBadRequest, "Select at least one contact")
		return
	}
	amount, err := validation.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	network, err := h.networkFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outputs := make(map[string]decimal.Decimal, len(req.Contacts))
	for _, id := range req.Contacts {
		contact, err := h.book.Get(id)
		if errors.Is(err, contacts.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("contact %s not found", id))
			return
		}
		if err != nil {
			h.contactError(w, err)
			return
		}
		if contact.Network != network {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("contact %s is on %s, not %s", contact.Name, contact.Network, network))
			return
		}
		outputs[contact.Address] = amount
	}

	encoded, err := json.Marshal(outputs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	wallet := req.Wallet
	if wallet == "" {
		wallet = h.wallet
	}
	result, err := h.node.Execute(r.Context(), "sendmany", []string{"", string(encoded)}, network, node.WalletContext{Address: wallet})
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, Response{Error: btcjson.NewRPCError(node.ErrorCode(err), err.Error())})
		return
	}
	txid, _ := result.(string)

	h.logger.Info().
		Str("network", network.String()).
		Str("txid", txid).
		Int("recipients", len(outputs)).
		Msg("Airdrop sent")
	writeJSON(w, http.StatusOK, AirdropResult{
		TxID:       txid,
		Recipients: len(outputs),
		Total:      amount.Mul(decimal.NewFromInt(int64(len(outputs)))),
	})
}
