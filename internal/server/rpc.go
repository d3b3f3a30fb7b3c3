package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"bitcoin-node-sim/internal/node"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/gorilla/mux"
)

// maxBodyBytes caps a JSON-RPC request body.
const maxBodyBytes = 1 << 20

// Request is a JSON-RPC 1.0 call as sent by bitcoin-cli.
type Request struct {
	Jsonrpc string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// Response mirrors the bitcoind reply envelope.
type Response struct {
	Result interface{}       `json:"result"`
	Error  *btcjson.RPCError `json:"error"`
	ID     json.RawMessage   `json:"id"`
}

// RPC handles POST / and POST /wallet/{address}.
func (h *Handler) RPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: btcjson.ErrRPCInvalidRequest})
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil || req.Method == "" {
		h.logger.Debug().Err(err).Msg("Rejected malformed JSON-RPC request")
		writeJSON(w, http.StatusInternalServerError, Response{Error: btcjson.ErrRPCParse})
		return
	}

	network, err := h.networkFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Error: btcjson.NewRPCError(btcjson.ErrRPCInvalidParameter, err.Error()),
			ID:    req.ID,
		})
		return
	}

	wallet := h.wallet
	if addr, ok := mux.Vars(r)["address"]; ok {
		wallet = addr
	}

	result, err := h.node.Execute(r.Context(), req.Method, Args(req.Params), network, node.WalletContext{Address: wallet})
	if err != nil {
		code := node.ErrorCode(err)
		status := http.StatusInternalServerError
		if code == btcjson.ErrRPCMethodNotFound.Code {
			status = http.StatusNotFound
		}
		h.logger.Debug().
			Err(err).
			Str("method", req.Method).
			Int("code", int(code)).
			Msg("JSON-RPC call failed")
		writeJSON(w, status, Response{Error: btcjson.NewRPCError(code, err.Error()), ID: req.ID})
		return
	}

	writeJSON(w, http.StatusOK, Response{Result: result, ID: req.ID})
}

// Args turns JSON-RPC params into console arguments: strings are passed
// through, every other value keeps its JSON text, null becomes empty.
func Args(params []json.RawMessage) []string {
	args := make([]string, 0, len(params))
	for _, p := range params {
		raw := strings.TrimSpace(string(p))
		var s string
		switch {
		case raw == "null":
			args = append(args, "")
		case strings.HasPrefix(raw, `"`) && json.Unmarshal(p, &s) == nil:
			args = append(args, s)
		default:
			args = append(args, raw)
		}
	}
	return args
}
