package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitcoin-node-sim/internal/models"

	"github.com/rs/zerolog"
)

// setupTestNode starts a fake bitcoind that accepts user/pass.
func setupTestNode(t *testing.T) (*httptest.Server, *[]Request) {
	t.Helper()
	var seen []Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		seen = append(seen, req)

		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "getblockchaininfo":
			_, _ = w.Write([]byte(`{"result":{"chain":"regtest","blocks":101,"headers":101,"bestblockhash":"00ff"},"error":null,"id":"zenith"}`))
		case "getblockcount":
			_, _ = w.Write([]byte(`{"result":101,"error":null,"id":"zenith"}`))
		case "listtransactions":
			_, _ = w.Write([]byte(`{"result":[
				{"address":"bcrt1qa","category":"receive","amount":1.5,"confirmations":10,"txid":"aa","time":1700000000},
				{"address":"bcrt1qb","category":"send","amount":-0.2,"fee":-0.0000141,"confirmations":0,"txid":"bb","time":1700000600}
			],"error":null,"id":"zenith"}`))
		case "listaddressgroupings":
			_, _ = w.Write([]byte(`{"result":[[["bcrt1qa",1.3,"savings"],["bcrt1qc",0]],[["bcrt1qd",0.00000001]]],"error":null,"id":"zenith"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":null,"error":{"code":-32601,"message":"Method not found"},"id":"zenith"}`))
		}
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

func newTestClient(url, user, pass string) *Client {
	logger := zerolog.Nop()
	return NewClient(models.RPCConfig{URL: url, User: user, Pass: pass}, 100, 5*time.Second, &logger)
}

func TestClient_CallSendsJSONRPC10(t *testing.T) {
	server, seen := setupTestNode(t)
	c := newTestClient(server.URL, "user", "pass")

	raw, err := c.Call(context.Background(), "getblockcount", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if string(raw) != "101" {
		t.Errorf("Call() = %s, want 101", raw)
	}
	if len(*seen) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*seen))
	}
	req := (*seen)[0]
	if req.Jsonrpc != "1.0" || req.Method != "getblockcount" || req.Params == nil {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestClient_ErrorClasses(t *testing.T) {
	server, _ := setupTestNode(t)

	t.Run("transport", func(t *testing.T) {
		c := newTestClient("http://127.0.0.1:1", "user", "pass")
		_, err := c.Call(context.Background(), "getblockcount", nil)
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
		if !strings.Contains(err.Error(), "CORS") || !strings.Contains(err.Error(), "\n") {
			t.Errorf("transport error should carry multi-line guidance, got %q", err.Error())
		}
	})

	t.Run("auth", func(t *testing.T) {
		c := newTestClient(server.URL, "user", "wrong")
		_, err := c.Call(context.Background(), "getblockcount", nil)
		var ae *AuthError
		if !errors.As(err, &ae) || ae.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 AuthError, got %T: %v", err, err)
		}
		if !strings.Contains(err.Error(), "rpcpassword") {
			t.Errorf("auth error should mention credentials, got %q", err.Error())
		}
	})

	t.Run("remote", func(t *testing.T) {
		c := newTestClient(server.URL, "user", "pass")
		_, err := c.Call(context.Background(), "nosuchmethod", nil)
		var re *RemoteError
		if !errors.As(err, &re) {
			t.Fatalf("expected RemoteError, got %T: %v", err, err)
		}
		if re.Code != -32601 || re.Message != "Method not found" {
			t.Errorf("remote error not surfaced verbatim: %+v", re)
		}
	})
}

func TestAuthError_Forbidden(t *testing.T) {
	err := &AuthError{StatusCode: http.StatusForbidden}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestClient_Probe(t *testing.T) {
	server, _ := setupTestNode(t)
	c := newTestClient(server.URL, "user", "pass")

	info, err := c.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.Chain != "regtest" || info.Blocks != 101 {
		t.Errorf("unexpected probe result %+v", info)
	}
}

func TestClient_ForwardReshapes(t *testing.T) {
	server, _ := setupTestNode(t)
	c := newTestClient(server.URL, "user", "pass")

	got, err := c.Forward(context.Background(), "LISTTRANSACTIONS", []string{"*", "10"})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	txs, ok := got.([]models.Transaction)
	if !ok {
		t.Fatalf("Forward(listtransactions) returned %T", got)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].ID != "bb" || txs[0].Type != models.Send || txs[0].Status != models.Pending {
		t.Errorf("newest entry mapped wrong: %+v", txs[0])
	}
	if txs[0].Amount.String() != "0.2" || txs[0].Fee.String() != "0.0000141" {
		t.Errorf("amount/fee should be absolute: %s %s", txs[0].Amount, txs[0].Fee)
	}
	if txs[1].ID != "aa" || txs[1].Type != models.Receive || txs[1].Timestamp.Unix() != 1700000000 {
		t.Errorf("oldest entry mapped wrong: %+v", txs[1])
	}

	got, err = c.Forward(context.Background(), "listaddressgroupings", nil)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	groups := got.([]models.AddressBalance)
	if len(groups) != 3 {
		t.Fatalf("expected 3 flattened rows, got %d", len(groups))
	}
	if groups[0].Label != "savings" || groups[0].Amount.String() != "1.3" {
		t.Errorf("unexpected first row %+v", groups[0])
	}
	if groups[2].Address != "bcrt1qd" || groups[2].Amount.String() != "0.00000001" {
		t.Errorf("unexpected last row %+v", groups[2])
	}

	got, err = c.Forward(context.Background(), "getblockcount", nil)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if raw, ok := got.(json.RawMessage); !ok || string(raw) != "101" {
		t.Errorf("other commands should pass through unmodified, got %v", got)
	}
}

func TestConvertArgs(t *testing.T) {
	params := ConvertArgs([]string{"tb1qabc", "0.5", "true", `{"a":1}`, "", "12abc"})

	if s, ok := params[0].(string); !ok || s != "tb1qabc" {
		t.Errorf("address should stay a string, got %#v", params[0])
	}
	if n, ok := params[1].(json.Number); !ok || n.String() != "0.5" {
		t.Errorf("amount should become a number, got %#v", params[1])
	}
	if b, ok := params[2].(bool); !ok || !b {
		t.Errorf("true should become a bool, got %#v", params[2])
	}
	if _, ok := params[3].(map[string]interface{}); !ok {
		t.Errorf("object should be decoded, got %#v", params[3])
	}
	if s, ok := params[4].(string); !ok || s != "" {
		t.Errorf("empty arg should stay an empty string, got %#v", params[4])
	}
	if s, ok := params[5].(string); !ok || s != "12abc" {
		t.Errorf("partial JSON should stay a string, got %#v", params[5])
	}
}
