package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitcoin-node-sim/internal/contacts"
	"bitcoin-node-sim/internal/hashing"
	"bitcoin-node-sim/internal/ledger"
	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/node"
	"bitcoin-node-sim/internal/rpc"

	"github.com/gorilla/mux"
)

const testAddr = "tb1ppksphu4jfv0watdurwzzlp9vstryak0mwz05xsqrza4xxp7e3hfs2w6cqj"

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	ID json.RawMessage `json:"id"`
}

func testServer(t *testing.T, wallet string) *mux.Router {
	t.Helper()
	book, err := contacts.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = book.Close() })

	n := node.New(ledger.NewMemoryStore(), node.Options{})
	return NewRouter(NewHandler(n, book, models.Testnet, wallet, nil))
}

func call(t *testing.T, router http.Handler, path, body string) (int, rpcReply) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var reply rpcReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("reply is not JSON: %v: %s", err, rec.Body.String())
	}
	return rec.Code, reply
}

func TestRPC(t *testing.T) {
	router := testServer(t, testAddr)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantResult string
		wantCode   int
	}{
		{
			name:       "getbalance on default wallet",
			path:       "/",
			body:       `{"jsonrpc":"1.0","id":"t1","method":"getbalance","params":[]}`,
			wantStatus: http.StatusOK,
			wantResult: "2.5",
		},
		{
			name:       "wallet path and network query",
			path:       "/wallet/bc1qexample?network=mainnet",
			body:       `{"jsonrpc":"1.0","id":1,"method":"getbalance"}`,
			wantStatus: http.StatusOK,
			wantResult: "0.05",
		},
		{
			name:       "integer params",
			path:       "/",
			body:       `{"jsonrpc":"1.0","id":1,"method":"getblockhash","params":[99999999]}`,
			wantStatus: http.StatusInternalServerError,
			wantCode:   -8,
		},
		{
			name:       "unknown method",
			path:       "/",
			body:       `{"jsonrpc":"1.0","id":1,"method":"frobnicate","params":[]}`,
			wantStatus: http.StatusNotFound,
			wantCode:   -32601,
		},
		{
			name:       "insufficient funds",
			path:       "/",
			body:       `{"jsonrpc":"1.0","id":1,"method":"sendmany","params":["",{"a":2,"b":1}]}`,
			wantStatus: http.StatusInternalServerError,
			wantCode:   -6,
		},
		{
			name:       "malformed body",
			path:       "/",
			body:       `{"method":`,
			wantStatus: http.StatusInternalServerError,
			wantCode:   -32700,
		},
		{
			name:       "bad network",
			path:       "/?network=regtest",
			body:       `{"jsonrpc":"1.0","id":1,"method":"getblockcount"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   -8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reply := call(t, router, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantCode != 0 {
				if reply.Error == nil || reply.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %d", reply.Error, tt.wantCode)
				}
				return
			}
			if reply.Error != nil {
				t.Fatalf("unexpected error %+v", reply.Error)
			}
			if string(reply.Result) != tt.wantResult {
				t.Errorf("result = %s, want %s", reply.Result, tt.wantResult)
			}
		})
	}
}

func TestRPC_EchoesID(t *testing.T) {
	router := testServer(t, testAddr)
	_, reply := call(t, router, "/", `{"jsonrpc":"1.0","id":"curltest","method":"getblockcount"}`)
	if string(reply.ID) != `"curltest"` {
		t.Errorf("id = %s", reply.ID)
	}
}

func TestRPC_NoWallet(t *testing.T) {
	router := testServer(t, "")
	_, reply := call(t, router, "/", `{"jsonrpc":"1.0","id":1,"method":"getbalance"}`)
	if reply.Error == nil || reply.Error.Code != -18 {
		t.Errorf("error = %+v, want -18", reply.Error)
	}
}

func TestArgs(t *testing.T) {
	params := []json.RawMessage{
		json.RawMessage(`"addr"`),
		json.RawMessage(`0.5`),
		json.RawMessage(`{"a":1}`),
		json.RawMessage(`null`),
		json.RawMessage(`true`),
	}
	got := Args(params)
	want := []string{"addr", "0.5", `{"a":1}`, "", "true"}
	if len(got) != len(want) {
		t.Fatalf("Args() = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestContactRoutes(t *testing.T) {
	router := testServer(t, testAddr)
	addr, err := hashing.DeriveAddress("alice", models.Testnet.Params())
	if err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]string{"name": "alice", "address": addr})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /contacts = %d %s", rec.Code, rec.Body.String())
	}
	var created models.Contact
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Network != models.Testnet {
		t.Errorf("network = %s, want default TESTNET", created.Network)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate POST = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts?network=testnet", nil))
	var list []models.Contact
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Errorf("GET /contacts = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /contacts/{id} = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/contacts/"+created.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts/"+created.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewBufferString(`{"name":"x","address":"nope"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid address POST = %d", rec.Code)
	}
}

func TestHealthRoutes(t *testing.T) {
	router := testServer(t, testAddr)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz = %d", rec.Code)
	}
}

func TestAirdrop(t *testing.T) {
	router := testServer(t, testAddr)

	var ids []string
	for _, name := range []string{"alice", "bob"} {
		addr, _ := hashing.DeriveAddress(name, models.Testnet.Params())
		body, _ := json.Marshal(map[string]string{"name": name, "address": addr})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewReader(body)))
		var c models.Contact
		if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, c.ID)
	}

	body, _ := json.Marshal(map[string]interface{}{"contacts": ids, "amount": "0.25"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/airdrop", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /airdrop = %d %s", rec.Code, rec.Body.String())
	}
	var res AirdropResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.TxID) != 64 || res.Recipients != 2 || res.Total.String() != "0.5" {
		t.Errorf("airdrop result = %+v", res)
	}

	_, reply := call(t, router, "/", `{"jsonrpc":"1.0","id":1,"method":"getbalance"}`)
	if string(reply.Result) != "1.99997" {
		t.Errorf("balance after airdrop = %s, want 1.99997", reply.Result)
	}

	body, _ = json.Marshal(map[string]interface{}{"contacts": ids, "amount": "5"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/airdrop", bytes.NewReader(body)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("oversized airdrop = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/airdrop?network=mainnet", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("cross-network airdrop = %d", rec.Code)
	}
}

// A second node connected to the facade proxies everything to the first.
func TestFacadeServesRealModeProxy(t *testing.T) {
	srv := httptest.NewServer(testServer(t, testAddr))
	defer srv.Close()

	client := node.New(ledger.NewMemoryStore(), node.Options{})
	defer client.Close()
	ctx := context.Background()
	wallet := node.WalletContext{Address: "ignored-in-real-mode"}

	if _, err := client.Execute(ctx, "connect", []string{srv.URL, "user", "pass"}, models.Mainnet, wallet); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if mode := client.Status().Mode; mode != "REAL" {
		t.Fatalf("mode = %s", mode)
	}

	raw, err := client.Execute(ctx, "getbalance", nil, models.Mainnet, wallet)
	if err != nil {
		t.Fatalf("getbalance: %v", err)
	}
	if got := string(raw.(json.RawMessage)); got != "2.5" {
		t.Errorf("proxied getbalance = %s, want the facade's testnet 2.5", got)
	}

	txid, err := client.Execute(ctx, "sendtoaddress", []string{"addrX", "1"}, models.Mainnet, wallet)
	if err != nil {
		t.Fatalf("sendtoaddress: %v", err)
	}
	if len(txid.(json.RawMessage)) != 66 {
		t.Errorf("proxied txid = %s", txid)
	}
	raw, err = client.Execute(ctx, "getbalance", nil, models.Mainnet, wallet)
	if err != nil {
		t.Fatalf("getbalance: %v", err)
	}
	if got := string(raw.(json.RawMessage)); got != "1.499985" {
		t.Errorf("balance after proxied send = %s, want 1.499985", got)
	}

	_, err = client.Execute(ctx, "frobnicate", nil, models.Mainnet, wallet)
	var remote *rpc.RemoteError
	if !errors.As(err, &remote) || remote.Code != -32601 {
		t.Errorf("proxied unknown command: %v", err)
	}
}
