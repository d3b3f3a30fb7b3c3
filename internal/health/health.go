package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"bitcoin-node-sim/internal/node"
)

// StatusProvider reports the state of a node
type StatusProvider interface {
	Status() node.Status
}

type NodeStatus struct {
	Name          string  `json:"name"`
	Running       bool    `json:"running"`
	Mode          string  `json:"mode"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	RPCURL        string  `json:"rpc_url,omitempty"`
}

var (
	isReady     int32
	providers   = make(map[string]StatusProvider)
	statusMutex sync.RWMutex
)

func SetReady(ready bool) {
	if ready {
		atomic.StoreInt32(&isReady, 1)
	} else {
		atomic.StoreInt32(&isReady, 0)
	}
}

func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ReadinessHandler reports Ready once a node is registered and SetReady
// was called. A stopped node is still ready: it answers with errors.
func ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	statuses := snapshot()
	if len(statuses) == 0 || atomic.LoadInt32(&isReady) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready"))

		return
	}

	response := make(map[string]interface{})
	response["status"] = "Ready"
	response["nodes"] = statuses

	writeJSON(w, response)
}

// StatusHandler returns the status of every registered node
func StatusHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, snapshot())
}

func RegisterNode(name string, provider StatusProvider) {
	statusMutex.Lock()
	defer statusMutex.Unlock()
	providers[name] = provider
}

func UnregisterNode(name string) {
	statusMutex.Lock()
	defer statusMutex.Unlock()
	delete(providers, name)
}

func snapshot() map[string]NodeStatus {
	statusMutex.RLock()
	defer statusMutex.RUnlock()

	statuses := make(map[string]NodeStatus, len(providers))
	for name, p := range providers {
		s := p.Status()
		statuses[name] = NodeStatus{
			Name:          name,
			Running:       s.Running,
			Mode:          s.Mode,
			UptimeSeconds: s.Uptime.Seconds(),
			RPCURL:        s.RPC.URL,
		}
	}
	return statuses
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
