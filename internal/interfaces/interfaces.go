package interfaces

import (
	"context"

	"github.com/btcsuite/btcd/btcjson"
)

// RPCProxy forwards console commands to a real Bitcoin Core node
type RPCProxy interface {
	// Probe checks the node is reachable with the configured credentials
	Probe(ctx context.Context) (*btcjson.GetBlockChainInfoResult, error)

	// Forward sends one command and returns its (possibly reshaped) result
	Forward(ctx context.Context, command string, args []string) (interface{}, error)

	Close()
}
