package node

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bitcoin-node-sim/internal/hashing"
	"bitcoin-node-sim/internal/models"
)

// StartupSequence is the scripted log a freshly started bitcoind prints.
// The caller plays it line by line.
type StartupSequence struct {
	Lines []string
	Delay time.Duration

	node       *Node
	network    models.Network
	generation uint64
}

// Play emits each line after Delay. It stops early when ctx is cancelled
// or the node is stopped (or restarted) mid-playback.
func (s *StartupSequence) Play(ctx context.Context, emit func(line string)) error {
	for _, line := range s.Lines {
		if err := sleep(ctx, s.Delay); err != nil {
			return err
		}
		if s.node != nil && !s.node.isGeneration(s.generation) {
			return ErrStartupAborted
		}
		emit(line)
		if s.node != nil {
			s.node.deliver([]models.NodeEvent{{
				Kind:      models.EventStartupLog,
				Network:   s.network,
				Message:   line,
				Timestamp: s.node.now(),
			}})
		}
	}
	return nil
}

func (s *StartupSequence) String() string {
	return strings.Join(s.Lines, "\n")
}

func (s *StartupSequence) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Lines)
}

func (n *Node) isGeneration(gen uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running && n.generation == gen
}

func startupLines(network models.Network, height int64) []string {
	dataDir, port := "~/.bitcoin/testnet3", 18332
	if network == models.Mainnet {
		dataDir, port = "~/.bitcoin", 8332
	}
	best := hashing.BlockHash(network.ChainName(), height)

	return []string{
		"Bitcoin Core version v26.0.0 (release build)",
		"Using data directory " + dataDir,
		"Config file: ~/.bitcoin/bitcoin.conf",
		fmt.Sprintf("Loaded best chain: hashBestChain=%s height=%d", best, height),
		"init message: Loading wallet…",
		fmt.Sprintf("[%s] Wallet completed loading in 42ms", network.WalletName()),
		fmt.Sprintf("Binding RPC on address 127.0.0.1 port %d", port),
		"init message: Done loading",
	}
}
