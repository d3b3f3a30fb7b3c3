package node

import (
	"fmt"

	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/validation"
)

// connect probes a real node and switches to it only when the probe
// succeeds.
func (n *Node) connect(c *call) (interface{}, error) {
	cfg := models.RPCConfig{URL: c.arg(0), User: c.arg(1), Pass: c.arg(2)}
	if err := validation.ValidateURL(cfg.URL); err != nil {
		return nil, c.usage(err.Error())
	}

	proxy := n.dial(cfg)
	info, err := proxy.Probe(c.ctx)
	if err != nil {
		proxy.Close()
		n.logger.Warn().Err(err).Str("url", cfg.URL).Msg("Connect probe failed")
		return nil, err
	}

	if previous, ok := n.mode.(Connected); ok {
		previous.Proxy.Close()
	}
	cfg.Active = true
	n.mode = Connected{Config: cfg, Proxy: proxy}

	n.logger.Info().
		Str("url", cfg.URL).
		Str("chain", info.Chain).
		Int32("blocks", info.Blocks).
		Msg("Connected to Bitcoin Core")
	n.publish(models.NodeEvent{Kind: models.EventModeChanged, Message: "REAL " + cfg.URL})

	return fmt.Sprintf("Connected to Bitcoin Core at %s (chain: %s, blocks: %d). Commands are now forwarded to this node.",
		cfg.URL, info.Chain, info.Blocks), nil
}

func (n *Node) disconnect(c *call) (interface{}, error) {
	connected, ok := n.mode.(Connected)
	if !ok {
		return "Not connected to a real node. Already in simulation mode.", nil
	}
	connected.Proxy.Close()
	n.mode = Simulated{}

	n.logger.Info().Str("url", connected.Config.URL).Msg("Disconnected from Bitcoin Core")
	n.publish(models.NodeEvent{Kind: models.EventModeChanged, Message: "SIMULATION"})

	return "Disconnected from " + connected.Config.URL + ". Switched back to simulation mode.", nil
}

func (n *Node) startDaemon(c *call) (interface{}, error) {
	if _, ok := c.mode.(Connected); ok {
		return nil, ErrSimulationOnly
	}
	if n.running {
		return "Bitcoin Core is already running.", nil
	}

	n.running = true
	n.generation++
	n.startedAt = n.now()

	n.logger.Info().Str("network", c.network.String()).Msg("Simulated bitcoind started")
	n.publish(models.NodeEvent{Kind: models.EventNodeStarted, Network: c.network})

	return &StartupSequence{
		Lines:      startupLines(c.network, n.height(c.network)),
		Delay:      n.startupDelay,
		node:       n,
		network:    c.network,
		generation: n.generation,
	}, nil
}

func (n *Node) stopDaemon(c *call) (interface{}, error) {
	if _, ok := c.mode.(Connected); ok {
		return nil, ErrSimulationOnly
	}
	if !n.running {
		return "Bitcoin Core is not running.", nil
	}

	n.running = false
	n.startedAt = n.now()

	n.logger.Info().Msg("Simulated bitcoind stopped")
	n.publish(models.NodeEvent{Kind: models.EventNodeStopped, Network: c.network})

	return "Bitcoin Core stopping", nil
}
