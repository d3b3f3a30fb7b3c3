// Package node implements the simulated Bitcoin Core node: one Execute
// entry point in front of a command table, an injected ledger store and a
// two-state mode (simulation or proxy to a real node).
package node

import (
	"context"
	"strings"
	"sync"
	"time"

	"bitcoin-node-sim/internal/interfaces"
	"bitcoin-node-sim/internal/ledger"
	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/rpc"

	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog"
)

// WalletContext is the active wallet of the caller.
type WalletContext struct {
	Address string
}

// Mode is either Simulated or Connected.
type Mode interface {
	Name() string
}

type Simulated struct{}

func (Simulated) Name() string { return "SIMULATION" }

// Connected proxies every command to a real node.
type Connected struct {
	Config models.RPCConfig
	Proxy  interfaces.RPCProxy
}

func (Connected) Name() string { return "REAL" }

// ProxyFactory builds the proxy used by connect.
type ProxyFactory func(cfg models.RPCConfig) interfaces.RPCProxy

// Options configures a Node. Zero values give an instant, running node.
type Options struct {
	Logger          *zerolog.Logger
	Latency         time.Duration
	StartupLogDelay time.Duration
	Stopped         bool
	Clock           func() time.Time
	Dial            ProxyFactory
}

// Status is a snapshot of the node state.
type Status struct {
	Running bool             `json:"running"`
	Uptime  time.Duration    `json:"uptime"`
	Mode    string           `json:"mode"`
	RPC     models.RPCConfig `json:"rpc"`
}

type Node struct {
	store        ledger.Store
	logger       *zerolog.Logger
	latency      time.Duration
	startupDelay time.Duration
	now          func() time.Time
	dial         ProxyFactory
	feed         event.Feed

	mu         sync.Mutex
	running    bool
	generation uint64
	startedAt  time.Time
	mode       Mode
	heights    map[models.Network]int64
	encrypted  map[string]bool
	rawTxs     map[string]string
	outbox     []models.NodeEvent
}

// New builds a node over the given store.
func New(store ledger.Store, opts Options) *Node {
	n := &Node{
		store:        store,
		logger:       opts.Logger,
		latency:      opts.Latency,
		startupDelay: opts.StartupLogDelay,
		now:          opts.Clock,
		dial:         opts.Dial,
		mode:         Simulated{},
		heights:      make(map[models.Network]int64),
		encrypted:    make(map[string]bool),
		rawTxs:       make(map[string]string),
	}
	if n.logger == nil {
		nop := zerolog.Nop()
		n.logger = &nop
	}
	if n.now == nil {
		n.now = time.Now
	}
	if n.dial == nil {
		logger := n.logger
		n.dial = func(cfg models.RPCConfig) interfaces.RPCProxy {
			return rpc.NewClient(cfg, 4, 30*time.Second, logger)
		}
	}
	if !opts.Stopped {
		n.running = true
		n.generation = 1
		n.startedAt = n.now()
	}
	return n
}

// call carries one invocation through a handler. mode is the mode observed
// when the call started.
type call struct {
	ctx     context.Context
	cmd     *command
	args    []string
	network models.Network
	wallet  WalletContext
	mode    Mode
}

func (c *call) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

func (c *call) usage(reason string) error {
	return &UsageError{Usage: c.cmd.Usage, Reason: reason}
}

// Execute runs one console command. The result is command specific; every
// failure is a single error with a human readable message.
func (n *Node) Execute(ctx context.Context, command string, args []string, network models.Network, wallet WalletContext) (interface{}, error) {
	if err := sleep(ctx, n.latency); err != nil {
		return nil, err
	}

	n.mu.Lock()
	result, err := n.dispatch(ctx, command, args, network, wallet)
	pending := n.outbox
	n.outbox = nil
	n.mu.Unlock()

	// a subscriber that stops reading stalls only this caller
	n.deliver(pending)
	return result, err
}

// dispatch runs one command with n.mu held.
func (n *Node) dispatch(ctx context.Context, command string, args []string, network models.Network, wallet WalletContext) (interface{}, error) {
	name := strings.ToLower(strings.TrimSpace(command))
	cmd, known := commandTable[name]

	c := &call{
		ctx:     ctx,
		cmd:     cmd,
		args:    args,
		network: network,
		wallet:  wallet,
		mode:    n.mode,
	}

	if known && cmd.Control {
		return n.run(c)
	}

	if connected, ok := c.mode.(Connected); ok {
		result, err := connected.Proxy.Forward(ctx, name, args)
		if err != nil {
			n.logger.Debug().Err(err).Str("command", name).Msg("Proxied command failed")
		}
		return result, err
	}

	if !known {
		return nil, &UnknownCommandError{Command: name}
	}
	if !n.running {
		return nil, ErrNodeNotRunning
	}
	if cmd.Wallet && wallet.Address == "" {
		return nil, ErrNoWallet
	}
	return n.run(c)
}

func (n *Node) run(c *call) (interface{}, error) {
	if len(c.args) < c.cmd.MinArgs {
		return nil, c.usage("")
	}
	result, err := c.cmd.Run(n, c)
	if err != nil {
		n.logger.Debug().
			Err(err).
			Str("command", c.cmd.Name).
			Str("network", c.network.String()).
			Msg("Command failed")
	}
	return result, err
}

// Status returns the current node state.
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := Status{Running: n.running, Mode: n.mode.Name()}
	if n.running {
		s.Uptime = n.now().Sub(n.startedAt)
	}
	if connected, ok := n.mode.(Connected); ok {
		s.RPC = connected.Config
	}
	return s
}

// SubscribeEvents delivers every NodeEvent to ch until the subscription is
// closed.
func (n *Node) SubscribeEvents(ch chan<- models.NodeEvent) event.Subscription {
	return n.feed.Subscribe(ch)
}

// publish queues ev for delivery once the current call releases n.mu.
func (n *Node) publish(ev models.NodeEvent) {
	ev.Timestamp = n.now()
	n.outbox = append(n.outbox, ev)
}

// deliver must be called without n.mu held.
func (n *Node) deliver(events []models.NodeEvent) {
	for _, ev := range events {
		n.feed.Send(ev)
	}
}

// Close drops a real node connection, if any.
func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if connected, ok := n.mode.(Connected); ok {
		connected.Proxy.Close()
	}
	n.mode = Simulated{}
}

func (n *Node) height(network models.Network) int64 {
	if h, ok := n.heights[network]; ok {
		return h
	}
	return network.BaseHeight()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
