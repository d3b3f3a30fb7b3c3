// Package console is the interactive bitcoin-cli style front end of the
// simulated node.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/node"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const clearScreen = "\033[H\033[2J"

var (
	green = color.New(color.FgGreen, color.Bold).SprintFunc()
	amber = color.New(color.FgYellow).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

// Executor runs console commands.
type Executor interface {
	Execute(ctx context.Context, command string, args []string, network models.Network, wallet node.WalletContext) (interface{}, error)
}

// Console reads command lines and prints results. It keeps the selected
// network and one active wallet address per network.
type Console struct {
	node    Executor
	network models.Network
	wallets map[models.Network]string
	in      io.Reader
	out     io.Writer
	logger  *zerolog.Logger
}

func New(exec Executor, network models.Network, wallet string, in io.Reader, out io.Writer, logger *zerolog.Logger) *Console {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Console{
		node:    exec,
		network: network,
		wallets: map[models.Network]string{network: wallet},
		in:      in,
		out:     out,
		logger:  logger,
	}
}

func (c *Console) prompt() {
	host := "zenith-testnet"
	if c.network == models.Mainnet {
		host = "zenith-mainnet"
	}
	fmt.Fprintf(c.out, "%s:~$ ", green("user@"+host))
}

// Run reads lines until EOF, "exit" or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, amber(fmt.Sprintf("Zenith Bitcoin Core RPC client version v26.0.0 (%s)", c.network)))
	fmt.Fprintln(c.out, amber(`Type "help" for an overview of available commands.`))

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		c.prompt()
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return ctx.Err()
		case err := <-readErr:
			fmt.Fprintln(c.out)
			return err
		case line := <-lines:
			if quit := c.Handle(ctx, line); quit {
				return nil
			}
		}
	}
}

// Handle runs one line and reports whether the console should exit.
func (c *Console) Handle(ctx context.Context, line string) bool {
	args, err := Tokenize(line)
	if err != nil {
		c.printError(err.Error())
		return false
	}
	if len(args) > 0 && strings.EqualFold(args[0], "bitcoin-cli") {
		args = args[1:]
	}
	if len(args) == 0 {
		return false
	}

	command, args := strings.ToLower(args[0]), args[1:]
	switch command {
	case "exit", "quit":
		return true
	case "clear":
		// screen only, the ledger is untouched
		fmt.Fprint(c.out, clearScreen)
		return false
	case "network":
		c.switchNetwork(args)
		return false
	case "wallet":
		c.setWallet(args)
		return false
	}

	wallet := node.WalletContext{Address: c.wallets[c.network]}
	result, err := c.node.Execute(ctx, command, args, c.network, wallet)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		c.logger.Debug().Err(err).Str("command", command).Msg("Console command failed")
		c.printRPCError(err)
		return false
	}

	if seq, ok := result.(*node.StartupSequence); ok {
		err := seq.Play(ctx, func(line string) {
			fmt.Fprintln(c.out, faint(line))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			c.printError(err.Error())
		}
		return false
	}

	if out := Format(result); out != "" {
		fmt.Fprintln(c.out, out)
	}
	return false
}

func (c *Console) switchNetwork(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, c.network)
		return
	}
	network, err := models.ParseNetwork(args[0])
	if err != nil {
		c.printError(err.Error())
		return
	}
	c.network = network
	fmt.Fprintln(c.out, cyan(fmt.Sprintf("Switched to %s mode.", network)))
}

func (c *Console) setWallet(args []string) {
	if len(args) == 0 {
		if addr := c.wallets[c.network]; addr != "" {
			fmt.Fprintln(c.out, addr)
		} else {
			fmt.Fprintln(c.out, "No wallet loaded.")
		}
		return
	}
	addr := args[0]
	if strings.EqualFold(addr, "none") {
		addr = ""
	}
	c.wallets[c.network] = addr
	if addr == "" {
		fmt.Fprintln(c.out, cyan(fmt.Sprintf("Wallet unloaded on %s.", c.network)))
		return
	}
	fmt.Fprintln(c.out, cyan(fmt.Sprintf("Active %s wallet: %s", c.network, addr)))
}

func (c *Console) printRPCError(err error) {
	fmt.Fprintln(c.out, red(fmt.Sprintf("error code: %d\nerror message:\n%s", node.ErrorCode(err), err)))
}

func (c *Console) printError(msg string) {
	fmt.Fprintln(c.out, red("error: "+msg))
}
