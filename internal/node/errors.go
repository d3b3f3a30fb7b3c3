package node

import (
	"errors"
	"fmt"

	"bitcoin-node-sim/internal/rpc"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/shopspring/decimal"
)

var (
	ErrNoWallet         = errors.New("No wallet loaded. Please import or create a wallet.")
	ErrNodeNotRunning   = errors.New("Could not connect to the server 127.0.0.1\n\nMake sure the bitcoind server is running and that you are connecting to the correct RPC port.\nUse \"bitcoind\" to start the simulated node.")
	ErrSimulationOnly   = errors.New("bitcoind and stop control the simulated node only. Use \"disconnect\" to leave the real node first.")
	ErrInvalidOutputMap = errors.New("Invalid output map. Expected JSON object.")
	ErrStartupAborted   = errors.New("startup aborted: node was stopped")
)

// Bitcoin Core error codes used by the HTTP facade.
const (
	codeMisc            btcjson.RPCErrorCode = -1
	codeInvalidAddress  btcjson.RPCErrorCode = -5
	codeInsufficient    btcjson.RPCErrorCode = -6
	codeInvalidParam    btcjson.RPCErrorCode = -8
	codeNotConnected    btcjson.RPCErrorCode = -9
	codeWalletNotFound  btcjson.RPCErrorCode = -18
	codeDeserialization btcjson.RPCErrorCode = -22
	codeWrongEncState   btcjson.RPCErrorCode = -15
	codeMethodNotFound  btcjson.RPCErrorCode = -32601
	codeConnectionError btcjson.RPCErrorCode = -28
	codeVerifyRejected  btcjson.RPCErrorCode = -26
)

// UsageError is a wrong argument count or type.
type UsageError struct {
	Usage  string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s\nUsage: %s", e.Reason, e.Usage)
	}
	return "Usage: " + e.Usage
}

// UnknownCommandError is returned for names missing from the command table.
type UnknownCommandError struct {
	Command string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("Command not found: %s. Type \"help\" for a list of commands.", e.Command)
}

// InsufficientFundsError reports why a spend was refused.
type InsufficientFundsError struct {
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Balance)
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Insufficient funds. Balance: %s, Required: %s, Shortfall: %s",
		e.Balance.StringFixed(8), e.Required.StringFixed(8), e.Shortfall().StringFixed(8))
}

// NotFoundError is a lookup of an unknown block or transaction.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What
}

// DecodeError is a raw transaction that cannot be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("TX decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// WalletStateError is an operation refused by the wallet's current state.
type WalletStateError struct {
	Message string
}

func (e *WalletStateError) Error() string {
	return e.Message
}

// RejectedError is a raw transaction refused by the simulated mempool.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// ErrorCode maps an Execute error to the Bitcoin Core RPC code a client of
// the JSON-RPC facade expects.
func ErrorCode(err error) btcjson.RPCErrorCode {
	var (
		usage    *UsageError
		unknown  *UnknownCommandError
		funds    *InsufficientFundsError
		notFound *NotFoundError
		decode   *DecodeError
		state    *WalletStateError
		rejected *RejectedError
		remote   *rpc.RemoteError
		auth     *rpc.AuthError
		trans    *rpc.TransportError
	)
	switch {
	case errors.As(err, &usage):
		return codeInvalidParam
	case errors.As(err, &unknown):
		return codeMethodNotFound
	case errors.As(err, &funds):
		return codeInsufficient
	case errors.As(err, &notFound):
		return codeInvalidAddress
	case errors.As(err, &decode):
		return codeDeserialization
	case errors.As(err, &state):
		return codeWrongEncState
	case errors.As(err, &rejected):
		return codeVerifyRejected
	case errors.As(err, &remote):
		return btcjson.RPCErrorCode(remote.Code)
	case errors.As(err, &auth), errors.As(err, &trans):
		return codeConnectionError
	case errors.Is(err, ErrNoWallet):
		return codeWalletNotFound
	case errors.Is(err, ErrNodeNotRunning):
		return codeNotConnected
	case errors.Is(err, ErrInvalidOutputMap):
		return codeDeserialization
	}
	return codeMisc
}
