package events

import (
	"fmt"

	"bitcoin-node-sim/internal/interfaces"
	"bitcoin-node-sim/internal/logger"
	"bitcoin-node-sim/internal/models"
)

// LogEmitter wraps another emitter and logs every ledger append
type LogEmitter struct {
	WrappedEmitter interfaces.EventEmitter
}

// EmitEvent logs the transaction and forwards to the wrapped emitter
func (e *LogEmitter) EmitEvent(event models.TransactionEvent) error {
	tx := event.Transaction
	logger.GetLogger().Info().
		Str("network", event.Network.String()).
		Str("wallet", event.Wallet).
		Str("txid", tx.ID).
		Str("type", string(tx.Type)).
		Str("address", tx.Address).
		Str("amount", tx.Amount.StringFixed(8)).
		Str("fee", tx.Fee.StringFixed(8)).
		Str("explorer", ExplorerURL(event.Network, tx.ID)).
		Time("timestamp", event.Timestamp).
		Msg("Ledger transaction")

	if e.WrappedEmitter != nil {
		return e.WrappedEmitter.EmitEvent(event)
	}
	return nil
}

func (e *LogEmitter) Close() error {
	if e.WrappedEmitter != nil {
		return e.WrappedEmitter.Close()
	}
	return nil
}

// ExplorerURL links a transaction id on mempool.space. Simulated ids will
// not resolve there, proxied ones will.
func ExplorerURL(network models.Network, txid string) string {
	if network == models.Mainnet {
		return fmt.Sprintf("https://mempool.space/tx/%s", txid)
	}
	return fmt.Sprintf("https://mempool.space/testnet/tx/%s", txid)
}
