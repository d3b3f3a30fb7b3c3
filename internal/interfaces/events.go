package interfaces

import "bitcoin-node-sim/internal/models"

// EventEmitter defines the interface for emitting ledger events
type EventEmitter interface {
	EmitEvent(event models.TransactionEvent) error
	Close() error
}
