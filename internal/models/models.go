package models

import (
	"time"
)

// Contact is an address book entry.
type Contact struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Network Network `json:"network"`
}

// RPCConfig describes a real Bitcoin Core endpoint.
type RPCConfig struct {
	URL    string `json:"url"`
	User   string `json:"user"`
	Pass   string `json:"-"`
	Active bool   `json:"active"`
}

type EventKind string

const (
	EventNodeStarted    EventKind = "node_started"
	EventNodeStopped    EventKind = "node_stopped"
	EventStartupLog     EventKind = "startup_log"
	EventModeChanged    EventKind = "mode_changed"
	EventTransactionNew EventKind = "transaction_appended"
)

// NodeEvent is published by the simulated node on every state change.
type NodeEvent struct {
	Kind        EventKind    `json:"kind"`
	Network     Network      `json:"network,omitempty"`
	Address     string       `json:"address,omitempty"`
	Message     string       `json:"message,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// TransactionEvent is what leaves the process through an EventEmitter.
type TransactionEvent struct {
	Network     Network     `json:"network"`
	Wallet      string      `json:"wallet"`
	Transaction Transaction `json:"transaction"`
	Timestamp   time.Time   `json:"timestamp"`
}
