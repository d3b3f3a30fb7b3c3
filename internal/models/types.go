package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Send    TransactionType = "SEND"
	Receive TransactionType = "RECEIVE"
)

type TransactionStatus string

const (
	Pending   TransactionStatus = "PENDING"
	Completed TransactionStatus = "COMPLETED"
	Failed    TransactionStatus = "FAILED"
)

// TransactionIO is one side of a funds flow, used for detail display only.
type TransactionIO struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

// Transaction is an entry of a simulated wallet ledger. Once appended to a
// ledger it is never modified.
type Transaction struct {
	ID            string            `json:"id"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	FiatValue     decimal.Decimal   `json:"fiatValue"`
	Timestamp     time.Time         `json:"timestamp"`
	Address       string            `json:"address"`
	Status        TransactionStatus `json:"status"`
	Confirmations int64             `json:"confirmations"`
	Fee           decimal.Decimal   `json:"fee"`
	Inputs        []TransactionIO   `json:"inputs,omitempty"`
	Outputs       []TransactionIO   `json:"outputs,omitempty"`
}

// AddressBalance is one row of listaddressgroupings.
type AddressBalance struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
	Label   string          `json:"label,omitempty"`
}

// ReceivedByAddress is the summary record of listreceivedbyaddress.
type ReceivedByAddress struct {
	Address       string          `json:"address"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int64           `json:"confirmations"`
	Label         string          `json:"label"`
	TxIDs         []string        `json:"txids"`
}
