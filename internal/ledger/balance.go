package ledger

import (
	"bitcoin-node-sim/internal/models"

	"github.com/shopspring/decimal"
)

// CalculateBalance folds a log into a balance: receives credit, sends debit
// amount plus fee, failed transactions count for nothing.
func CalculateBalance(history []models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range history {
		if tx.Status == models.Failed {
			continue
		}
		if tx.Type == models.Receive {
			balance = balance.Add(tx.Amount)
		} else {
			balance = balance.Sub(tx.Amount).Sub(tx.Fee)
		}
	}
	return balance
}

// Unspent is a simulated wallet output.
type Unspent struct {
	TxID          string
	Vout          uint32
	Amount        decimal.Decimal
	Confirmations int64
}

// UnspentOutputs spends receives oldest first against the total debits of
// the log. A partially spent receive comes back as change of the latest
// send, so the outputs always sum to CalculateBalance. Change follows the
// recipient outputs and carries the send's confirmations, so it is only
// listed once the caller accepts unconfirmed outputs.
func UnspentOutputs(history []models.Transaction) []Unspent {
	debits := decimal.Zero
	var lastSend *models.Transaction
	for i := range history {
		tx := &history[i]
		if tx.Status == models.Failed || tx.Type != models.Send {
			continue
		}
		debits = debits.Add(tx.Amount).Add(tx.Fee)
		lastSend = tx
	}

	var out []Unspent
	for _, tx := range history {
		if tx.Status == models.Failed || tx.Type != models.Receive {
			continue
		}
		if debits.GreaterThanOrEqual(tx.Amount) {
			debits = debits.Sub(tx.Amount)
			continue
		}
		if debits.IsPositive() && lastSend != nil {
			out = append(out, Unspent{
				TxID:          lastSend.ID,
				Vout:          uint32(max(len(lastSend.Outputs), 1)),
				Amount:        tx.Amount.Sub(debits),
				Confirmations: lastSend.Confirmations,
			})
			debits = decimal.Zero
			continue
		}
		out = append(out, Unspent{
			TxID:          tx.ID,
			Amount:        tx.Amount,
			Confirmations: tx.Confirmations,
		})
	}
	return out
}
