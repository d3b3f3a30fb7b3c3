package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bitcoin-node-sim/internal/models"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/shopspring/decimal"
)

// Forward sends a console command to the node and reshapes the replies the
// wallet screens consume. Every other result is returned as raw JSON.
func (c *Client) Forward(ctx context.Context, command string, args []string) (interface{}, error) {
	method := strings.ToLower(command)
	raw, err := c.Call(ctx, method, ConvertArgs(args))
	if err != nil {
		return nil, err
	}

	switch method {
	case "listtransactions":
		return MapTransactions(raw)
	case "listaddressgroupings":
		return MapAddressGroupings(raw)
	}
	return raw, nil
}

// ConvertArgs turns console words into RPC params the way bitcoin-cli
// does: anything that parses as JSON is sent as JSON, the rest as strings.
func ConvertArgs(args []string) []interface{} {
	params := make([]interface{}, 0, len(args))
	for _, arg := range args {
		var v interface{}
		dec := json.NewDecoder(strings.NewReader(arg))
		dec.UseNumber()
		if err := dec.Decode(&v); err == nil && !dec.More() && arg != "" {
			params = append(params, v)
			continue
		}
		params = append(params, arg)
	}
	return params
}

// MapTransactions converts a bitcoind listtransactions reply (oldest first)
// into wallet transactions, newest first.
func MapTransactions(raw json.RawMessage) ([]models.Transaction, error) {
	var entries []btcjson.ListTransactionsResult
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unexpected listtransactions reply: %w", err)
	}

	txs := make([]models.Transaction, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]

		typ := models.Receive
		if e.Category == "send" {
			typ = models.Send
		}
		status := models.Completed
		switch {
		case e.Confirmations < 0:
			status = models.Failed
		case e.Confirmations == 0:
			status = models.Pending
		}
		fee := decimal.Zero
		if e.Fee != nil {
			fee = decimal.NewFromFloat(*e.Fee).Abs()
		}

		confs := e.Confirmations
		if confs < 0 {
			confs = 0
		}
		txs = append(txs, models.Transaction{
			ID:            e.TxID,
			Type:          typ,
			Amount:        decimal.NewFromFloat(e.Amount).Abs(),
			Timestamp:     time.Unix(e.Time, 0).UTC(),
			Address:       e.Address,
			Status:        status,
			Confirmations: confs,
			Fee:           fee,
		})
	}
	return txs, nil
}

// MapAddressGroupings flattens [[[address, amount, label?], ...], ...].
func MapAddressGroupings(raw json.RawMessage) ([]models.AddressBalance, error) {
	var groups [][][]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&groups); err != nil {
		return nil, fmt.Errorf("unexpected listaddressgroupings reply: %w", err)
	}

	var out []models.AddressBalance
	for _, group := range groups {
		for _, entry := range group {
			if len(entry) < 2 {
				return nil, fmt.Errorf("unexpected listaddressgroupings entry: %v", entry)
			}
			addr, ok := entry[0].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected listaddressgroupings address: %v", entry[0])
			}
			num, ok := entry[1].(json.Number)
			if !ok {
				return nil, fmt.Errorf("unexpected listaddressgroupings amount: %v", entry[1])
			}
			amount, err := decimal.NewFromString(num.String())
			if err != nil {
				return nil, fmt.Errorf("unexpected listaddressgroupings amount: %w", err)
			}
			balance := models.AddressBalance{Address: addr, Amount: amount}
			if len(entry) > 2 {
				balance.Label, _ = entry[2].(string)
			}
			out = append(out, balance)
		}
	}
	return out, nil
}
