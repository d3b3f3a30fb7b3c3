package console

import (
	"bytes"
	"encoding/json"
	"fmt"

	"bitcoin-node-sim/internal/node"

	"github.com/shopspring/decimal"
)

// Format renders a command result the way bitcoin-cli prints it: strings
// and numbers bare, amounts with eight decimals, everything else as
// indented JSON.
func Format(result interface{}) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case decimal.Decimal:
		return v.StringFixed(8)
	case int, int32, int64, uint32, uint64, bool:
		return fmt.Sprint(v)
	case json.RawMessage:
		return indentRaw(v)
	case *node.StartupSequence:
		return v.String()
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(out)
}

func indentRaw(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}
