package validation

import (
	"errors"
	"fmt"
	"net/url"

	"bitcoin-node-sim/internal/models"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
)

var maxMoney = decimal.NewFromInt(21_000_000)

// ValidateAddress checks that address decodes for the given network.
func ValidateAddress(address string, network models.Network) (btcutil.Address, error) {
	if address == "" {
		return nil, errors.New("address cannot be empty")
	}

	params := network.Params()
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("invalid %s address: %w", network, err)
	}
	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("address %s is not a %s address", address, network)
	}
	return addr, nil
}

// ParseAmount parses a base-unit amount and validates it.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("Invalid amount")
	}
	return amount, ValidateAmount(amount)
}

// ValidateAmount validates amount is positive, has at most 8 decimals and
// does not exceed the money supply
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("Invalid amount: must be positive")
	}
	if !amount.Equal(amount.Round(8)) {
		return errors.New("Invalid amount: more than 8 decimal places")
	}
	if amount.GreaterThan(maxMoney) {
		return errors.New("Invalid amount: exceeds the 21000000 supply")
	}
	return nil
}

// ValidateURL validates an RPC endpoint URL
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New("URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("invalid URL: scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("invalid URL: missing host")
	}
	return nil
}
