package models

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"
)

type Network string

const (
	Mainnet Network = "MAINNET"
	Testnet Network = "TESTNET"
)

func init() {
	// Amounts are rendered as JSON numbers, the way bitcoind does.
	decimal.MarshalJSONWithoutQuotes = true
}

func (n Network) String() string {
	return string(n)
}

// ParseNetwork accepts MAINNET/TESTNET as well as the bitcoind chain names.
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet", "main":
		return Mainnet, nil
	case "testnet", "test", "testnet3":
		return Testnet, nil
	}
	return "", fmt.Errorf("unknown network %q", s)
}

// Params returns the btcd chain parameters used for address encoding.
func (n Network) Params() *chaincfg.Params {
	if n == Mainnet {
		return &chaincfg.MainNetParams
	}
	return &chaincfg.TestNet3Params
}

// ChainName is the value bitcoind reports in getblockchaininfo.
func (n Network) ChainName() string {
	if n == Mainnet {
		return "main"
	}
	return "test"
}

// BaseHeight is the simulated chain tip a fresh node starts from.
func (n Network) BaseHeight() int64 {
	if n == Mainnet {
		return 834120
	}
	return 2578021
}

func (n Network) GenesisAmount() decimal.Decimal {
	if n == Mainnet {
		return decimal.RequireFromString("0.05")
	}
	return decimal.RequireFromString("2.5")
}

func (n Network) GenesisConfirmations() int64 {
	if n == Mainnet {
		return 6
	}
	return 120
}

func (n Network) WalletName() string {
	if n == Mainnet {
		return "ZenithMain"
	}
	return "ZenithTest"
}
