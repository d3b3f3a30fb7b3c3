// Package hashing produces the identifiers the simulated node hands out:
// transaction ids, block hashes and pseudo addresses. None of them carry
// real cryptographic meaning.
package hashing

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// NewTxID returns a random 64 character hex transaction id.
func NewTxID() string {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("hashing: entropy source failed: %v", err))
	}
	return chainhash.DoubleHashH(buf[:]).String()
}

// SeededTxID derives a transaction id from the given parts. Same parts,
// same id.
func SeededTxID(parts ...string) string {
	return chainhash.DoubleHashH([]byte(strings.Join(parts, ":"))).String()
}

// BlockHash returns the simulated hash of the block at height on the named
// chain. The trailing bytes are cleared so the displayed hash carries the
// leading zeros of a real proof of work.
func BlockHash(chain string, height int64) chainhash.Hash {
	h := chainhash.DoubleHashH([]byte(fmt.Sprintf("block:%s:%d", chain, height)))
	for i := chainhash.HashSize - 9; i < chainhash.HashSize; i++ {
		h[i] = 0
	}
	return h
}

// DeriveAddress maps a descriptor string onto a P2WPKH address of the given
// network. It stands in for descriptor key derivation and is deterministic.
func DeriveAddress(descriptor string, params *chaincfg.Params) (string, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160([]byte(descriptor)), params)
	if err != nil {
		return "", fmt.Errorf("derive address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// NewAddress returns a fresh random P2WPKH address.
func NewAddress(params *chaincfg.Params) (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("new address: %w", err)
	}
	return DeriveAddress(string(buf[:]), params)
}
