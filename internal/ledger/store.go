package ledger

import (
	"encoding/binary"
	"sync"
	"time"

	"bitcoin-node-sim/internal/hashing"
	"bitcoin-node-sim/internal/models"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/shopspring/decimal"
)

// Store keeps one append-only transaction log per (network, address).
type Store interface {
	GetHistory(network models.Network, address string) []models.Transaction
	SaveHistory(network models.Network, address string, history []models.Transaction)
	Has(network models.Network, address string) bool
}

// MemoryStore is the process-lifetime Store. Nothing is persisted.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]models.Transaction
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs: make(map[string][]models.Transaction),
	}
}

func storeKey(network models.Network, address string) string {
	return network.String() + ":" + address
}

// GetHistory returns a copy of the log, seeding it with the genesis history
// on first access.
func (s *MemoryStore) GetHistory(network models.Network, address string) []models.Transaction {
	key := storeKey(network, address)

	s.mu.RLock()
	history, ok := s.logs[key]
	s.mu.RUnlock()
	if ok {
		return clone(history)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if history, ok = s.logs[key]; !ok {
		history = GenesisHistory(network, address)
		s.logs[key] = history
	}
	return clone(history)
}

// SaveHistory replaces the stored log with history.
func (s *MemoryStore) SaveHistory(network models.Network, address string, history []models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[storeKey(network, address)] = clone(history)
}

func (s *MemoryStore) Has(network models.Network, address string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.logs[storeKey(network, address)]
	return ok
}

func clone(history []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(history))
	copy(out, history)
	return out
}

var genesisAnchor = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

// GenesisHistory is the starter log of a fresh wallet: one confirmed
// receive whose id and date are fixed functions of network and address.
func GenesisHistory(network models.Network, address string) []models.Transaction {
	seed := chainhash.HashH([]byte(storeKey(network, address)))
	hoursBack := time.Duration(binary.BigEndian.Uint16(seed[:2])%720) * time.Hour
	amount := network.GenesisAmount()

	return []models.Transaction{
		{
			ID:            hashing.SeededTxID("genesis", network.String(), address),
			Type:          models.Receive,
			Amount:        amount,
			Timestamp:     genesisAnchor.Add(-hoursBack),
			Address:       address,
			Status:        models.Completed,
			Confirmations: network.GenesisConfirmations(),
			Fee:           decimal.Zero,
			Outputs:       []models.TransactionIO{{Address: address, Amount: amount}},
		},
	}
}
