// Package contacts is a persistent address book kept in LevelDB. Values are
// JSON encoded contacts under a "contact:" key prefix.
package contacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/validation"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const keyPrefix = "contact:"

var (
	ErrNotFound  = errors.New("contact not found")
	ErrDuplicate = errors.New("address already in the contact book")
)

// Book stores contacts.
type Book struct {
	conn *leveldb.DB
}

// Open opens (or creates) a contact book at path.
func Open(path string) (*Book, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open contact book %s: %w", path, err)
	}
	return &Book{conn: db}, nil
}

// OpenMemory returns a book that lives only as long as the process.
func OpenMemory() (*Book, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open in-memory contact book: %w", err)
	}
	return &Book{conn: db}, nil
}

func (b *Book) Close() error {
	return b.conn.Close()
}

// Add validates and stores a new contact.
func (b *Book) Add(name, address string, network models.Network) (models.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Contact{}, errors.New("name cannot be empty")
	}
	if _, err := validation.ValidateAddress(address, network); err != nil {
		return models.Contact{}, err
	}

	existing, err := b.List(network)
	if err != nil {
		return models.Contact{}, err
	}
	for _, c := range existing {
		if c.Address == address {
			return models.Contact{}, ErrDuplicate
		}
	}

	contact := models.Contact{
		ID:      uuid.NewString(),
		Name:    name,
		Address: address,
		Network: network,
	}
	value, err := json.Marshal(contact)
	if err != nil {
		return models.Contact{}, fmt.Errorf("marshal contact: %w", err)
	}
	if err := b.conn.Put(key(contact.ID), value, nil); err != nil {
		return models.Contact{}, fmt.Errorf("store contact: %w", err)
	}
	return contact, nil
}

func (b *Book) Get(id string) (models.Contact, error) {
	value, err := b.conn.Get(key(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return models.Contact{}, ErrNotFound
	}
	if err != nil {
		return models.Contact{}, fmt.Errorf("load contact %s: %w", id, err)
	}

	var contact models.Contact
	if err := json.Unmarshal(value, &contact); err != nil {
		return models.Contact{}, fmt.Errorf("decode contact %s: %w", id, err)
	}
	return contact, nil
}

// List returns the contacts of network sorted by name, or every contact
// when network is empty.
func (b *Book) List(network models.Network) ([]models.Contact, error) {
	iter := b.conn.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	out := []models.Contact{}
	for iter.Next() {
		var contact models.Contact
		if err := json.Unmarshal(iter.Value(), &contact); err != nil {
			return nil, fmt.Errorf("decode contact %s: %w", iter.Key(), err)
		}
		if network == "" || contact.Network == network {
			out = append(out, contact)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (b *Book) Delete(id string) error {
	if _, err := b.Get(id); err != nil {
		return err
	}
	if err := b.conn.Delete(key(id), nil); err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	return nil
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}
