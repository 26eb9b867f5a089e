// Package badger implements a rentory store backend persisted in BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/rentory/rentory/pkg/store"
)

// BadgerStore implements store.Store on top of BadgerDB, an embedded
// log-structured key-value store. It is the alternative to the flat-file
// backend for deployments that prefer WAL-based crash recovery over
// full-file rewrites; behavior through the store.Store interface is
// identical.
//
// Thread safety:
// All operations are protected by a single read-write mutex, with each
// operation additionally running inside one Badger transaction. The mutex
// serializes multi-key read-modify-write sequences (rent, return, register)
// without transaction-conflict retries; the transaction makes each mutation
// atomic on disk.
type BadgerStore struct {
	mu sync.RWMutex
	db *badger.DB
}

// Open creates or opens a Badger-backed store at path and bootstraps the
// default admin account if no admin exists.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	return open(opts)
}

// OpenInMemory opens an ephemeral Badger store, used by tests.
func OpenInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &BadgerStore{db: db}
	if err := s.ensureDefaultAdmin(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) ensureDefaultAdmin() error {
	return s.db.Update(func(txn *badger.Txn) error {
		accounts, err := scanAccounts(txn)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			if a.Role == store.RoleAdmin {
				return nil
			}
		}

		hash, err := store.HashSecret(store.DefaultAdminSecret)
		if err != nil {
			return err
		}
		return putJSON(txn, accountKey(store.DefaultAdminID), store.Account{
			ID:         store.DefaultAdminID,
			Username:   store.DefaultAdminUsername,
			SecretHash: hash,
			Role:       store.RoleAdmin,
		})
	})
}

// ============================================================================
// Item operations
// ============================================================================

func (s *BadgerStore) ListItems(ctx context.Context) ([]store.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []store.Item
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		items, err = scanItems(txn)
		return err
	})
	return items, err
}

func (s *BadgerStore) FindItemByTitle(ctx context.Context, title string) (*store.Item, error) {
	title = strings.TrimSpace(title)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *store.Item
	err := s.db.View(func(txn *badger.Txn) error {
		items, err := scanItems(txn)
		if err != nil {
			return err
		}
		// Scan order is ascending id, so the first match has the lowest id.
		for _, it := range items {
			if strings.EqualFold(it.Title, title) {
				match := it
				found = &match
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *BadgerStore) FindItemByID(ctx context.Context, id int) (*store.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *store.Item
	err := s.db.View(func(txn *badger.Txn) error {
		it, err := getItem(txn, id)
		if err != nil {
			return err
		}
		found = it
		return nil
	})
	return found, err
}

func (s *BadgerStore) AddItem(ctx context.Context, item store.Item) error {
	item, err := store.NewItem(item.ID, item.Title, item.Quantity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		existing, err := getItem(txn, item.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("add item %d: %w", item.ID, store.ErrDuplicateItem)
		}
		return putJSON(txn, itemKey(item.ID), item)
	})
}

func (s *BadgerStore) DeleteItem(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed bool
	err := s.db.Update(func(txn *badger.Txn) error {
		existing, err := getItem(txn, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if err := txn.Delete(itemKey(id)); err != nil {
			return err
		}
		removed = true

		// Cascade: drop every rental row referencing the item.
		rentals, err := scanRentals(txn)
		if err != nil {
			return err
		}
		for _, r := range rentals {
			if r.ItemID == id {
				if err := txn.Delete(rentalKey(r.AccountID, r.ItemID)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return removed, err
}

func (s *BadgerStore) UpdateQuantity(ctx context.Context, id, quantity int) (bool, error) {
	if quantity < 0 {
		return false, fmt.Errorf("update quantity for item %d: %w", id, store.ErrNegativeQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var found bool
	err := s.db.Update(func(txn *badger.Txn) error {
		it, err := getItem(txn, id)
		if err != nil {
			return err
		}
		if it == nil {
			return nil
		}
		found = true
		it.Quantity = quantity
		return putJSON(txn, itemKey(id), *it)
	})
	return found, err
}

// ============================================================================
// Account operations
// ============================================================================

func (s *BadgerStore) ListAccounts(ctx context.Context) ([]store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []store.Account
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		accounts, err = scanAccounts(txn)
		return err
	})
	return accounts, err
}

func (s *BadgerStore) Authenticate(ctx context.Context, username, secret string, role store.Role) (*store.Account, error) {
	username = strings.TrimSpace(username)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *store.Account
	err := s.db.View(func(txn *badger.Txn) error {
		accounts, err := scanAccounts(txn)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			if a.Role == role && strings.EqualFold(a.Username, username) && a.CheckSecret(secret) {
				match := a
				found = &match
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *BadgerStore) Register(ctx context.Context, username, secret string, role store.Role) (*store.Account, error) {
	username, err := store.ValidateCredentials(username, secret)
	if err != nil {
		return nil, err
	}

	hash, err := store.HashSecret(secret)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var account store.Account
	err = s.db.Update(func(txn *badger.Txn) error {
		accounts, err := scanAccounts(txn)
		if err != nil {
			return err
		}

		nextID := 1
		for _, a := range accounts {
			if a.Role == role && strings.EqualFold(a.Username, username) {
				return fmt.Errorf("register %q: %w", username, store.ErrUsernameTaken)
			}
			if a.ID >= nextID {
				nextID = a.ID + 1
			}
		}

		account = store.Account{ID: nextID, Username: username, SecretHash: hash, Role: role}
		return putJSON(txn, accountKey(account.ID), account)
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ============================================================================
// Rental operations
// ============================================================================

func (s *BadgerStore) Rent(ctx context.Context, itemID, accountID int) (store.RentOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := store.NotAvailable
	err := s.db.Update(func(txn *badger.Txn) error {
		it, err := getItem(txn, itemID)
		if err != nil {
			return err
		}
		if it == nil || it.Quantity <= 0 {
			outcome = store.NotAvailable
			return nil
		}

		_, err = txn.Get(rentalKey(accountID, itemID))
		switch err {
		case nil:
			outcome = store.AlreadyRented
			return nil
		case badger.ErrKeyNotFound:
			// No rental row, proceed.
		default:
			return err
		}

		if err := txn.Set(rentalKey(accountID, itemID), nil); err != nil {
			return err
		}
		it.Quantity--
		if err := putJSON(txn, itemKey(itemID), *it); err != nil {
			return err
		}
		outcome = store.Rented
		return nil
	})
	return outcome, err
}

func (s *BadgerStore) Return(ctx context.Context, itemID, accountID int) (store.ReturnOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := store.NotRented
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(rentalKey(accountID, itemID))
		if err == badger.ErrKeyNotFound {
			outcome = store.NotRented
			return nil
		}
		if err != nil {
			return err
		}

		if err := txn.Delete(rentalKey(accountID, itemID)); err != nil {
			return err
		}

		it, err := getItem(txn, itemID)
		if err != nil {
			return err
		}
		if it == nil {
			outcome = store.ItemGone
			return nil
		}

		it.Quantity++
		if err := putJSON(txn, itemKey(itemID), *it); err != nil {
			return err
		}
		outcome = store.Returned
		return nil
	})
	return outcome, err
}

// ============================================================================
// Transaction helpers
// ============================================================================

func putJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func getItem(txn *badger.Txn, id int) (*store.Item, error) {
	entry, err := txn.Get(itemKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var it store.Item
	if err := entry.Value(func(val []byte) error {
		return json.Unmarshal(val, &it)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal item %d: %w", id, err)
	}
	return &it, nil
}

// scanItems returns all items in ascending id order (key order).
func scanItems(txn *badger.Txn) ([]store.Item, error) {
	var items []store.Item
	err := scanPrefix(txn, itemPrefix, func(item *badger.Item) error {
		var it store.Item
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &it)
		}); err != nil {
			return fmt.Errorf("unmarshal %s: %w", item.Key(), err)
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

// scanAccounts returns all accounts in ascending id order (key order).
func scanAccounts(txn *badger.Txn) ([]store.Account, error) {
	var accounts []store.Account
	err := scanPrefix(txn, accountPrefix, func(item *badger.Item) error {
		var a store.Account
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		}); err != nil {
			return fmt.Errorf("unmarshal %s: %w", item.Key(), err)
		}
		accounts = append(accounts, a)
		return nil
	})
	return accounts, err
}

func scanRentals(txn *badger.Txn) ([]store.Rental, error) {
	var rentals []store.Rental
	err := scanPrefix(txn, rentalPrefix, func(item *badger.Item) error {
		accountID, itemID, err := parseRentalKey(item.Key())
		if err != nil {
			return fmt.Errorf("parse rental key %s: %w", item.Key(), err)
		}
		rentals = append(rentals, store.Rental{AccountID: accountID, ItemID: itemID})
		return nil
	})
	return rentals, err
}

func scanPrefix(txn *badger.Txn, prefix string, fn func(*badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := fn(it.Item()); err != nil {
			return err
		}
	}
	return nil
}
