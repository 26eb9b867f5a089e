// Package memory implements an in-memory rentory store backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rentory/rentory/pkg/store"
)

// MemoryStore implements store.Store using in-memory data structures only.
//
// It is suitable for tests, development environments, and ephemeral
// deployments where persistence is not required. Nothing survives a restart.
//
// Thread safety:
// All operations are protected by a single read-write mutex. This
// coarse-grained locking is simple and correct; cross-table operations
// (Rent, Return, DeleteItem) are trivially atomic under it.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[int]store.Item
	accounts map[int]store.Account
	rentals  []store.Rental
}

// New creates an empty in-memory store with the default admin account
// already bootstrapped.
func New() (*MemoryStore, error) {
	s := &MemoryStore{
		items:    make(map[int]store.Item),
		accounts: make(map[int]store.Account),
	}

	hash, err := store.HashSecret(store.DefaultAdminSecret)
	if err != nil {
		return nil, err
	}
	s.accounts[store.DefaultAdminID] = store.Account{
		ID:         store.DefaultAdminID,
		Username:   store.DefaultAdminUsername,
		SecretHash: hash,
		Role:       store.RoleAdmin,
	}

	return s, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) ListItems(ctx context.Context) ([]store.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedItems(s.items), nil
}

func (s *MemoryStore) FindItemByTitle(ctx context.Context, title string) (*store.Item, error) {
	title = strings.TrimSpace(title)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range sortedItems(s.items) {
		if strings.EqualFold(it.Title, title) {
			found := it
			return &found, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindItemByID(ctx context.Context, id int) (*store.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if it, ok := s.items[id]; ok {
		return &it, nil
	}
	return nil, nil
}

func (s *MemoryStore) AddItem(ctx context.Context, item store.Item) error {
	item, err := store.NewItem(item.ID, item.Title, item.Quantity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("add item %d: %w", item.ID, store.ErrDuplicateItem)
	}
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) DeleteItem(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)

	kept := s.rentals[:0]
	for _, r := range s.rentals {
		if r.ItemID != id {
			kept = append(kept, r)
		}
	}
	s.rentals = kept
	return true, nil
}

func (s *MemoryStore) UpdateQuantity(ctx context.Context, id, quantity int) (bool, error) {
	if quantity < 0 {
		return false, fmt.Errorf("update quantity for item %d: %w", id, store.ErrNegativeQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return false, nil
	}
	it.Quantity = quantity
	s.items[id] = it
	return true, nil
}

func (s *MemoryStore) ListAccounts(ctx context.Context) ([]store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Authenticate(ctx context.Context, username, secret string, role store.Role) (*store.Account, error) {
	username = strings.TrimSpace(username)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Role == role && strings.EqualFold(a.Username, username) && a.CheckSecret(secret) {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Register(ctx context.Context, username, secret string, role store.Role) (*store.Account, error) {
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

	nextID := 1
	for id, a := range s.accounts {
		if a.Role == role && strings.EqualFold(a.Username, username) {
			return nil, fmt.Errorf("register %q: %w", username, store.ErrUsernameTaken)
		}
		if id >= nextID {
			nextID = id + 1
		}
	}

	account := store.Account{ID: nextID, Username: username, SecretHash: hash, Role: role}
	s.accounts[account.ID] = account
	return &account, nil
}

func (s *MemoryStore) Rent(ctx context.Context, itemID, accountID int) (store.RentOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[itemID]
	if !ok || it.Quantity <= 0 {
		return store.NotAvailable, nil
	}
	for _, r := range s.rentals {
		if r.ItemID == itemID && r.AccountID == accountID {
			return store.AlreadyRented, nil
		}
	}

	s.rentals = append(s.rentals, store.Rental{AccountID: accountID, ItemID: itemID})
	it.Quantity--
	s.items[itemID] = it
	return store.Rented, nil
}

func (s *MemoryStore) Return(ctx context.Context, itemID, accountID int) (store.ReturnOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.rentals {
		if r.ItemID == itemID && r.AccountID == accountID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return store.NotRented, nil
	}
	s.rentals = append(s.rentals[:idx], s.rentals[idx+1:]...)

	it, ok := s.items[itemID]
	if !ok {
		return store.ItemGone, nil
	}
	it.Quantity++
	s.items[itemID] = it
	return store.Returned, nil
}

func sortedItems(items map[int]store.Item) []store.Item {
	out := make([]store.Item, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
