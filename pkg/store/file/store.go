// Package file implements the canonical rentory store backend: in-memory
// authoritative tables mirrored to three flat files that are rewritten in
// full on every mutation.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rentory/rentory/pkg/store"
)

const (
	itemsFile    = "items.db"
	accountsFile = "accounts.db"
	rentalsFile  = "rentals.db"
)

// FileStore implements store.Store backed by newline-delimited flat files.
//
// Thread safety:
// Each table (items, accounts, rentals) is guarded by its own read-write
// mutex, so readers of one table proceed concurrently with writers of
// another. Operations spanning items and rentals (Rent, Return, DeleteItem)
// acquire the items lock first and the rentals lock second, always in that
// order; no code path acquires them in reverse, which rules out lock-order
// deadlocks by construction.
//
// Durability model:
// Mutations update the in-memory table and rewrite the affected file before
// the table lock is released. Files are written to a temporary sibling and
// renamed into place, so a crash mid-write leaves the previous fully-written
// state for the next load. A write error is returned to the caller; memory
// may then be ahead of disk until the next successful write of that table.
type FileStore struct {
	dir string

	itemsMu sync.RWMutex
	items   map[int]store.Item

	accountsMu sync.RWMutex
	accounts   map[int]store.Account

	rentalsMu sync.RWMutex
	rentals   []store.Rental
}

// Open loads (or creates) a file store rooted at dir. Missing backing files
// are treated as empty tables and written on first mutation; existing
// records are loaded, and a default admin account is bootstrapped if no
// admin exists yet.
func Open(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &FileStore{
		dir:      dir,
		items:    make(map[int]store.Item),
		accounts: make(map[int]store.Account),
	}

	if err := s.loadItems(); err != nil {
		return nil, err
	}
	if err := s.loadAccounts(); err != nil {
		return nil, err
	}
	if err := s.loadRentals(); err != nil {
		return nil, err
	}
	if err := s.ensureDefaultAdmin(); err != nil {
		return nil, err
	}

	return s, nil
}

// Close is a no-op for the file store; every mutation is flushed before it
// returns.
func (s *FileStore) Close() error {
	return nil
}

// ============================================================================
// Item operations
// ============================================================================

func (s *FileStore) ListItems(ctx context.Context) ([]store.Item, error) {
	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()
	return sortedItems(s.items), nil
}

func (s *FileStore) FindItemByTitle(ctx context.Context, title string) (*store.Item, error) {
	title = strings.TrimSpace(title)

	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()

	// Lowest id wins when duplicate titles exist.
	for _, it := range sortedItems(s.items) {
		if strings.EqualFold(it.Title, title) {
			found := it
			return &found, nil
		}
	}
	return nil, nil
}

func (s *FileStore) FindItemByID(ctx context.Context, id int) (*store.Item, error) {
	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()

	if it, ok := s.items[id]; ok {
		return &it, nil
	}
	return nil, nil
}

func (s *FileStore) AddItem(ctx context.Context, item store.Item) error {
	item, err := store.NewItem(item.ID, item.Title, item.Quantity)
	if err != nil {
		return err
	}

	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("add item %d: %w", item.ID, store.ErrDuplicateItem)
	}

	s.items[item.ID] = item
	return s.persistItems()
}

func (s *FileStore) DeleteItem(ctx context.Context, id int) (bool, error) {
	var removed bool
	err := s.withItemsAndRentals(func() error {
		if _, ok := s.items[id]; !ok {
			return nil
		}
		delete(s.items, id)
		removed = true

		kept := s.rentals[:0]
		for _, r := range s.rentals {
			if r.ItemID != id {
				kept = append(kept, r)
			}
		}
		s.rentals = kept

		if err := s.persistItems(); err != nil {
			return err
		}
		return s.persistRentals()
	})
	return removed, err
}

func (s *FileStore) UpdateQuantity(ctx context.Context, id, quantity int) (bool, error) {
	if quantity < 0 {
		return false, fmt.Errorf("update quantity for item %d: %w", id, store.ErrNegativeQuantity)
	}

	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return false, nil
	}

	it.Quantity = quantity
	s.items[id] = it
	return true, s.persistItems()
}

// ============================================================================
// Account operations
// ============================================================================

func (s *FileStore) ListAccounts(ctx context.Context) ([]store.Account, error) {
	s.accountsMu.RLock()
	defer s.accountsMu.RUnlock()
	return sortedAccounts(s.accounts), nil
}

func (s *FileStore) Authenticate(ctx context.Context, username, secret string, role store.Role) (*store.Account, error) {
	username = strings.TrimSpace(username)

	s.accountsMu.RLock()
	defer s.accountsMu.RUnlock()

	for _, a := range s.accounts {
		if a.Role == role && strings.EqualFold(a.Username, username) && a.CheckSecret(secret) {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (s *FileStore) Register(ctx context.Context, username, secret string, role store.Role) (*store.Account, error) {
	username, err := store.ValidateCredentials(username, secret)
	if err != nil {
		return nil, err
	}

	hash, err := store.HashSecret(secret)
	if err != nil {
		return nil, err
	}

	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

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
	if err := s.persistAccounts(); err != nil {
		return nil, err
	}
	return &account, nil
}

// ============================================================================
// Rental operations
// ============================================================================

func (s *FileStore) Rent(ctx context.Context, itemID, accountID int) (store.RentOutcome, error) {
	outcome := store.NotAvailable
	err := s.withItemsAndRentals(func() error {
		it, ok := s.items[itemID]
		if !ok || it.Quantity <= 0 {
			outcome = store.NotAvailable
			return nil
		}
		for _, r := range s.rentals {
			if r.ItemID == itemID && r.AccountID == accountID {
				outcome = store.AlreadyRented
				return nil
			}
		}

		s.rentals = append(s.rentals, store.Rental{AccountID: accountID, ItemID: itemID})
		it.Quantity--
		s.items[itemID] = it
		outcome = store.Rented

		if err := s.persistRentals(); err != nil {
			return err
		}
		return s.persistItems()
	})
	return outcome, err
}

func (s *FileStore) Return(ctx context.Context, itemID, accountID int) (store.ReturnOutcome, error) {
	outcome := store.NotRented
	err := s.withItemsAndRentals(func() error {
		idx := -1
		for i, r := range s.rentals {
			if r.ItemID == itemID && r.AccountID == accountID {
				idx = i
				break
			}
		}
		if idx < 0 {
			outcome = store.NotRented
			return nil
		}

		s.rentals = append(s.rentals[:idx], s.rentals[idx+1:]...)

		it, ok := s.items[itemID]
		if !ok {
			// Deleted while on loan: clear the rental without fabricating
			// inventory.
			outcome = store.ItemGone
			return s.persistRentals()
		}

		it.Quantity++
		s.items[itemID] = it
		outcome = store.Returned

		if err := s.persistRentals(); err != nil {
			return err
		}
		return s.persistItems()
	})
	return outcome, err
}

// withItemsAndRentals runs fn with both the items and rentals write locks
// held, acquired in the fixed global order. All cross-table mutations go
// through here so the ordering invariant cannot be violated elsewhere.
func (s *FileStore) withItemsAndRentals(fn func() error) error {
	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()
	s.rentalsMu.Lock()
	defer s.rentalsMu.Unlock()
	return fn()
}

// ============================================================================
// Loading and persistence
// ============================================================================

func (s *FileStore) loadItems() error {
	lines, err := readRecords(filepath.Join(s.dir, itemsFile))
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	for _, line := range lines {
		it, err := decodeItem(line)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		s.items[it.ID] = it
	}
	return nil
}

func (s *FileStore) loadAccounts() error {
	lines, err := readRecords(filepath.Join(s.dir, accountsFile))
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	for _, line := range lines {
		a, err := decodeAccount(line)
		if err != nil {
			return fmt.Errorf("load accounts: %w", err)
		}
		s.accounts[a.ID] = a
	}
	return nil
}

func (s *FileStore) loadRentals() error {
	lines, err := readRecords(filepath.Join(s.dir, rentalsFile))
	if err != nil {
		return fmt.Errorf("load rentals: %w", err)
	}
	for _, line := range lines {
		r, err := decodeRental(line)
		if err != nil {
			return fmt.Errorf("load rentals: %w", err)
		}
		s.rentals = append(s.rentals, r)
	}
	return nil
}

// ensureDefaultAdmin bootstraps the fixed admin account when the accounts
// table holds no admin at all.
func (s *FileStore) ensureDefaultAdmin() error {
	for _, a := range s.accounts {
		if a.Role == store.RoleAdmin {
			return nil
		}
	}

	hash, err := store.HashSecret(store.DefaultAdminSecret)
	if err != nil {
		return err
	}
	s.accounts[store.DefaultAdminID] = store.Account{
		ID:         store.DefaultAdminID,
		Username:   store.DefaultAdminUsername,
		SecretHash: hash,
		Role:       store.RoleAdmin,
	}
	return s.persistAccounts()
}

// persistItems rewrites items.db. Caller must hold the items write lock.
func (s *FileStore) persistItems() error {
	lines := make([]string, 0, len(s.items))
	for _, it := range sortedItems(s.items) {
		lines = append(lines, encodeItem(it))
	}
	return writeRecords(filepath.Join(s.dir, itemsFile), lines)
}

// persistAccounts rewrites accounts.db. Caller must hold the accounts write
// lock.
func (s *FileStore) persistAccounts() error {
	lines := make([]string, 0, len(s.accounts))
	for _, a := range sortedAccounts(s.accounts) {
		lines = append(lines, encodeAccount(a))
	}
	return writeRecords(filepath.Join(s.dir, accountsFile), lines)
}

// persistRentals rewrites rentals.db in insertion order. Caller must hold
// the rentals write lock.
func (s *FileStore) persistRentals() error {
	lines := make([]string, 0, len(s.rentals))
	for _, r := range s.rentals {
		lines = append(lines, encodeRental(r))
	}
	return writeRecords(filepath.Join(s.dir, rentalsFile), lines)
}

func readRecords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			records = append(records, line)
		}
	}
	return records, nil
}

// writeRecords replaces path with the given records via a temporary file and
// rename, so readers never observe a partially written table.
func writeRecords(path string, lines []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	var content strings.Builder
	for _, line := range lines {
		content.WriteString(line)
		content.WriteByte('\n')
	}

	if _, err := tmp.WriteString(content.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func sortedItems(items map[int]store.Item) []store.Item {
	out := make([]store.Item, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedAccounts(accounts map[int]store.Account) []store.Account {
	out := make([]store.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
