// Package store defines the record store contract shared by all rentory
// storage backends, together with the domain types (items, accounts,
// rentals) and operation outcomes.
package store

import "context"

// Store provides synchronized access to the three logical tables backing the
// rental service: items, accounts, and rentals.
//
// Consistency model:
//
// The lock granularity is a backend choice: the file backend guards each
// table with its own critical section so reads of one table proceed
// alongside writes of another, while the memory and badger backends use a
// single coarse lock. In every backend, Rent and Return touch both the
// items and rentals tables and execute as one composite critical section,
// so concurrent rent/return/delete on the same item serialize and quantity
// invariants hold at every observable point.
//
// Persistent backends write the affected table(s) to their backing storage
// before releasing the critical section. A persistence failure is returned
// to the caller; the in-memory table may then be ahead of disk until the
// next successful write of that table.
//
// Thread safety:
// Implementations must be safe for unbounded concurrent callers.
type Store interface {
	// ListItems returns all catalog items ordered by id.
	ListItems(ctx context.Context) ([]Item, error)

	// FindItemByTitle returns the item whose trimmed title matches title
	// case-insensitively, or nil if there is none. When duplicate titles
	// exist the item with the lowest id wins.
	FindItemByTitle(ctx context.Context, title string) (*Item, error)

	// FindItemByID returns the item with the given id, or nil.
	FindItemByID(ctx context.Context, id int) (*Item, error)

	// AddItem inserts a new catalog item. Returns ErrDuplicateItem if the id
	// is already present and ErrInvalidItem if the fields fail validation.
	AddItem(ctx context.Context, item Item) error

	// DeleteItem removes the item with the given id, cascading removal of
	// every rental that references it. Reports false if the id is absent.
	DeleteItem(ctx context.Context, id int) (bool, error)

	// UpdateQuantity replaces the stock quantity of an item. Reports false
	// if the id is absent; quantity < 0 fails with ErrNegativeQuantity.
	UpdateQuantity(ctx context.Context, id, quantity int) (bool, error)

	// ListAccounts returns all accounts (both roles) ordered by id.
	ListAccounts(ctx context.Context) ([]Account, error)

	// Authenticate returns the account matching role, username
	// (case-insensitive, trimmed) and secret, or nil when no account
	// matches. Failed authentication is not an error.
	Authenticate(ctx context.Context, username, secret string, role Role) (*Account, error)

	// Register creates a new account with the next unused id
	// (max existing id + 1, or 1 when the table is empty). Returns
	// ErrUsernameTaken when the username is already used within the role.
	Register(ctx context.Context, username, secret string, role Role) (*Account, error)

	// Rent places the item on loan to the account: requires the item to
	// exist with quantity > 0 and no identical rental row. On success the
	// quantity decrement and rental insert are atomic with respect to all
	// other store operations.
	Rent(ctx context.Context, itemID, accountID int) (RentOutcome, error)

	// Return clears the rental row for (accountID, itemID) and increments
	// the item quantity. If the item was deleted while on loan the rental is
	// still cleared but the outcome is ItemGone and no quantity is restored.
	Return(ctx context.Context, itemID, accountID int) (ReturnOutcome, error)

	// Close releases backend resources. The store must not be used after
	// Close returns.
	Close() error
}
