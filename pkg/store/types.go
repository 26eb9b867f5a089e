package store

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role is the authorization tier of an account. It gates which protocol
// commands a session may invoke and scopes username uniqueness: a customer
// and an admin may share a username, two customers may not.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole parses a wire or storage role token (case-insensitive).
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleCustomer):
		return RoleCustomer, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Item is a catalog entry with a stock quantity.
type Item struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// NewItem validates and normalizes an item. The title is trimmed; empty
// titles, negative ids, negative quantities, and titles containing the field
// separator are rejected.
func NewItem(id int, title string, quantity int) (Item, error) {
	title = strings.TrimSpace(title)
	switch {
	case id < 0:
		return Item{}, fmt.Errorf("%w: id cannot be negative", ErrInvalidItem)
	case title == "":
		return Item{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidItem)
	case strings.ContainsRune(title, FieldSeparator):
		return Item{}, fmt.Errorf("%w: title cannot contain %q", ErrInvalidItem, FieldSeparator)
	case quantity < 0:
		return Item{}, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidItem)
	}
	return Item{ID: id, Title: title, Quantity: quantity}, nil
}

// FieldSeparator delimits fields both on the wire and in the flat-file
// record format. Titles and usernames must not contain it.
const FieldSeparator = '|'

// ValidateCredentials checks the username/secret pair supplied to Register.
// The username is returned trimmed.
func ValidateCredentials(username, secret string) (string, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return "", fmt.Errorf("username cannot be empty")
	case strings.ContainsRune(username, FieldSeparator):
		return "", fmt.Errorf("username cannot contain %q", FieldSeparator)
	case secret == "":
		return "", fmt.Errorf("secret cannot be empty")
	}
	return username, nil
}

// Account is a user identity with a role.
//
// SecretHash holds a bcrypt hash of the account secret; the plaintext secret
// never reaches storage.
type Account struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	SecretHash string `json:"secret_hash"`
	Role       Role   `json:"role"`
}

// CheckSecret reports whether secret matches the account's stored hash.
func (a *Account) CheckSecret(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.SecretHash), []byte(secret)) == nil
}

// HashSecret hashes a plaintext secret for storage.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// Rental is an open loan linking one account to one item. The
// (AccountID, ItemID) pair is unique: an account holds at most one copy of
// any given item.
type Rental struct {
	AccountID int `json:"account_id"`
	ItemID    int `json:"item_id"`
}

// Bootstrap admin credentials. Every store backend guarantees that at least
// one admin account exists after opening; when none is found this account is
// created with id DefaultAdminID and persisted.
const (
	DefaultAdminID       = 1
	DefaultAdminUsername = "admin"
	DefaultAdminSecret   = "admin"
)
