package file

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rentory/rentory/pkg/store"
)

// Flat-file record formats, one record per line:
//
//	items.db     id|title|quantity
//	accounts.db  id|username|secretHash|ROLE
//	rentals.db   accountId|itemId
//
// The separator matches the wire protocol. Items and accounts are written
// sorted by id so a reload reproduces identical listings.

const separator = string(store.FieldSeparator)

func encodeItem(it store.Item) string {
	return fmt.Sprintf("%d%s%s%s%d", it.ID, separator, it.Title, separator, it.Quantity)
}

func decodeItem(line string) (store.Item, error) {
	parts := strings.SplitN(line, separator, 3)
	if len(parts) != 3 {
		return store.Item{}, fmt.Errorf("invalid item record %q", line)
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return store.Item{}, fmt.Errorf("invalid item id in %q: %w", line, err)
	}
	qty, err := strconv.Atoi(parts[2])
	if err != nil {
		return store.Item{}, fmt.Errorf("invalid item quantity in %q: %w", line, err)
	}
	return store.NewItem(id, parts[1], qty)
}

func encodeAccount(a store.Account) string {
	return strings.Join([]string{
		strconv.Itoa(a.ID), a.Username, a.SecretHash, string(a.Role),
	}, separator)
}

func decodeAccount(line string) (store.Account, error) {
	parts := strings.SplitN(line, separator, 4)
	if len(parts) != 4 {
		return store.Account{}, fmt.Errorf("invalid account record %q", line)
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return store.Account{}, fmt.Errorf("invalid account id in %q: %w", line, err)
	}
	role, err := store.ParseRole(parts[3])
	if err != nil {
		return store.Account{}, fmt.Errorf("invalid account record %q: %w", line, err)
	}
	return store.Account{
		ID:         id,
		Username:   strings.TrimSpace(parts[1]),
		SecretHash: parts[2],
		Role:       role,
	}, nil
}

func encodeRental(r store.Rental) string {
	return fmt.Sprintf("%d%s%d", r.AccountID, separator, r.ItemID)
}

func decodeRental(line string) (store.Rental, error) {
	parts := strings.SplitN(line, separator, 2)
	if len(parts) != 2 {
		return store.Rental{}, fmt.Errorf("invalid rental record %q", line)
	}
	accountID, err := strconv.Atoi(parts[0])
	if err != nil {
		return store.Rental{}, fmt.Errorf("invalid rental account id in %q: %w", line, err)
	}
	itemID, err := strconv.Atoi(parts[1])
	if err != nil {
		return store.Rental{}, fmt.Errorf("invalid rental item id in %q: %w", line, err)
	}
	return store.Rental{AccountID: accountID, ItemID: itemID}, nil
}
