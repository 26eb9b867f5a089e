package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/store"
)

func TestNewItem(t *testing.T) {
	item, err := store.NewItem(7, "  Dune ", 3)
	require.NoError(t, err)
	assert.Equal(t, store.Item{ID: 7, Title: "Dune", Quantity: 3}, item)

	for name, args := range map[string]struct {
		id    int
		title string
		qty   int
	}{
		"negative_id":        {-1, "Dune", 1},
		"empty_title":        {1, "  ", 1},
		"separator_in_title": {1, "Du|ne", 1},
		"negative_quantity":  {1, "Dune", -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := store.NewItem(args.id, args.title, args.qty)
			assert.ErrorIs(t, err, store.ErrInvalidItem)
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, token := range []string{"ADMIN", "admin", " Admin "} {
		role, err := store.ParseRole(token)
		require.NoError(t, err)
		assert.Equal(t, store.RoleAdmin, role)
	}

	role, err := store.ParseRole("customer")
	require.NoError(t, err)
	assert.Equal(t, store.RoleCustomer, role)

	_, err = store.ParseRole("librarian")
	assert.Error(t, err)
}

func TestValidateCredentials(t *testing.T) {
	username, err := store.ValidateCredentials("  alice ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	_, err = store.ValidateCredentials("  ", "s3cret")
	assert.Error(t, err)
	_, err = store.ValidateCredentials("ali|ce", "s3cret")
	assert.Error(t, err)
	_, err = store.ValidateCredentials("alice", "")
	assert.Error(t, err)
}

func TestSecretHashing(t *testing.T) {
	hash, err := store.HashSecret("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	account := store.Account{SecretHash: hash}
	assert.True(t, account.CheckSecret("s3cret"))
	assert.False(t, account.CheckSecret("wrong"))
}

func TestOutcomeMessages(t *testing.T) {
	assert.Equal(t, "Item rented successfully", store.Rented.String())
	assert.Equal(t, "Item not available", store.NotAvailable.String())
	assert.Equal(t, "Item already rented by this account", store.AlreadyRented.String())
	assert.Equal(t, "Item returned successfully", store.Returned.String())
	assert.Equal(t, "Item not rented by this account", store.NotRented.String())
	assert.Equal(t, "Item deleted from catalog", store.ItemGone.String())
}
