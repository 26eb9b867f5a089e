package badger_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/store"
	"github.com/rentory/rentory/pkg/store/badger"
	"github.com/rentory/rentory/pkg/store/storetest"
)

func TestBadgerStore_Conformance(t *testing.T) {
	suite := &storetest.StoreTestSuite{
		NewStore: func(t *testing.T) store.Store {
			st, err := badger.OpenInMemory()
			require.NoError(t, err)
			return st
		},
	}
	suite.Run(t)
}

// TestBadgerStore_Reopen verifies state persists across database reopens.
func TestBadgerStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rentory.db")
	ctx := context.Background()

	st, err := badger.Open(dbPath)
	require.NoError(t, err)

	require.NoError(t, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 2}))
	account, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(t, err)

	outcome, err := st.Rent(ctx, 1, account.ID)
	require.NoError(t, err)
	require.Equal(t, store.Rented, outcome)
	require.NoError(t, st.Close())

	reopened, err := badger.Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	item, err := reopened.FindItemByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 1, item.Quantity)

	got, err := reopened.Authenticate(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, account.ID, got.ID)

	outcome, err = reopened.Rent(ctx, 1, account.ID)
	require.NoError(t, err)
	assert.Equal(t, store.AlreadyRented, outcome)
}

// TestBadgerStore_ReopenKeepsDefaultAdmin verifies the bootstrap admin is
// written once and does not clobber a replacement admin on reopen.
func TestBadgerStore_ReopenKeepsDefaultAdmin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rentory.db")
	ctx := context.Background()

	st, err := badger.Open(dbPath)
	require.NoError(t, err)

	admin, err := st.Authenticate(ctx, store.DefaultAdminUsername, store.DefaultAdminSecret, store.RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, admin)
	require.NoError(t, st.Close())

	reopened, err := badger.Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	accounts, err := reopened.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}
