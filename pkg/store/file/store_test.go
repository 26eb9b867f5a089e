package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/store"
	"github.com/rentory/rentory/pkg/store/file"
	"github.com/rentory/rentory/pkg/store/storetest"
)

func TestFileStore_Conformance(t *testing.T) {
	suite := &storetest.StoreTestSuite{
		NewStore: func(t *testing.T) store.Store {
			st, err := file.Open(t.TempDir())
			require.NoError(t, err)
			return st
		},
	}
	suite.Run(t)
}

// TestFileStore_Restart verifies the full state survives a close/reopen
// cycle: catalog, accounts (including credentials), and open rentals.
func TestFileStore_Restart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := file.Open(dir)
	require.NoError(t, err)

	require.NoError(t, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 2}))
	account, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(t, err)

	outcome, err := st.Rent(ctx, 1, account.ID)
	require.NoError(t, err)
	require.Equal(t, store.Rented, outcome)
	require.NoError(t, st.Close())

	reopened, err := file.Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	item, err := reopened.FindItemByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Dune", item.Title)
	assert.Equal(t, 1, item.Quantity)

	got, err := reopened.Authenticate(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, account.ID, got.ID)

	// The open rental survived: renting again is a double rent, and the
	// return restores stock
	outcome, err = reopened.Rent(ctx, 1, account.ID)
	require.NoError(t, err)
	assert.Equal(t, store.AlreadyRented, outcome)

	returned, err := reopened.Return(ctx, 1, account.ID)
	require.NoError(t, err)
	assert.Equal(t, store.Returned, returned)
}

// TestFileStore_RestartKeepsIDsMonotonic verifies id assignment continues
// from the highest persisted id after a restart.
func TestFileStore_RestartKeepsIDsMonotonic(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := file.Open(dir)
	require.NoError(t, err)
	alice, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := file.Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	bob, err := reopened.Register(ctx, "bob", "s3cret", store.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, alice.ID+1, bob.ID)
}

// TestFileStore_ReturnOfVanishedItem covers a rentals file referencing an
// item missing from the catalog, as left behind by a crash between table
// writes. The rental is cleared without fabricating inventory.
func TestFileStore_ReturnOfVanishedItem(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "rentals.db"), []byte("42|7\n"), 0o644))

	st, err := file.Open(dir)
	require.NoError(t, err)
	defer st.Close()

	returned, err := st.Return(ctx, 7, 42)
	require.NoError(t, err)
	assert.Equal(t, store.ItemGone, returned)

	// The stale rental is gone now
	returned, err = st.Return(ctx, 7, 42)
	require.NoError(t, err)
	assert.Equal(t, store.NotRented, returned)
}

// TestFileStore_OpenRejectsCorruptRecords verifies a malformed table fails
// the load instead of being silently dropped.
func TestFileStore_OpenRejectsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.db"), []byte("not-a-record\n"), 0o644))

	_, err := file.Open(dir)
	require.Error(t, err)
}

// TestFileStore_DefaultAdminPersisted verifies the bootstrapped admin is
// written to accounts.db on first open, not recreated per process.
func TestFileStore_DefaultAdminPersisted(t *testing.T) {
	dir := t.TempDir()

	st, err := file.Open(dir)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	data, err := os.ReadFile(filepath.Join(dir, "accounts.db"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "1|admin|")
	assert.Contains(t, string(data), "|ADMIN")
}
