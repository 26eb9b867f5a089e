package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/store"
)

func (suite *StoreTestSuite) RunRentalTests(test *testing.T) {
	test.Run("Rent_Success", suite.TestRent_Success)
	test.Run("Rent_NotAvailable", suite.TestRent_NotAvailable)
	test.Run("Rent_AlreadyRented", suite.TestRent_AlreadyRented)
	test.Run("Rent_LastCopy", suite.TestRent_LastCopy)
	test.Run("Return_Success", suite.TestReturn_Success)
	test.Run("Return_NotRented", suite.TestReturn_NotRented)
	test.Run("DeleteItem_ClearsRentals", suite.TestDeleteItem_ClearsRentals)
}

// TestRent_Success verifies a rental decrements availability by one.
func (suite *StoreTestSuite) TestRent_Success(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 3}))
	account, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	outcome, err := st.Rent(ctx, 1, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.Rented, outcome)

	item, err := st.FindItemByID(ctx, 1)
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, 2, item.Quantity)
}

// TestRent_NotAvailable verifies the unknown-item and out-of-stock cases
// produce the same generic outcome, revealing nothing about which occurred.
func (suite *StoreTestSuite) TestRent_NotAvailable(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 0}))
	account, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	outcome, err := st.Rent(ctx, 1, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.NotAvailable, outcome)

	outcome, err = st.Rent(ctx, 404, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.NotAvailable, outcome)
}

// TestRent_AlreadyRented verifies an account holds at most one copy of an
// item and a double rent does not burn inventory.
func (suite *StoreTestSuite) TestRent_AlreadyRented(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 3}))
	account, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	outcome, err := st.Rent(ctx, 1, account.ID)
	require.NoError(test, err)
	require.Equal(test, store.Rented, outcome)

	outcome, err = st.Rent(ctx, 1, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.AlreadyRented, outcome)

	item, err := st.FindItemByID(ctx, 1)
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, 2, item.Quantity)
}

// TestRent_LastCopy verifies the last copy goes to exactly one account and
// comes back rentable after a return.
func (suite *StoreTestSuite) TestRent_LastCopy(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 1}))
	alice, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)
	bob, err := st.Register(ctx, "bob", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	outcome, err := st.Rent(ctx, 1, alice.ID)
	require.NoError(test, err)
	require.Equal(test, store.Rented, outcome)

	outcome, err = st.Rent(ctx, 1, bob.ID)
	require.NoError(test, err)
	assert.Equal(test, store.NotAvailable, outcome)

	returned, err := st.Return(ctx, 1, alice.ID)
	require.NoError(test, err)
	require.Equal(test, store.Returned, returned)

	outcome, err = st.Rent(ctx, 1, bob.ID)
	require.NoError(test, err)
	assert.Equal(test, store.Rented, outcome)
}

// TestReturn_Success verifies a return restores availability.
func (suite *StoreTestSuite) TestReturn_Success(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 2}))
	account, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	outcome, err := st.Rent(ctx, 1, account.ID)
	require.NoError(test, err)
	require.Equal(test, store.Rented, outcome)

	returned, err := st.Return(ctx, 1, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.Returned, returned)

	item, err := st.FindItemByID(ctx, 1)
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, 2, item.Quantity)

	// A second return of the same item is rejected
	returned, err = st.Return(ctx, 1, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.NotRented, returned)
}

func (suite *StoreTestSuite) TestReturn_NotRented(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 1}))
	account, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	returned, err := st.Return(ctx, 1, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.NotRented, returned)

	returned, err = st.Return(ctx, 404, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.NotRented, returned)
}

// TestDeleteItem_ClearsRentals verifies deleting an item drops its open
// rentals, so a re-added item with the same id starts clean.
func (suite *StoreTestSuite) TestDeleteItem_ClearsRentals(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 1}))
	account, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	outcome, err := st.Rent(ctx, 1, account.ID)
	require.NoError(test, err)
	require.Equal(test, store.Rented, outcome)

	deleted, err := st.DeleteItem(ctx, 1)
	require.NoError(test, err)
	require.True(test, deleted)

	returned, err := st.Return(ctx, 1, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.NotRented, returned)

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 1}))
	outcome, err = st.Rent(ctx, 1, account.ID)
	require.NoError(test, err)
	assert.Equal(test, store.Rented, outcome)
}
