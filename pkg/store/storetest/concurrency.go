package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/store"
)

func (suite *StoreTestSuite) RunConcurrencyTests(test *testing.T) {
	test.Run("ConcurrentRent_NeverOversells", suite.TestConcurrentRent_NeverOversells)
	test.Run("ConcurrentRegister_UniqueIDs", suite.TestConcurrentRegister_UniqueIDs)
}

// TestConcurrentRent_NeverOversells races many accounts against a small
// stock: exactly stock rentals may succeed and the quantity never goes
// negative.
func (suite *StoreTestSuite) TestConcurrentRent_NeverOversells(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	const stock = 3
	const contenders = 10

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: stock}))

	accountIDs := make([]int, contenders)
	for i := range accountIDs {
		account, err := st.Register(ctx, fmt.Sprintf("customer%d", i), "s3cret", store.RoleCustomer)
		require.NoError(test, err)
		accountIDs[i] = account.ID
	}

	outcomes := make([]store.RentOutcome, contenders)
	var wg sync.WaitGroup
	for i, accountID := range accountIDs {
		wg.Add(1)
		go func(i, accountID int) {
			defer wg.Done()
			outcome, err := st.Rent(ctx, 1, accountID)
			assert.NoError(test, err)
			outcomes[i] = outcome
		}(i, accountID)
	}
	wg.Wait()

	rented := 0
	for _, outcome := range outcomes {
		switch outcome {
		case store.Rented:
			rented++
		case store.NotAvailable:
		default:
			test.Fatalf("unexpected outcome %v", outcome)
		}
	}
	assert.Equal(test, stock, rented)

	item, err := st.FindItemByID(ctx, 1)
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, 0, item.Quantity)
}

// TestConcurrentRegister_UniqueIDs races registrations and verifies every
// account gets a distinct id.
func (suite *StoreTestSuite) TestConcurrentRegister_UniqueIDs(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	const registrations = 10

	ids := make([]int, registrations)
	var wg sync.WaitGroup
	for i := 0; i < registrations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			account, err := st.Register(ctx, fmt.Sprintf("customer%d", i), "s3cret", store.RoleCustomer)
			if assert.NoError(test, err) {
				ids[i] = account.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, id := range ids {
		assert.False(test, seen[id], "duplicate account id %d", id)
		seen[id] = true
	}
}
