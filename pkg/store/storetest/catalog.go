package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/store"
)

func (suite *StoreTestSuite) RunCatalogTests(test *testing.T) {
	test.Run("AddItem_Success", suite.TestAddItem_Success)
	test.Run("AddItem_Duplicate", suite.TestAddItem_Duplicate)
	test.Run("AddItem_Invalid", suite.TestAddItem_Invalid)
	test.Run("ListItems_SortedByID", suite.TestListItems_SortedByID)
	test.Run("ListItems_Empty", suite.TestListItems_Empty)
	test.Run("FindItemByTitle", suite.TestFindItemByTitle)
	test.Run("FindItemByID", suite.TestFindItemByID)
	test.Run("DeleteItem", suite.TestDeleteItem)
	test.Run("UpdateQuantity", suite.TestUpdateQuantity)
}

// TestAddItem_Success verifies items land in the catalog with trimmed titles.
func (suite *StoreTestSuite) TestAddItem_Success(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	err := st.AddItem(ctx, store.Item{ID: 7, Title: "  Dune  ", Quantity: 3})
	require.NoError(test, err)

	item, err := st.FindItemByID(ctx, 7)
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, "Dune", item.Title)
	assert.Equal(test, 3, item.Quantity)
}

// TestAddItem_Duplicate verifies id collisions are rejected.
func (suite *StoreTestSuite) TestAddItem_Duplicate(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 3}))

	err := st.AddItem(ctx, store.Item{ID: 1, Title: "Other Title", Quantity: 1})
	require.ErrorIs(test, err, store.ErrDuplicateItem)

	// The original item must be untouched
	item, err := st.FindItemByID(ctx, 1)
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, "Dune", item.Title)
}

// TestAddItem_Invalid verifies malformed items never reach the catalog.
func (suite *StoreTestSuite) TestAddItem_Invalid(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	tests := []struct {
		name string
		item store.Item
	}{
		{"empty_title", store.Item{ID: 1, Title: "   ", Quantity: 1}},
		{"negative_id", store.Item{ID: -1, Title: "Dune", Quantity: 1}},
		{"negative_quantity", store.Item{ID: 1, Title: "Dune", Quantity: -1}},
		{"separator_in_title", store.Item{ID: 1, Title: "Du|ne", Quantity: 1}},
	}

	for _, tc := range tests {
		test.Run(tc.name, func(t *testing.T) {
			err := st.AddItem(ctx, tc.item)
			assert.ErrorIs(t, err, store.ErrInvalidItem)
		})
	}

	items, err := st.ListItems(ctx)
	require.NoError(test, err)
	assert.Empty(test, items)
}

// TestListItems_SortedByID verifies listings come back ordered by id
// regardless of insertion order.
func (suite *StoreTestSuite) TestListItems_SortedByID(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 30, Title: "Solaris", Quantity: 1}))
	require.NoError(test, st.AddItem(ctx, store.Item{ID: 10, Title: "Dune", Quantity: 2}))
	require.NoError(test, st.AddItem(ctx, store.Item{ID: 20, Title: "Hyperion", Quantity: 3}))

	items, err := st.ListItems(ctx)
	require.NoError(test, err)
	require.Len(test, items, 3)
	assert.Equal(test, []int{10, 20, 30}, []int{items[0].ID, items[1].ID, items[2].ID})
}

func (suite *StoreTestSuite) TestListItems_Empty(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()

	items, err := st.ListItems(context.Background())
	require.NoError(test, err)
	assert.Empty(test, items)
}

// TestFindItemByTitle verifies case-insensitive exact-title lookup with the
// lowest id winning on duplicates.
func (suite *StoreTestSuite) TestFindItemByTitle(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 5, Title: "Dune", Quantity: 1}))
	require.NoError(test, st.AddItem(ctx, store.Item{ID: 2, Title: "DUNE", Quantity: 4}))

	item, err := st.FindItemByTitle(ctx, "  dune ")
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, 2, item.ID)

	missing, err := st.FindItemByTitle(ctx, "Hyperion")
	require.NoError(test, err)
	assert.Nil(test, missing)
}

func (suite *StoreTestSuite) TestFindItemByID(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 9, Title: "Dune", Quantity: 1}))

	item, err := st.FindItemByID(ctx, 9)
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, "Dune", item.Title)

	missing, err := st.FindItemByID(ctx, 404)
	require.NoError(test, err)
	assert.Nil(test, missing)
}

// TestDeleteItem verifies deletion reports whether the item existed.
func (suite *StoreTestSuite) TestDeleteItem(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 1}))

	deleted, err := st.DeleteItem(ctx, 1)
	require.NoError(test, err)
	assert.True(test, deleted)

	item, err := st.FindItemByID(ctx, 1)
	require.NoError(test, err)
	assert.Nil(test, item)

	deleted, err = st.DeleteItem(ctx, 1)
	require.NoError(test, err)
	assert.False(test, deleted)
}

// TestUpdateQuantity verifies quantity replacement and its guard rails.
func (suite *StoreTestSuite) TestUpdateQuantity(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	require.NoError(test, st.AddItem(ctx, store.Item{ID: 1, Title: "Dune", Quantity: 1}))

	updated, err := st.UpdateQuantity(ctx, 1, 10)
	require.NoError(test, err)
	assert.True(test, updated)

	item, err := st.FindItemByID(ctx, 1)
	require.NoError(test, err)
	require.NotNil(test, item)
	assert.Equal(test, 10, item.Quantity)

	updated, err = st.UpdateQuantity(ctx, 404, 10)
	require.NoError(test, err)
	assert.False(test, updated)

	_, err = st.UpdateQuantity(ctx, 1, -1)
	require.ErrorIs(test, err, store.ErrNegativeQuantity)
}
