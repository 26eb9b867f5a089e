package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/store"
)

func (suite *StoreTestSuite) RunAccountTests(test *testing.T) {
	test.Run("DefaultAdmin_Bootstrapped", suite.TestDefaultAdmin_Bootstrapped)
	test.Run("Register_AssignsNextID", suite.TestRegister_AssignsNextID)
	test.Run("Register_DuplicateUsername", suite.TestRegister_DuplicateUsername)
	test.Run("Register_SameUsernameAcrossRoles", suite.TestRegister_SameUsernameAcrossRoles)
	test.Run("Register_InvalidCredentials", suite.TestRegister_InvalidCredentials)
	test.Run("Authenticate", suite.TestAuthenticate)
	test.Run("ListAccounts_SortedByID", suite.TestListAccounts_SortedByID)
}

// TestDefaultAdmin_Bootstrapped verifies a fresh store always carries the
// built-in admin account.
func (suite *StoreTestSuite) TestDefaultAdmin_Bootstrapped(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	admin, err := st.Authenticate(ctx, store.DefaultAdminUsername, store.DefaultAdminSecret, store.RoleAdmin)
	require.NoError(test, err)
	require.NotNil(test, admin)
	assert.Equal(test, store.DefaultAdminID, admin.ID)
	assert.Equal(test, store.RoleAdmin, admin.Role)

	// The built-in admin is not a customer account
	asCustomer, err := st.Authenticate(ctx, store.DefaultAdminUsername, store.DefaultAdminSecret, store.RoleCustomer)
	require.NoError(test, err)
	assert.Nil(test, asCustomer)
}

// TestRegister_AssignsNextID verifies ids are assigned as max(id)+1 across
// all roles, starting after the built-in admin.
func (suite *StoreTestSuite) TestRegister_AssignsNextID(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	alice, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)
	assert.Equal(test, store.DefaultAdminID+1, alice.ID)

	bob, err := st.Register(ctx, "bob", "s3cret", store.RoleCustomer)
	require.NoError(test, err)
	assert.Equal(test, alice.ID+1, bob.ID)
}

// TestRegister_DuplicateUsername verifies usernames are unique per role,
// case-insensitively.
func (suite *StoreTestSuite) TestRegister_DuplicateUsername(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	_, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	_, err = st.Register(ctx, "ALICE", "other", store.RoleCustomer)
	require.ErrorIs(test, err, store.ErrUsernameTaken)

	_, err = st.Register(ctx, " alice ", "other", store.RoleCustomer)
	require.ErrorIs(test, err, store.ErrUsernameTaken)
}

// TestRegister_SameUsernameAcrossRoles verifies a customer and an admin may
// share a username.
func (suite *StoreTestSuite) TestRegister_SameUsernameAcrossRoles(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	customer, err := st.Register(ctx, "sam", "customer-secret", store.RoleCustomer)
	require.NoError(test, err)

	admin, err := st.Register(ctx, "sam", "admin-secret", store.RoleAdmin)
	require.NoError(test, err)
	assert.NotEqual(test, customer.ID, admin.ID)

	// Each logs in against its own role with its own secret
	got, err := st.Authenticate(ctx, "sam", "customer-secret", store.RoleCustomer)
	require.NoError(test, err)
	require.NotNil(test, got)
	assert.Equal(test, customer.ID, got.ID)

	got, err = st.Authenticate(ctx, "sam", "admin-secret", store.RoleAdmin)
	require.NoError(test, err)
	require.NotNil(test, got)
	assert.Equal(test, admin.ID, got.ID)
}

func (suite *StoreTestSuite) TestRegister_InvalidCredentials(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		secret   string
	}{
		{"empty_username", "   ", "s3cret"},
		{"separator_in_username", "ali|ce", "s3cret"},
		{"empty_secret", "alice", ""},
	}

	for _, tc := range tests {
		test.Run(tc.name, func(t *testing.T) {
			_, err := st.Register(ctx, tc.username, tc.secret, store.RoleCustomer)
			assert.Error(t, err)
		})
	}
}

// TestAuthenticate verifies credential and role matching.
func (suite *StoreTestSuite) TestAuthenticate(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	registered, err := st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	// Username matching is case-insensitive and trims whitespace
	got, err := st.Authenticate(ctx, " ALICE ", "s3cret", store.RoleCustomer)
	require.NoError(test, err)
	require.NotNil(test, got)
	assert.Equal(test, registered.ID, got.ID)
	assert.Equal(test, "alice", got.Username)

	// Wrong secret
	got, err = st.Authenticate(ctx, "alice", "wrong", store.RoleCustomer)
	require.NoError(test, err)
	assert.Nil(test, got)

	// Wrong role
	got, err = st.Authenticate(ctx, "alice", "s3cret", store.RoleAdmin)
	require.NoError(test, err)
	assert.Nil(test, got)

	// Unknown username
	got, err = st.Authenticate(ctx, "nobody", "s3cret", store.RoleCustomer)
	require.NoError(test, err)
	assert.Nil(test, got)
}

func (suite *StoreTestSuite) TestListAccounts_SortedByID(test *testing.T) {
	st := suite.NewStore(test)
	defer st.Close()
	ctx := context.Background()

	_, err := st.Register(ctx, "zoe", "s3cret", store.RoleCustomer)
	require.NoError(test, err)
	_, err = st.Register(ctx, "alice", "s3cret", store.RoleCustomer)
	require.NoError(test, err)

	accounts, err := st.ListAccounts(ctx)
	require.NoError(test, err)
	require.Len(test, accounts, 3)

	assert.Equal(test, store.DefaultAdminID, accounts[0].ID)
	assert.Equal(test, "zoe", accounts[1].Username)
	assert.Equal(test, "alice", accounts[2].Username)
	assert.Less(test, accounts[1].ID, accounts[2].ID)
}
