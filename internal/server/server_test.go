package server_test

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/internal/server"
	"github.com/rentory/rentory/pkg/client"
	"github.com/rentory/rentory/pkg/store"
	"github.com/rentory/rentory/pkg/store/memory"
)

// startServer boots a server on a free port against a fresh in-memory store
// and returns its address. The server shuts down with the test.
func startServer(t *testing.T) string {
	t.Helper()

	st, err := memory.New()
	require.NoError(t, err)

	srv := server.New(server.Config{Port: 0, ShutdownTimeout: 5 * time.Second}, st)

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-serverDone)
		require.NoError(t, st.Close())
	})

	require.Eventually(t, func() bool {
		return srv.Addr() != nil
	}, 5*time.Second, 10*time.Millisecond, "server did not start listening")

	return srv.Addr().String()
}

func dial(t *testing.T, addr string) *client.Client {
	t.Helper()
	c, err := client.Dial(addr)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestServer_Ping(t *testing.T) {
	addr := startServer(t)
	c := dial(t, addr)
	require.NoError(t, c.Ping())
}

func TestServer_CustomerFlow(t *testing.T) {
	addr := startServer(t)

	// Admin seeds the catalog
	admin := dial(t, addr)
	_, err := admin.Login(store.RoleAdmin, store.DefaultAdminUsername, store.DefaultAdminSecret)
	require.NoError(t, err)
	require.NoError(t, admin.AddItem(1, "Dune", 2))
	require.NoError(t, admin.AddItem(2, "Hyperion", 0))

	// Customer signs up and logs in on a fresh connection
	c := dial(t, addr)
	id, err := c.Signup(store.RoleCustomer, "alice", "s3cret")
	require.NoError(t, err)
	assert.Greater(t, id, store.DefaultAdminID)

	account, err := c.Login(store.RoleCustomer, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, store.RoleCustomer, account.Role)

	items, err := c.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Dune", items[0].Title)

	item, err := c.SearchItem("dune")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 1, item.ID)

	missing, err := c.SearchItem("Solaris")
	require.NoError(t, err)
	assert.Nil(t, missing)

	text, err := c.Rent(1)
	require.NoError(t, err)
	assert.Equal(t, store.Rented.String(), text)

	text, err = c.Rent(1)
	require.NoError(t, err)
	assert.Equal(t, store.AlreadyRented.String(), text)

	text, err = c.Rent(2)
	require.NoError(t, err)
	assert.Equal(t, store.NotAvailable.String(), text)

	text, err = c.Return(1)
	require.NoError(t, err)
	assert.Equal(t, store.Returned.String(), text)

	require.NoError(t, c.Logout())
}

func TestServer_AdminFlow(t *testing.T) {
	addr := startServer(t)
	c := dial(t, addr)

	_, err := c.Login(store.RoleAdmin, store.DefaultAdminUsername, store.DefaultAdminSecret)
	require.NoError(t, err)

	require.NoError(t, c.AddItem(1, "Dune", 1))
	require.NoError(t, c.UpdateQuantity(1, 5))

	item, err := c.SearchItem("Dune")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 5, item.Quantity)

	// Duplicate id is reported as a server-side error
	err = c.AddItem(1, "Other", 1)
	require.ErrorIs(t, err, client.ErrServerReply)

	require.NoError(t, c.DeleteItem(1))
	err = c.DeleteItem(1)
	require.ErrorIs(t, err, client.ErrServerReply)

	accounts, err := c.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, store.DefaultAdminUsername, accounts[0].Username)
	assert.Equal(t, store.RoleAdmin, accounts[0].Role)
}

func TestServer_InvalidLogin(t *testing.T) {
	addr := startServer(t)
	c := dial(t, addr)

	_, err := c.Login(store.RoleAdmin, "admin", "wrong")
	require.ErrorIs(t, err, client.ErrServerReply)
	assert.Contains(t, err.Error(), "Invalid credentials")

	// Customers cannot log in through the admin door
	_, err = c.Login(store.RoleCustomer, "admin", "admin")
	require.ErrorIs(t, err, client.ErrServerReply)
}

func TestServer_RoleGates(t *testing.T) {
	addr := startServer(t)

	t.Run("anonymous", func(t *testing.T) {
		c := dial(t, addr)
		_, err := c.ListItems()
		require.ErrorIs(t, err, client.ErrServerReply)
		assert.Contains(t, err.Error(), "Login required")
	})

	t.Run("customer_hits_admin_command", func(t *testing.T) {
		c := dial(t, addr)
		_, err := c.Signup(store.RoleCustomer, "alice", "s3cret")
		require.NoError(t, err)
		_, err = c.Login(store.RoleCustomer, "alice", "s3cret")
		require.NoError(t, err)

		err = c.AddItem(1, "Dune", 1)
		require.ErrorIs(t, err, client.ErrServerReply)
		assert.Contains(t, err.Error(), "Admin privileges required")
	})

	t.Run("admin_hits_customer_command", func(t *testing.T) {
		c := dial(t, addr)
		_, err := c.Login(store.RoleAdmin, store.DefaultAdminUsername, store.DefaultAdminSecret)
		require.NoError(t, err)

		_, err = c.Rent(1)
		require.ErrorIs(t, err, client.ErrServerReply)
		assert.Contains(t, err.Error(), "Customer privileges required")
	})
}

func TestServer_DuplicateSignup(t *testing.T) {
	addr := startServer(t)
	c := dial(t, addr)

	_, err := c.Signup(store.RoleCustomer, "alice", "s3cret")
	require.NoError(t, err)

	_, err = c.Signup(store.RoleCustomer, "ALICE", "other")
	require.ErrorIs(t, err, client.ErrServerReply)
	assert.Contains(t, err.Error(), "Username already exists")
}

// TestServer_RawProtocol exercises the wire format directly: greeting,
// unknown commands, usage errors, and listing framing.
func TestServer_RawProtocol(t *testing.T) {
	addr := startServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	readLine := func() string {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimRight(line, "\n")
	}
	send := func(format string, args ...any) {
		_, err := fmt.Fprintf(conn, format+"\n", args...)
		require.NoError(t, err)
	}

	assert.Equal(t, "OK|CONNECTED", readLine())

	send("BOGUS|1|2")
	assert.Equal(t, "ERROR|Unknown command", readLine())

	send("LOGIN|ADMIN")
	assert.Equal(t, "ERROR|LOGIN|ROLE|USERNAME|SECRET", readLine())

	send("LOGIN|ADMIN|admin|admin")
	assert.Equal(t, "OK|1|admin|ADMIN", readLine())

	// Empty catalog framing
	send("LIST_ITEMS")
	assert.Equal(t, "OK|ITEMS", readLine())
	assert.Equal(t, "EMPTY", readLine())
	assert.Equal(t, "END", readLine())

	send("ADD_ITEM|1|Dune|3")
	assert.Equal(t, "OK|ITEM_ADDED", readLine())

	send("LIST_ITEMS")
	assert.Equal(t, "OK|ITEMS", readLine())
	assert.Equal(t, "ITEM|1|Dune|3", readLine())
	assert.Equal(t, "END", readLine())

	send("RENT_ITEM|abc")
	assert.Equal(t, "ERROR|Customer privileges required", readLine())

	send("LOGOUT")
	assert.Equal(t, "OK|BYE", readLine())

	// Server closes the connection after logout
	_, err = reader.ReadString('\n')
	require.Error(t, err)
}

func TestServer_SignupRequiresAnonymousSession(t *testing.T) {
	addr := startServer(t)
	c := dial(t, addr)

	_, err := c.Login(store.RoleAdmin, store.DefaultAdminUsername, store.DefaultAdminSecret)
	require.NoError(t, err)

	_, err = c.Signup(store.RoleCustomer, "mallory", "s3cret")
	require.ErrorIs(t, err, client.ErrServerReply)
	assert.Contains(t, err.Error(), "Already logged in")

	// The rejected signup must not have touched the accounts table
	accounts, err := c.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, store.DefaultAdminUsername, accounts[0].Username)
}

func TestServer_SecondLoginRejected(t *testing.T) {
	addr := startServer(t)
	c := dial(t, addr)

	_, err := c.Login(store.RoleAdmin, store.DefaultAdminUsername, store.DefaultAdminSecret)
	require.NoError(t, err)

	_, err = c.Login(store.RoleAdmin, store.DefaultAdminUsername, store.DefaultAdminSecret)
	require.ErrorIs(t, err, client.ErrServerReply)
	assert.Contains(t, err.Error(), "Already logged in")
}

func TestServer_GracefulShutdown(t *testing.T) {
	st, err := memory.New()
	require.NoError(t, err)
	defer st.Close()

	srv := server.New(server.Config{Port: 0, ShutdownTimeout: 2 * time.Second}, st)

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	require.Eventually(t, func() bool {
		return srv.Addr() != nil
	}, 5*time.Second, 10*time.Millisecond)

	c, err := client.Dial(srv.Addr().String())
	require.NoError(t, err)
	require.NoError(t, c.Ping())
	require.NoError(t, c.Close())

	cancel()
	select {
	case err := <-serverDone:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
