package server

import (
	"context"
	"errors"
	"strconv"

	"github.com/rentory/rentory/internal/logger"
	"github.com/rentory/rentory/pkg/protocol"
	"github.com/rentory/rentory/pkg/store"
)

// dispatch routes one parsed request to its handler, enforcing the required
// session state before any store call. It returns the reply lines and
// whether the connection should close afterwards.
func (s *RentalServer) dispatch(ctx context.Context, sess *session, req protocol.Request) ([]string, bool) {
	switch req.Command {
	case protocol.CmdPing:
		return lines(protocol.OK("PONG")), false

	case protocol.CmdLogin:
		return s.handleLogin(ctx, sess, req.Args), false

	case protocol.CmdSignup:
		return s.handleSignup(ctx, sess, req.Args), false

	case protocol.CmdListItems:
		return s.requireLogin(sess, func() []string {
			return s.handleListItems(ctx)
		}), false

	case protocol.CmdSearchItem:
		return s.requireLogin(sess, func() []string {
			return s.handleSearchItem(ctx, req.Args)
		}), false

	case protocol.CmdRentItem:
		return s.requireCustomer(sess, func() []string {
			return s.handleRentItem(ctx, sess, req.Args)
		}), false

	case protocol.CmdReturnItem:
		return s.requireCustomer(sess, func() []string {
			return s.handleReturnItem(ctx, sess, req.Args)
		}), false

	case protocol.CmdAddItem:
		return s.requireAdmin(sess, func() []string {
			return s.handleAddItem(ctx, req.Args)
		}), false

	case protocol.CmdDeleteItem:
		return s.requireAdmin(sess, func() []string {
			return s.handleDeleteItem(ctx, req.Args)
		}), false

	case protocol.CmdUpdateQty:
		return s.requireAdmin(sess, func() []string {
			return s.handleUpdateQuantity(ctx, req.Args)
		}), false

	case protocol.CmdListAccounts:
		return s.requireAdmin(sess, func() []string {
			return s.handleListAccounts(ctx)
		}), false

	case protocol.CmdLogout:
		return lines(protocol.OK("BYE")), true

	default:
		return lines(protocol.Error("Unknown command")), false
	}
}

// ============================================================================
// Role gates
// ============================================================================

func (s *RentalServer) requireLogin(sess *session, action func() []string) []string {
	if !sess.authenticated() {
		return lines(protocol.Error("Login required"))
	}
	return action()
}

func (s *RentalServer) requireCustomer(sess *session, action func() []string) []string {
	if !sess.isCustomer() {
		return lines(protocol.Error("Customer privileges required"))
	}
	return action()
}

func (s *RentalServer) requireAdmin(sess *session, action func() []string) []string {
	if !sess.isAdmin() {
		return lines(protocol.Error("Admin privileges required"))
	}
	return action()
}

// ============================================================================
// Session commands
// ============================================================================

func (s *RentalServer) handleLogin(ctx context.Context, sess *session, args []string) []string {
	if len(args) < 3 {
		return lines(protocol.Usage(protocol.CmdLogin, "ROLE", "USERNAME", "SECRET"))
	}
	if sess.authenticated() {
		return lines(protocol.Error("Already logged in"))
	}

	role := roleFromArg(args[0])
	account, err := s.store.Authenticate(ctx, args[1], args[2], role)
	if err != nil {
		return storeFailure(err)
	}
	if account == nil {
		return lines(protocol.Error("Invalid credentials"))
	}

	sess.login(account)
	logger.Info("Account %d (%s) logged in as %s", account.ID, account.Username, account.Role)
	return lines(protocol.OK(strconv.Itoa(account.ID), account.Username, string(account.Role)))
}

func (s *RentalServer) handleSignup(ctx context.Context, sess *session, args []string) []string {
	if len(args) < 3 {
		return lines(protocol.Usage(protocol.CmdSignup, "ROLE", "USERNAME", "SECRET"))
	}
	if sess.authenticated() {
		return lines(protocol.Error("Already logged in"))
	}

	role := roleFromArg(args[0])
	account, err := s.store.Register(ctx, args[1], args[2], role)
	if err != nil {
		return storeFailure(err)
	}

	logger.Info("Registered account %d (%s) as %s", account.ID, account.Username, account.Role)
	return lines(protocol.OK("REGISTERED", strconv.Itoa(account.ID)))
}

// ============================================================================
// Catalog commands
// ============================================================================

func (s *RentalServer) handleListItems(ctx context.Context) []string {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return storeFailure(err)
	}

	replies := []string{protocol.OK(protocol.ItemsHeader)}
	if len(items) == 0 {
		replies = append(replies, protocol.EmptyMarker)
	}
	for _, it := range items {
		replies = append(replies, protocol.FormatItemRecord(it))
	}
	return append(replies, protocol.EndMarker)
}

func (s *RentalServer) handleSearchItem(ctx context.Context, args []string) []string {
	if len(args) < 1 {
		return lines(protocol.Usage(protocol.CmdSearchItem, "TITLE"))
	}

	item, err := s.store.FindItemByTitle(ctx, args[0])
	if err != nil {
		return storeFailure(err)
	}
	if item == nil {
		return lines(protocol.OK(protocol.ItemRecord, protocol.NoneMarker))
	}
	return lines(protocol.OK(
		protocol.ItemRecord, strconv.Itoa(item.ID), item.Title, strconv.Itoa(item.Quantity)))
}

func (s *RentalServer) handleAddItem(ctx context.Context, args []string) []string {
	if len(args) < 3 {
		return lines(protocol.Usage(protocol.CmdAddItem, "ID", "TITLE", "QTY"))
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return lines(protocol.Error("Invalid item id"))
	}
	qty, err := strconv.Atoi(args[2])
	if err != nil {
		return lines(protocol.Error("Invalid quantity"))
	}

	if err := s.store.AddItem(ctx, store.Item{ID: id, Title: args[1], Quantity: qty}); err != nil {
		return storeFailure(err)
	}
	return lines(protocol.OK("ITEM_ADDED"))
}

func (s *RentalServer) handleDeleteItem(ctx context.Context, args []string) []string {
	if len(args) < 1 {
		return lines(protocol.Usage(protocol.CmdDeleteItem, "ID"))
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return lines(protocol.Error("Invalid item id"))
	}

	deleted, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return lines(protocol.Error("Item not found"))
	}
	return lines(protocol.OK("ITEM_DELETED"))
}

func (s *RentalServer) handleUpdateQuantity(ctx context.Context, args []string) []string {
	if len(args) < 2 {
		return lines(protocol.Usage(protocol.CmdUpdateQty, "ID", "QTY"))
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return lines(protocol.Error("Invalid item id"))
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return lines(protocol.Error("Invalid quantity"))
	}

	updated, err := s.store.UpdateQuantity(ctx, id, qty)
	if err != nil {
		return storeFailure(err)
	}
	if !updated {
		return lines(protocol.Error("Item not found"))
	}
	return lines(protocol.OK("ITEM_UPDATED"))
}

// ============================================================================
// Rental commands
// ============================================================================

func (s *RentalServer) handleRentItem(ctx context.Context, sess *session, args []string) []string {
	if len(args) < 1 {
		return lines(protocol.Usage(protocol.CmdRentItem, "ITEM_ID"))
	}

	itemID, err := strconv.Atoi(args[0])
	if err != nil {
		return lines(protocol.Error("Invalid item id"))
	}

	outcome, err := s.store.Rent(ctx, itemID, sess.account.ID)
	if err != nil {
		return storeFailure(err)
	}
	return lines(protocol.OK(outcome.String()))
}

func (s *RentalServer) handleReturnItem(ctx context.Context, sess *session, args []string) []string {
	if len(args) < 1 {
		return lines(protocol.Usage(protocol.CmdReturnItem, "ITEM_ID"))
	}

	itemID, err := strconv.Atoi(args[0])
	if err != nil {
		return lines(protocol.Error("Invalid item id"))
	}

	outcome, err := s.store.Return(ctx, itemID, sess.account.ID)
	if err != nil {
		return storeFailure(err)
	}
	return lines(protocol.OK(outcome.String()))
}

// ============================================================================
// Account commands
// ============================================================================

func (s *RentalServer) handleListAccounts(ctx context.Context) []string {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return storeFailure(err)
	}

	replies := []string{protocol.OK(protocol.AccountsHeader)}
	if len(accounts) == 0 {
		replies = append(replies, protocol.EmptyMarker)
	}
	for _, a := range accounts {
		replies = append(replies, protocol.FormatAccountRecord(a))
	}
	return append(replies, protocol.EndMarker)
}

// ============================================================================
// Helpers
// ============================================================================

func lines(replies ...string) []string {
	return replies
}

// roleFromArg maps the wire role argument to a role; anything that is not
// ADMIN is treated as CUSTOMER.
func roleFromArg(arg string) store.Role {
	if role, err := store.ParseRole(arg); err == nil && role == store.RoleAdmin {
		return store.RoleAdmin
	}
	return store.RoleCustomer
}

// storeFailure converts a store error into a single ERROR reply with a
// caller-friendly reason. Domain outcomes never arrive here; this path is
// for conflicts, validation failures, and persistence errors.
func storeFailure(err error) []string {
	switch {
	case errors.Is(err, store.ErrDuplicateItem):
		return lines(protocol.Error("Item id already exists"))
	case errors.Is(err, store.ErrUsernameTaken):
		return lines(protocol.Error("Username already exists"))
	case errors.Is(err, store.ErrNegativeQuantity):
		return lines(protocol.Error("Quantity cannot be negative"))
	default:
		logger.Error("Store operation failed: %v", err)
		return lines(protocol.Error(err.Error()))
	}
}
