package server

import "github.com/rentory/rentory/pkg/store"

// sessionState tracks the authentication state of one connection. A session
// starts anonymous, moves to a role-specific authenticated state on a
// successful login, and never transitions again except through logout, which
// ends the connection.
type sessionState int

const (
	stateAnonymous sessionState = iota
	stateCustomer
	stateAdmin
)

// session is per-connection state. It is owned exclusively by the
// connection's worker goroutine and never shared.
type session struct {
	state   sessionState
	account *store.Account
}

// login transitions the session to the authenticated state matching the
// account's role.
func (s *session) login(account *store.Account) {
	s.account = account
	if account.Role == store.RoleAdmin {
		s.state = stateAdmin
	} else {
		s.state = stateCustomer
	}
}

func (s *session) authenticated() bool {
	return s.state != stateAnonymous
}

func (s *session) isCustomer() bool {
	return s.state == stateCustomer
}

func (s *session) isAdmin() bool {
	return s.state == stateAdmin
}
