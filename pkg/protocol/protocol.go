// Package protocol implements the rentory line protocol shared by the
// server and the client SDK.
//
// Every exchange is a newline-terminated UTF-8 line with fields delimited by
// '|'. Requests start with an uppercase command keyword; replies start with
// either "OK" (success, optionally carrying structured fields) or "ERROR"
// (failure, carrying a human-readable reason).
//
// Multi-record responses (item and account listings) are framed as a header
// line, zero or more record lines, and a terminator line; the single marker
// line "EMPTY" replaces the records when the collection is empty:
//
//	OK|ITEMS
//	ITEM|7|Dune|3
//	END
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rentory/rentory/pkg/store"
)

// Separator delimits fields on the wire and in the flat-file record format.
const Separator = string(store.FieldSeparator)

// Command keywords. The first request field is matched against these after
// uppercasing.
const (
	CmdPing         = "PING"
	CmdLogin        = "LOGIN"
	CmdSignup       = "SIGNUP"
	CmdListItems    = "LIST_ITEMS"
	CmdSearchItem   = "SEARCH_ITEM"
	CmdRentItem     = "RENT_ITEM"
	CmdReturnItem   = "RETURN_ITEM"
	CmdAddItem      = "ADD_ITEM"
	CmdDeleteItem   = "DELETE_ITEM"
	CmdUpdateQty    = "UPDATE_QTY"
	CmdListAccounts = "LIST_ACCOUNTS"
	CmdLogout       = "LOGOUT"
)

// Reply status tokens and framing markers.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"

	ItemsHeader    = "ITEMS"
	AccountsHeader = "ACCOUNTS"
	ItemRecord     = "ITEM"
	AccountRecord  = "ACCOUNT"
	EmptyMarker    = "EMPTY"
	EndMarker      = "END"
	NoneMarker     = "NONE"
)

// Request is one parsed protocol line.
type Request struct {
	Command string
	Args    []string
}

// ParseRequest splits a trimmed input line into command keyword and
// positional arguments. The keyword is uppercased; arguments are passed
// through verbatim.
func ParseRequest(line string) Request {
	parts := strings.Split(line, Separator)
	return Request{
		Command: strings.ToUpper(parts[0]),
		Args:    parts[1:],
	}
}

// OK builds a success reply line from the given fields.
func OK(fields ...string) string {
	return strings.Join(append([]string{StatusOK}, fields...), Separator)
}

// Error builds a failure reply line with a human-readable reason.
func Error(reason string) string {
	return StatusError + Separator + reason
}

// Usage builds the usage-hint error reply sent for a malformed argument
// count, echoing the expected field layout.
func Usage(command string, fields ...string) string {
	return Error(strings.Join(append([]string{command}, fields...), Separator))
}

// FormatItemRecord renders one listing row for an item.
func FormatItemRecord(it store.Item) string {
	return strings.Join([]string{
		ItemRecord, strconv.Itoa(it.ID), it.Title, strconv.Itoa(it.Quantity),
	}, Separator)
}

// ParseItemRecord parses a listing row produced by FormatItemRecord.
func ParseItemRecord(line string) (store.Item, error) {
	parts := strings.SplitN(line, Separator, 4)
	if len(parts) != 4 || parts[0] != ItemRecord {
		return store.Item{}, fmt.Errorf("invalid item record %q", line)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return store.Item{}, fmt.Errorf("invalid item id in %q: %w", line, err)
	}
	qty, err := strconv.Atoi(parts[3])
	if err != nil {
		return store.Item{}, fmt.Errorf("invalid item quantity in %q: %w", line, err)
	}
	return store.Item{ID: id, Title: parts[2], Quantity: qty}, nil
}

// FormatAccountRecord renders one listing row for an account. The secret
// hash never crosses the wire.
func FormatAccountRecord(a store.Account) string {
	return strings.Join([]string{
		AccountRecord, strconv.Itoa(a.ID), a.Username, string(a.Role),
	}, Separator)
}

// ParseAccountRecord parses a listing row produced by FormatAccountRecord.
func ParseAccountRecord(line string) (store.Account, error) {
	parts := strings.SplitN(line, Separator, 4)
	if len(parts) != 4 || parts[0] != AccountRecord {
		return store.Account{}, fmt.Errorf("invalid account record %q", line)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return store.Account{}, fmt.Errorf("invalid account id in %q: %w", line, err)
	}
	role, err := store.ParseRole(parts[3])
	if err != nil {
		return store.Account{}, fmt.Errorf("invalid account record %q: %w", line, err)
	}
	return store.Account{ID: id, Username: parts[2], Role: role}, nil
}

// Reply is one parsed server reply line.
type Reply struct {
	Status string
	Fields []string
}

// ParseReply splits a reply line into its status token and fields.
func ParseReply(line string) (Reply, error) {
	parts := strings.Split(line, Separator)
	if parts[0] != StatusOK && parts[0] != StatusError {
		return Reply{}, fmt.Errorf("invalid reply %q", line)
	}
	return Reply{Status: parts[0], Fields: parts[1:]}, nil
}

// IsOK reports whether the reply carries the success status.
func (r Reply) IsOK() bool {
	return r.Status == StatusOK
}

// Reason returns the error text of a failure reply.
func (r Reply) Reason() string {
	return strings.Join(r.Fields, Separator)
}
