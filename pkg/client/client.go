// Package client provides a client SDK for the rentory line protocol.
//
// A Client owns one TCP connection and the session state that lives on it:
// commands requiring authentication must follow a successful Login on the
// same Client. The zero value is not usable; connect with Dial.
//
// Basic usage:
//
//	c, err := client.Dial("localhost:7070")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	account, err := c.Login(store.RoleCustomer, "alice", "secret")
//	items, err := c.ListItems()
//	outcome, err := c.Rent(7)
package client

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rentory/rentory/pkg/protocol"
	"github.com/rentory/rentory/pkg/store"
)

// ErrServerReply wraps any ERROR reply from the server. Use errors.Is to
// detect a protocol-level failure and ReplyError.Reason for the text.
var ErrServerReply = errors.New("server reply error")

// ReplyError carries the reason text of an ERROR reply.
type ReplyError struct {
	Reason string
}

func (e *ReplyError) Error() string {
	return "server reply error: " + e.Reason
}

func (e *ReplyError) Unwrap() error {
	return ErrServerReply
}

// Client is a connected rentory protocol client. It is not safe for
// concurrent use; the protocol is strictly request-reply on one connection.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to a rentory server and consumes the connection greeting.
func Dial(address string) (*Client, error) {
	return DialTimeout(address, 10*time.Second)
}

// DialTimeout connects with an explicit dial timeout.
func DialTimeout(address string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	c := &Client{conn: conn, reader: bufio.NewReader(conn)}
	reply, err := c.readReply()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read greeting: %w", err)
	}
	if !reply.IsOK() || len(reply.Fields) == 0 || reply.Fields[0] != "CONNECTED" {
		conn.Close()
		return nil, fmt.Errorf("unexpected greeting from %s", address)
	}
	return c, nil
}

// Close tears down the connection. Safe to call after Logout.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping checks that the server is responsive.
func (c *Client) Ping() error {
	reply, err := c.roundTrip(protocol.CmdPing)
	if err != nil {
		return err
	}
	if len(reply.Fields) == 0 || reply.Fields[0] != "PONG" {
		return fmt.Errorf("unexpected ping reply")
	}
	return nil
}

// Login authenticates the session. On success the returned account carries
// the server-assigned id, canonical username, and role.
func (c *Client) Login(role store.Role, username, secret string) (*store.Account, error) {
	reply, err := c.roundTrip(protocol.CmdLogin, string(role), username, secret)
	if err != nil {
		return nil, err
	}
	if len(reply.Fields) < 3 {
		return nil, fmt.Errorf("malformed login reply")
	}
	id, err := strconv.Atoi(reply.Fields[0])
	if err != nil {
		return nil, fmt.Errorf("malformed login reply: %w", err)
	}
	parsedRole, err := store.ParseRole(reply.Fields[2])
	if err != nil {
		return nil, fmt.Errorf("malformed login reply: %w", err)
	}
	return &store.Account{ID: id, Username: reply.Fields[1], Role: parsedRole}, nil
}

// Signup registers a new account and returns its server-assigned id. The
// session remains anonymous; follow with Login to authenticate.
func (c *Client) Signup(role store.Role, username, secret string) (int, error) {
	reply, err := c.roundTrip(protocol.CmdSignup, string(role), username, secret)
	if err != nil {
		return 0, err
	}
	if len(reply.Fields) < 2 || reply.Fields[0] != "REGISTERED" {
		return 0, fmt.Errorf("malformed signup reply")
	}
	id, err := strconv.Atoi(reply.Fields[1])
	if err != nil {
		return 0, fmt.Errorf("malformed signup reply: %w", err)
	}
	return id, nil
}

// ListItems fetches the full catalog, sorted by item id.
func (c *Client) ListItems() ([]store.Item, error) {
	reply, err := c.roundTrip(protocol.CmdListItems)
	if err != nil {
		return nil, err
	}
	if len(reply.Fields) == 0 || reply.Fields[0] != protocol.ItemsHeader {
		return nil, fmt.Errorf("malformed listing header")
	}

	items := []store.Item{}
	for {
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		switch {
		case line == protocol.EndMarker:
			return items, nil
		case line == protocol.EmptyMarker:
			continue
		default:
			item, err := protocol.ParseItemRecord(line)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
}

// SearchItem looks up an item by exact title, case-insensitively. Returns
// nil without error when no item matches.
func (c *Client) SearchItem(title string) (*store.Item, error) {
	reply, err := c.roundTrip(protocol.CmdSearchItem, title)
	if err != nil {
		return nil, err
	}
	if len(reply.Fields) == 0 || reply.Fields[0] != protocol.ItemRecord {
		return nil, fmt.Errorf("malformed search reply")
	}
	if len(reply.Fields) == 2 && reply.Fields[1] == protocol.NoneMarker {
		return nil, nil
	}
	if len(reply.Fields) < 4 {
		return nil, fmt.Errorf("malformed search reply")
	}
	id, err := strconv.Atoi(reply.Fields[1])
	if err != nil {
		return nil, fmt.Errorf("malformed search reply: %w", err)
	}
	qty, err := strconv.Atoi(reply.Fields[3])
	if err != nil {
		return nil, fmt.Errorf("malformed search reply: %w", err)
	}
	return &store.Item{ID: id, Title: reply.Fields[2], Quantity: qty}, nil
}

// Rent requests one unit of the item for the logged-in customer. The
// returned text is the server's outcome message; rejections such as an
// unavailable item arrive as an outcome, not an error.
func (c *Client) Rent(itemID int) (string, error) {
	return c.outcomeCommand(protocol.CmdRentItem, strconv.Itoa(itemID))
}

// Return gives back the logged-in customer's rental of the item.
func (c *Client) Return(itemID int) (string, error) {
	return c.outcomeCommand(protocol.CmdReturnItem, strconv.Itoa(itemID))
}

// AddItem creates a catalog item with an explicit id.
func (c *Client) AddItem(id int, title string, quantity int) error {
	_, err := c.roundTrip(protocol.CmdAddItem, strconv.Itoa(id), title, strconv.Itoa(quantity))
	return err
}

// DeleteItem removes an item from the catalog. Open rentals of the item
// survive and report the item as gone when returned.
func (c *Client) DeleteItem(id int) error {
	_, err := c.roundTrip(protocol.CmdDeleteItem, strconv.Itoa(id))
	return err
}

// UpdateQuantity replaces an item's total quantity.
func (c *Client) UpdateQuantity(id, quantity int) error {
	_, err := c.roundTrip(protocol.CmdUpdateQty, strconv.Itoa(id), strconv.Itoa(quantity))
	return err
}

// ListAccounts fetches all registered accounts, sorted by id. Requires an
// admin session.
func (c *Client) ListAccounts() ([]store.Account, error) {
	reply, err := c.roundTrip(protocol.CmdListAccounts)
	if err != nil {
		return nil, err
	}
	if len(reply.Fields) == 0 || reply.Fields[0] != protocol.AccountsHeader {
		return nil, fmt.Errorf("malformed listing header")
	}

	accounts := []store.Account{}
	for {
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		switch {
		case line == protocol.EndMarker:
			return accounts, nil
		case line == protocol.EmptyMarker:
			continue
		default:
			account, err := protocol.ParseAccountRecord(line)
			if err != nil {
				return nil, err
			}
			accounts = append(accounts, account)
		}
	}
}

// Logout ends the session. The server closes the connection afterwards, so
// the Client is spent once Logout returns.
func (c *Client) Logout() error {
	reply, err := c.roundTrip(protocol.CmdLogout)
	if err != nil {
		return err
	}
	if len(reply.Fields) == 0 || reply.Fields[0] != "BYE" {
		return fmt.Errorf("unexpected logout reply")
	}
	return nil
}

func (c *Client) outcomeCommand(command string, args ...string) (string, error) {
	reply, err := c.roundTrip(command, args...)
	if err != nil {
		return "", err
	}
	return strings.Join(reply.Fields, protocol.Separator), nil
}

// roundTrip sends one request line and reads the first reply line. ERROR
// replies come back as a *ReplyError.
func (c *Client) roundTrip(command string, args ...string) (protocol.Reply, error) {
	line := strings.Join(append([]string{command}, args...), protocol.Separator)
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return protocol.Reply{}, fmt.Errorf("failed to send %s: %w", command, err)
	}
	reply, err := c.readReply()
	if err != nil {
		return protocol.Reply{}, fmt.Errorf("failed to read %s reply: %w", command, err)
	}
	if !reply.IsOK() {
		return protocol.Reply{}, &ReplyError{Reason: reply.Reason()}
	}
	return reply, nil
}

func (c *Client) readReply() (protocol.Reply, error) {
	line, err := c.readLine()
	if err != nil {
		return protocol.Reply{}, err
	}
	return protocol.ParseReply(line)
}

func (c *Client) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
