package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/protocol"
	"github.com/rentory/rentory/pkg/store"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		command string
		args    []string
	}{
		{"bare_command", "PING", "PING", []string{}},
		{"lowercase_keyword", "login|CUSTOMER|alice|s3cret", "LOGIN", []string{"CUSTOMER", "alice", "s3cret"}},
		{"args_keep_case", "SEARCH_ITEM|The Left Hand of Darkness", "SEARCH_ITEM", []string{"The Left Hand of Darkness"}},
		{"empty_trailing_field", "LOGIN|CUSTOMER|alice|", "LOGIN", []string{"CUSTOMER", "alice", ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := protocol.ParseRequest(tc.line)
			assert.Equal(t, tc.command, req.Command)
			assert.Equal(t, tc.args, req.Args)
		})
	}
}

func TestReplyBuilders(t *testing.T) {
	assert.Equal(t, "OK", protocol.OK())
	assert.Equal(t, "OK|PONG", protocol.OK("PONG"))
	assert.Equal(t, "OK|2|alice|CUSTOMER", protocol.OK("2", "alice", "CUSTOMER"))
	assert.Equal(t, "ERROR|Invalid credentials", protocol.Error("Invalid credentials"))
	assert.Equal(t, "ERROR|LOGIN|ROLE|USERNAME|SECRET", protocol.Usage("LOGIN", "ROLE", "USERNAME", "SECRET"))
}

func TestItemRecordRoundTrip(t *testing.T) {
	line := protocol.FormatItemRecord(store.Item{ID: 7, Title: "Dune", Quantity: 3})
	assert.Equal(t, "ITEM|7|Dune|3", line)

	item, err := protocol.ParseItemRecord(line)
	require.NoError(t, err)
	assert.Equal(t, store.Item{ID: 7, Title: "Dune", Quantity: 3}, item)
}

func TestParseItemRecord_Invalid(t *testing.T) {
	for _, line := range []string{"", "ITEM|7|Dune", "ACCOUNT|7|Dune|3", "ITEM|x|Dune|3", "ITEM|7|Dune|x"} {
		_, err := protocol.ParseItemRecord(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestAccountRecord(t *testing.T) {
	account := store.Account{ID: 2, Username: "alice", SecretHash: "hash", Role: store.RoleCustomer}
	line := protocol.FormatAccountRecord(account)
	assert.Equal(t, "ACCOUNT|2|alice|CUSTOMER", line)
	assert.NotContains(t, line, "hash")

	parsed, err := protocol.ParseAccountRecord(line)
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.ID)
	assert.Equal(t, "alice", parsed.Username)
	assert.Equal(t, store.RoleCustomer, parsed.Role)
	assert.Empty(t, parsed.SecretHash)
}

func TestParseReply(t *testing.T) {
	reply, err := protocol.ParseReply("OK|REGISTERED|4")
	require.NoError(t, err)
	assert.True(t, reply.IsOK())
	assert.Equal(t, []string{"REGISTERED", "4"}, reply.Fields)

	reply, err = protocol.ParseReply("ERROR|Login required")
	require.NoError(t, err)
	assert.False(t, reply.IsOK())
	assert.Equal(t, "Login required", reply.Reason())

	_, err = protocol.ParseReply("ITEM|7|Dune|3")
	assert.Error(t, err)
}
