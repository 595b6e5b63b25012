package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatSort(t *testing.T) {
	cases := map[string]ChatSort{
		"":                  SortByLastMessage,
		"last_message_time": SortByLastMessage,
		"created_at":        SortByCreatedAt,
		"title":             SortByTitle,
		"updated_at":        SortByUpdatedAt,
	}
	for in, want := range cases {
		got, err := ParseChatSort(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseChatSort("random")
	require.Error(t, err)
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, ChatTypeGroup.Valid())
	assert.False(t, ChatType("channel").Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, ParticipantRole("guest").Valid())
	assert.True(t, ReceiptRead.Valid())
	assert.False(t, ReceiptStatus("sent").Valid())
}
