package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-store/internal/models"
)

func TestSendMessageFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")

	chat, err := f.chats.CreateChat(ctx, "team", models.ChatTypeGroup)
	require.NoError(t, err)
	for _, u := range []models.User{alice, bob, carol} {
		_, err := f.chats.AddParticipant(ctx, chat.ID, u.ID, models.RoleMember)
		require.NoError(t, err)
	}

	msg, err := f.messages.SendMessage(ctx, models.NewMessage{ChatID: chat.ID, SenderID: alice.ID, Content: "hello team"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusSent, msg.Status)
	assert.Equal(t, models.DefaultContentType, msg.ContentType)

	stored, err := f.chats.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageID)
	assert.Equal(t, msg.ID, *stored.LastMessageID)
	assert.Equal(t, "hello team", *stored.LastMessageContent)
	assert.Equal(t, alice.ID, *stored.LastMessageSenderID)
	assert.Equal(t, "alice", *stored.LastMessageSenderName)
	assert.Equal(t, "text", *stored.LastMessageType)

	receipts, err := f.messages.ListReceipts(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	for _, rc := range receipts {
		assert.Equal(t, models.ReceiptDelivered, rc.Status)
		assert.NotEqual(t, alice.ID, rc.ReceiverID)
	}

	assert.Equal(t, 0, f.participant(t, chat.ID, alice.ID).UnreadCount)
	assert.Equal(t, 1, f.participant(t, chat.ID, bob.ID).UnreadCount)
	assert.Equal(t, 1, f.participant(t, chat.ID, carol.ID).UnreadCount)

	second := f.send(t, chat.ID, bob.ID, "hi alice")
	assert.Equal(t, 1, f.participant(t, chat.ID, alice.ID).UnreadCount)
	assert.Equal(t, 1, f.participant(t, chat.ID, bob.ID).UnreadCount)
	assert.Equal(t, 2, f.participant(t, chat.ID, carol.ID).UnreadCount)

	stored, err = f.chats.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *stored.LastMessageID)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM conversations WHERE chat_id=?`, chat.ID))
}

func TestSendMessagePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, eve := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "eve")
	chat := f.individualChat(t, alice, bob)

	_, err := f.messages.SendMessage(ctx, models.NewMessage{ChatID: "missing", SenderID: alice.ID, Content: "x"})
	require.ErrorIs(t, err, ErrChatNotFound)

	_, err = f.messages.SendMessage(ctx, models.NewMessage{ChatID: chat.ID, SenderID: eve.ID, Content: "x"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.messages.SendMessage(ctx, models.NewMessage{ChatID: chat.ID, SenderID: alice.ID, Content: "   "})
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM messages`))
	assert.Zero(t, f.participant(t, chat.ID, bob.ID).UnreadCount)
}

func TestSendMessageRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	chat := f.individualChat(t, alice, bob)

	_, err := f.db.Exec(`CREATE TRIGGER fail_attachments BEFORE INSERT ON attachments BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	require.NoError(t, err)

	_, err = f.messages.SendMessage(ctx, models.NewMessage{
		ChatID: chat.ID, SenderID: alice.ID, Content: "with file",
		Attachments: []models.NewAttachment{{FileName: "a.txt", FileType: "text/plain", FilePath: "/tmp/a.txt"}},
	})
	var dbErr *DatabaseError
	require.ErrorAs(t, err, &dbErr)

	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM messages`))
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM message_receipts`))
	assert.Zero(t, f.participant(t, chat.ID, bob.ID).UnreadCount)
	stored, err := f.chats.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastMessageID)
}

func TestSendMessageToEmptyChatCreatesConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	chat, err := f.chats.CreateChat(ctx, "notes", models.ChatTypeGroup)
	require.NoError(t, err)
	_, err = f.chats.AddParticipant(ctx, chat.ID, alice.ID, models.RoleOwner)
	require.NoError(t, err)
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM conversations`))

	msg := f.send(t, chat.ID, alice.ID, "note to self")
	receipts, err := f.messages.ListReceipts(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM conversations WHERE chat_id=?`, chat.ID))
}

func TestGetMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	chat := f.individualChat(t, alice, bob)
	msg := f.send(t, chat.ID, alice.ID, "hello")

	got, err := f.messages.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	assert.True(t, msg.CreatedAt.Equal(got.CreatedAt))

	_, err = f.messages.GetMessage(ctx, "missing")
	require.ErrorIs(t, err, ErrMessageNotFound)
	_, err = f.messages.ListReceipts(ctx, "missing")
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestListChatMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, eve := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "eve")
	chat := f.individualChat(t, alice, bob)

	m1 := f.send(t, chat.ID, alice.ID, "one")
	m2, err := f.messages.SendMessage(ctx, models.NewMessage{
		ChatID: chat.ID, SenderID: bob.ID, Content: "two", ContentType: "image",
		Attachments: []models.NewAttachment{{FileName: "p.png", FileType: "image/png", FileSize: 42, FilePath: "/img/p.png"}},
	})
	require.NoError(t, err)
	m3 := f.send(t, chat.ID, alice.ID, "three")

	page, err := f.messages.ListChatMessages(ctx, chat.ID, bob.ID, 2, nil)
	require.NoError(t, err)
	assert.True(t, page.HasMore)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, m3.ID, page.Messages[0].ID)
	assert.Equal(t, "alice", page.Messages[0].Sender.Name)
	require.NotNil(t, page.Messages[0].ReceiptStatus)
	assert.Equal(t, models.ReceiptDelivered, *page.Messages[0].ReceiptStatus)

	assert.Equal(t, m2.ID, page.Messages[1].ID)
	assert.Nil(t, page.Messages[1].ReceiptStatus, "own messages carry no receipt for the viewer")
	require.Len(t, page.Messages[1].Attachments, 1)
	assert.Equal(t, "p.png", page.Messages[1].Attachments[0].FileName)
	assert.EqualValues(t, 42, page.Messages[1].Attachments[0].FileSize)

	next, err := f.messages.ListChatMessages(ctx, chat.ID, bob.ID, 2, &m2.ID)
	require.NoError(t, err)
	assert.False(t, next.HasMore)
	require.Len(t, next.Messages, 1)
	assert.Equal(t, m1.ID, next.Messages[0].ID)
	assert.Empty(t, next.Messages[0].Attachments)

	_, err = f.messages.ListChatMessages(ctx, chat.ID, eve.ID, 10, nil)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.messages.ListChatMessages(ctx, "missing", bob.ID, 10, nil)
	require.ErrorIs(t, err, ErrChatNotFound)
	_, err = f.messages.ListChatMessages(ctx, chat.ID, bob.ID, 10, strPtr("missing"))
	require.ErrorIs(t, err, ErrMessageNotFound)
}
