package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-store/internal/models"
)

func TestCreateChatDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat, err := f.chats.CreateChat(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "New Chat", chat.Title)
	assert.Equal(t, models.ChatTypeIndividual, chat.Type)
	assert.Nil(t, chat.LastMessageID)

	group, err := f.chats.CreateChat(ctx, "", models.ChatTypeGroup)
	require.NoError(t, err)
	assert.Equal(t, "New Group", group.Title)

	_, err = f.chats.CreateChat(ctx, "x", models.ChatType("channel"))
	require.ErrorIs(t, err, ErrInvalidArgument)

	stored, err := f.chats.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, stored.ID)
	assert.True(t, chat.CreatedAt.Equal(stored.CreatedAt))
}

func TestCreateIndividualChatWithInitialMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")

	chat, err := f.chats.CreateIndividualChat(ctx, models.NewIndividualChat{
		InitiatorID:    u1.ID,
		ReceiverID:     u2.ID,
		InitialMessage: strPtr("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", chat.Title)
	require.NotNil(t, chat.LastMessageContent)
	assert.Equal(t, "hi", *chat.LastMessageContent)
	require.NotNil(t, chat.LastMessageSenderName)
	assert.Equal(t, "alice", *chat.LastMessageSenderName)

	owner := f.participant(t, chat.ID, u1.ID)
	assert.Equal(t, models.RoleOwner, owner.Role)
	assert.Equal(t, 0, owner.UnreadCount)

	receiver := f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, models.RoleMember, receiver.Role)
	assert.Equal(t, 1, receiver.UnreadCount)

	receipts, err := f.messages.ListReceipts(ctx, *chat.LastMessageID)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, u2.ID, receipts[0].ReceiverID)
	assert.Equal(t, models.ReceiptDelivered, receipts[0].Status)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM conversations WHERE chat_id=?`, chat.ID))
}

func TestCreateIndividualChatIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "alice")

	_, err := f.chats.CreateIndividualChat(ctx, models.NewIndividualChat{InitiatorID: u1.ID, ReceiverID: "missing"})
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.chats.CreateIndividualChat(ctx, models.NewIndividualChat{InitiatorID: u1.ID, ReceiverID: u1.ID})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// a failing receipt insert happens after chat, participants and message rows were written
	_, err = f.db.Exec(`CREATE TRIGGER fail_receipts BEFORE INSERT ON message_receipts BEGIN SELECT RAISE(ABORT, 'receipts disabled'); END`)
	require.NoError(t, err)
	u2 := f.user(t, "bob")
	_, err = f.chats.CreateIndividualChat(ctx, models.NewIndividualChat{InitiatorID: u1.ID, ReceiverID: u2.ID, InitialMessage: strPtr("hi")})
	require.Error(t, err)
	var dbErr *DatabaseError
	require.ErrorAs(t, err, &dbErr)

	for _, table := range []string{"chats", "chat_participants", "conversations", "messages", "message_receipts"} {
		assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM `+table), table)
	}
}

func TestParticipantMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")

	chat, err := f.chats.CreateChat(ctx, "team", models.ChatTypeGroup)
	require.NoError(t, err)

	p, err := f.chats.AddParticipant(ctx, chat.ID, u1.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 0, p.UnreadCount)
	assert.Equal(t, models.RoleAdmin, p.Role)

	_, err = f.chats.AddParticipant(ctx, chat.ID, u1.ID, models.RoleMember)
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.chats.AddParticipant(ctx, "missing", u2.ID, models.RoleMember)
	require.ErrorIs(t, err, ErrChatNotFound)
	_, err = f.chats.AddParticipant(ctx, chat.ID, "missing", models.RoleMember)
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.chats.AddParticipant(ctx, chat.ID, u2.ID, models.ParticipantRole("guest"))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.chats.AddParticipant(ctx, chat.ID, u2.ID, "")
	require.NoError(t, err)
	list, err := f.chats.ListParticipants(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, u1.ID, list[0].UserID)

	require.NoError(t, f.chats.RemoveParticipant(ctx, chat.ID, u2.ID))
	require.NoError(t, f.chats.RemoveParticipant(ctx, chat.ID, u2.ID))
	_, err = f.chats.GetParticipant(ctx, chat.ID, u2.ID)
	require.ErrorIs(t, err, ErrParticipantNotFound)

	_, err = f.chats.GetChat(ctx, chat.ID)
	require.NoError(t, err, "removing a participant never deletes the chat")
}

func TestUpdateChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat, err := f.chats.CreateChat(ctx, "old", models.ChatTypeIndividual)
	require.NoError(t, err)

	updated, err := f.chats.UpdateChat(ctx, chat.ID, "new", models.ChatTypeGroup)
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, models.ChatTypeGroup, updated.Type)
	assert.True(t, updated.UpdatedAt.After(chat.UpdatedAt))

	_, err = f.chats.UpdateChat(ctx, "missing", "new", models.ChatTypeGroup)
	require.ErrorIs(t, err, ErrChatNotFound)
	_, err = f.chats.UpdateChat(ctx, chat.ID, "", models.ChatTypeGroup)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDeleteChatRemovesGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	chat := f.individualChat(t, u1, u2)

	_, err := f.messages.SendMessage(ctx, models.NewMessage{
		ChatID: chat.ID, SenderID: u1.ID, Content: "see file",
		Attachments: []models.NewAttachment{{FileName: "a.png", FileType: "image/png", FileSize: 10, FilePath: "/tmp/a.png"}},
	})
	require.NoError(t, err)
	f.send(t, chat.ID, u2.ID, "thanks")

	require.NoError(t, f.chats.DeleteChat(ctx, chat.ID))
	for _, table := range []string{"chats", "chat_participants", "conversations", "messages", "message_receipts", "attachments"} {
		assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM `+table), table)
	}
	assert.Equal(t, 2, f.count(t, `SELECT COUNT(*) FROM users`))

	require.ErrorIs(t, f.chats.DeleteChat(ctx, chat.ID), ErrChatNotFound)
}

func TestFindUserChats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, bob, carol := f.user(t, "me"), f.user(t, "bob"), f.user(t, "carol")

	withBob, err := f.chats.CreateIndividualChat(ctx, models.NewIndividualChat{InitiatorID: me.ID, ReceiverID: bob.ID, Title: "b-chat"})
	require.NoError(t, err)
	withCarol, err := f.chats.CreateIndividualChat(ctx, models.NewIndividualChat{InitiatorID: me.ID, ReceiverID: carol.ID, Title: "a-chat"})
	require.NoError(t, err)
	empty, err := f.chats.CreateIndividualChat(ctx, models.NewIndividualChat{InitiatorID: bob.ID, ReceiverID: me.ID, Title: "c-chat"})
	require.NoError(t, err)

	f.send(t, withCarol.ID, carol.ID, "first")
	f.send(t, withBob.ID, bob.ID, "second")
	f.send(t, withBob.ID, bob.ID, "third")

	chats, err := f.chats.FindUserChats(ctx, me.ID, models.ChatListOptions{})
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, withBob.ID, chats[0].ID)
	assert.Equal(t, 2, chats[0].UnreadCount)
	assert.Equal(t, models.RoleOwner, chats[0].Role)
	require.Len(t, chats[0].Participants, 2)
	assert.Equal(t, withCarol.ID, chats[1].ID)

	chats, err = f.chats.FindUserChats(ctx, me.ID, models.ChatListOptions{IncludeEmpty: true})
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, empty.ID, chats[2].ID, "chats without messages sort last")
	assert.Equal(t, models.RoleMember, chats[2].Role)

	chats, err = f.chats.FindUserChats(ctx, me.ID, models.ChatListOptions{IncludeEmpty: true, Sort: models.SortByTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{withCarol.ID, withBob.ID, empty.ID}, chatIDs(chats))

	chats, err = f.chats.FindUserChats(ctx, me.ID, models.ChatListOptions{IncludeEmpty: true, Sort: models.SortByCreatedAt})
	require.NoError(t, err)
	assert.Equal(t, []string{empty.ID, withCarol.ID, withBob.ID}, chatIDs(chats))

	chats, err = f.chats.FindUserChats(ctx, me.ID, models.ChatListOptions{IncludeEmpty: true, Sort: models.SortByUpdatedAt})
	require.NoError(t, err)
	assert.Equal(t, withBob.ID, chats[0].ID)

	chats, err = f.chats.FindUserChats(ctx, me.ID, models.ChatListOptions{IncludeEmpty: true, Sort: models.SortByTitle, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{withBob.ID}, chatIDs(chats))

	_, err = f.chats.FindUserChats(ctx, me.ID, models.ChatListOptions{Sort: "random"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	none, err := f.chats.FindUserChats(ctx, "nobody", models.ChatListOptions{IncludeEmpty: true})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func chatIDs(chats []models.ChatWithDetails) []string {
	ids := make([]string, len(chats))
	for i, c := range chats {
		ids[i] = c.ID
	}
	return ids
}
