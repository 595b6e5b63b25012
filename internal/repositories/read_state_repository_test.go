package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-store/internal/models"
)

func TestMarkAsReadClearsUnread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")

	chat, err := f.chats.CreateIndividualChat(ctx, models.NewIndividualChat{InitiatorID: u1.ID, ReceiverID: u2.ID, InitialMessage: strPtr("hi")})
	require.NoError(t, err)
	require.Equal(t, 1, f.participant(t, chat.ID, u2.ID).UnreadCount)

	p, err := f.reads.MarkAsRead(ctx, chat.ID, u2.ID, *chat.LastMessageID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.UnreadCount)
	require.NotNil(t, p.LastReadMessageID)
	assert.Equal(t, *chat.LastMessageID, *p.LastReadMessageID)

	receipts, err := f.messages.ListReceipts(ctx, *chat.LastMessageID)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, models.ReceiptRead, receipts[0].Status)
}

func TestMarkAsReadErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	chat := f.individualChat(t, u1, u2)
	other := f.individualChat(t, u1, u3)
	msg := f.send(t, chat.ID, u1.ID, "hi")
	foreign := f.send(t, other.ID, u1.ID, "elsewhere")

	_, err := f.reads.MarkAsRead(ctx, chat.ID, u3.ID, msg.ID)
	require.ErrorIs(t, err, ErrParticipantNotFound)
	_, err = f.reads.MarkAsRead(ctx, chat.ID, u2.ID, "missing")
	require.ErrorIs(t, err, ErrMessageNotFound)
	_, err = f.reads.MarkAsRead(ctx, chat.ID, u2.ID, foreign.ID)
	require.ErrorIs(t, err, ErrMessageNotFound)

	assert.Equal(t, 1, f.participant(t, chat.ID, u2.ID).UnreadCount)
}

func TestUnreadConsistencyAcrossSendsAndReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	chat := f.individualChat(t, u1, u2)

	var last models.Message
	for _, content := range []string{"a", "b", "c"} {
		last = f.send(t, chat.ID, u1.ID, content)
	}
	p := f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, 3, p.UnreadCount)
	assert.Nil(t, p.LastReadMessageID)

	p, err := f.reads.MarkAsRead(ctx, chat.ID, u2.ID, last.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.UnreadCount)
	assert.Equal(t, last.ID, *p.LastReadMessageID)

	newer := f.send(t, chat.ID, u1.ID, "d")
	p = f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, 1, p.UnreadCount)
	assert.NotEqual(t, newer.ID, *p.LastReadMessageID)

	p, err = f.reads.MarkAsRead(ctx, chat.ID, u2.ID, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.UnreadCount)
	assert.Equal(t, newer.ID, *p.LastReadMessageID)
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM message_receipts WHERE receiver_id=? AND status='delivered'`, u2.ID))
}

func TestResetUnreadCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	chat := f.individualChat(t, u1, u2)
	f.send(t, chat.ID, u1.ID, "a")
	f.send(t, chat.ID, u1.ID, "b")

	p, err := f.reads.ResetUnreadCount(ctx, chat.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.UnreadCount)
	assert.Nil(t, p.LastReadMessageID)

	p, err = f.reads.ResetUnreadCount(ctx, chat.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.UnreadCount)

	_, err = f.reads.ResetUnreadCount(ctx, chat.ID, "missing")
	require.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestReceiptTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	chat := f.individualChat(t, u1, u2)
	first := f.send(t, chat.ID, u1.ID, "first")
	second := f.send(t, chat.ID, u1.ID, "second")
	require.Equal(t, 2, f.participant(t, chat.ID, u2.ID).UnreadCount)

	// reading the newest message reads the whole chat
	rc, err := f.reads.UpdateMessageReceiptStatus(ctx, second.ID, u2.ID, models.ReceiptRead)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptRead, rc.Status)
	p := f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, 0, p.UnreadCount)
	assert.Equal(t, second.ID, *p.LastReadMessageID)
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM message_receipts WHERE receiver_id=? AND status='delivered'`, u2.ID))

	older, err := f.reads.UpdateMessageReceiptStatus(ctx, first.ID, u2.ID, models.ReceiptRead)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptRead, older.Status)
	p = f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, 0, p.UnreadCount)
	assert.Equal(t, second.ID, *p.LastReadMessageID)

	again, err := f.reads.UpdateMessageReceiptStatus(ctx, second.ID, u2.ID, models.ReceiptRead)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptRead, again.Status)
	assert.Equal(t, 0, f.participant(t, chat.ID, u2.ID).UnreadCount)

	_, err = f.reads.UpdateMessageReceiptStatus(ctx, second.ID, u2.ID, models.ReceiptDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.reads.UpdateMessageReceiptStatus(ctx, second.ID, u1.ID, models.ReceiptRead)
	require.ErrorIs(t, err, ErrReceiptNotFound)
	_, err = f.reads.UpdateMessageReceiptStatus(ctx, second.ID, u2.ID, models.ReceiptStatus("seen"))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReceiptReadOneByOneKeepsCursorConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	chat := f.individualChat(t, u1, u2)
	a := f.send(t, chat.ID, u1.ID, "a")
	b := f.send(t, chat.ID, u1.ID, "b")
	c := f.send(t, chat.ID, u1.ID, "c")

	_, err := f.reads.UpdateMessageReceiptStatus(ctx, a.ID, u2.ID, models.ReceiptRead)
	require.NoError(t, err)
	p := f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, 2, p.UnreadCount)
	assert.Equal(t, a.ID, *p.LastReadMessageID)

	_, err = f.reads.UpdateMessageReceiptStatus(ctx, b.ID, u2.ID, models.ReceiptRead)
	require.NoError(t, err)
	p = f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, 1, p.UnreadCount)
	assert.Equal(t, b.ID, *p.LastReadMessageID)

	_, err = f.reads.UpdateMessageReceiptStatus(ctx, c.ID, u2.ID, models.ReceiptRead)
	require.NoError(t, err)
	p = f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, 0, p.UnreadCount)
	assert.Equal(t, c.ID, *p.LastReadMessageID)
}

func TestReceiptReadOfNewestSkippingOlder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	chat, err := f.chats.CreateChat(ctx, "team", models.ChatTypeGroup)
	require.NoError(t, err)
	for _, u := range []models.User{u1, u2, u3} {
		_, err := f.chats.AddParticipant(ctx, chat.ID, u.ID, models.RoleMember)
		require.NoError(t, err)
	}
	f.send(t, chat.ID, u1.ID, "one")
	f.send(t, chat.ID, u3.ID, "two")
	newest := f.send(t, chat.ID, u1.ID, "three")
	require.Equal(t, 3, f.participant(t, chat.ID, u2.ID).UnreadCount)

	_, err = f.reads.UpdateMessageReceiptStatus(ctx, newest.ID, u2.ID, models.ReceiptRead)
	require.NoError(t, err)

	p := f.participant(t, chat.ID, u2.ID)
	assert.Equal(t, 0, p.UnreadCount)
	assert.Equal(t, newest.ID, *p.LastReadMessageID)
	assert.Zero(t, f.count(t, `SELECT COUNT(*) FROM message_receipts WHERE receiver_id=? AND status='delivered'`, u2.ID))
	// other receivers are untouched
	assert.Equal(t, 2, f.participant(t, chat.ID, u3.ID).UnreadCount)
}

func TestDeliveredReceiptUpdateIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	chat := f.individualChat(t, u1, u2)
	msg := f.send(t, chat.ID, u1.ID, "hello")

	rc, err := f.reads.UpdateMessageReceiptStatus(ctx, msg.ID, u2.ID, models.ReceiptDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptDelivered, rc.Status)
	assert.Equal(t, 1, f.participant(t, chat.ID, u2.ID).UnreadCount)
}
