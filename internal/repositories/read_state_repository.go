package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/logger"
	"chat-store/internal/models"
)

// ReadStateRepository tracks read cursors, unread counters and receipt status.
type ReadStateRepository interface {
	MarkAsRead(ctx context.Context, chatID string, userID string, messageID string) (models.ChatParticipant, error)
	ResetUnreadCount(ctx context.Context, chatID string, userID string) (models.ChatParticipant, error)
	UpdateMessageReceiptStatus(ctx context.Context, messageID string, receiverID string, status models.ReceiptStatus) (models.MessageReceipt, error)
}

type ReadStateRepo struct {
	store
}

func NewReadStateRepo(db *sqlx.DB, log *logger.Logger, clock Clock) *ReadStateRepo {
	return &ReadStateRepo{store: newStore(db, log, clock, "ReadStateRepo")}
}

// MarkAsRead moves the participant's cursor to messageID and clears the unread
// counter. The caller decides which message is the newest one read; every receipt
// of the user in that chat still marked delivered becomes read.
func (r *ReadStateRepo) MarkAsRead(ctx context.Context, chatID string, userID string, messageID string) (models.ChatParticipant, error) {
	var participant models.ChatParticipant
	err := r.withTx(ctx, "mark_as_read", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := getParticipant(ctx, tx, chatID, userID, &participant); err != nil {
			return err
		}
		messageChat, err := chatOfMessage(ctx, tx, messageID)
		if err != nil {
			return err
		}
		if messageChat != chatID {
			return ErrMessageNotFound
		}

		if err := markReadInTx(ctx, tx, chatID, userID, messageID, r.now()); err != nil {
			return err
		}
		return getParticipant(ctx, tx, chatID, userID, &participant)
	})
	if err != nil {
		return models.ChatParticipant{}, err
	}
	r.log.Debug("marked chat read", "chat_id", chatID, "user_id", userID, "message_id", messageID)
	return participant, nil
}

// ResetUnreadCount clears the unread counter and leaves the cursor alone. Safe to retry.
func (r *ReadStateRepo) ResetUnreadCount(ctx context.Context, chatID string, userID string) (models.ChatParticipant, error) {
	var participant models.ChatParticipant
	err := r.withTx(ctx, "reset_unread_count", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := exec(ctx, tx, `UPDATE chat_participants SET unread_count=0 WHERE chat_id=? AND user_id=?`, chatID, userID)
		if err != nil {
			return classify("reset unread", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return classify("reset unread", err)
		} else if n == 0 {
			return ErrParticipantNotFound
		}
		return getParticipant(ctx, tx, chatID, userID, &participant)
	})
	return participant, err
}

// UpdateMessageReceiptStatus applies a receipt transition. Only delivered -> read
// changes anything; read -> delivered is rejected and repeating the current status
// is a no-op. A receipt that becomes read advances the receiver's cursor. Reading the
// newest message of the chat reads the whole chat; reading an older one takes one
// message off the unread counter.
func (r *ReadStateRepo) UpdateMessageReceiptStatus(ctx context.Context, messageID string, receiverID string, status models.ReceiptStatus) (models.MessageReceipt, error) {
	if !status.Valid() {
		return models.MessageReceipt{}, invalidArgument("unknown receipt status %q", status)
	}

	var receipt models.MessageReceipt
	err := r.withTx(ctx, "update_receipt_status", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		err := get(ctx, tx, &receipt, `SELECT `+receiptColumns+` FROM message_receipts WHERE message_id=? AND receiver_id=?`,
			messageID, receiverID)
		if err != nil {
			return lookup("get receipt", err, ErrReceiptNotFound)
		}

		switch {
		case receipt.Status == status:
			return nil
		case receipt.Status == models.ReceiptRead && status == models.ReceiptDelivered:
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, receipt.Status, status)
		}

		now := r.now()
		if _, err := exec(ctx, tx, `UPDATE message_receipts SET status=?, updated_at=? WHERE id=?`,
			string(status), now, receipt.ID); err != nil {
			return classify("update receipt", err)
		}
		receipt.Status = status
		receipt.UpdatedAt = now

		var msg models.Message
		if err := getMessage(ctx, tx, messageID, &msg); err != nil {
			return err
		}
		chatID, err := chatOfMessage(ctx, tx, messageID)
		if err != nil {
			return err
		}
		newer, err := count(ctx, tx, `SELECT COUNT(*) FROM messages m
            JOIN conversations cv ON cv.id = m.conversation_id
            WHERE cv.chat_id=? AND (m.created_at > ? OR (m.created_at = ? AND m.id > ?))`,
			chatID, msg.CreatedAt, msg.CreatedAt, msg.ID)
		if err != nil {
			return classify("count newer messages", err)
		}
		// Reading the newest message reads the whole chat, as mark_as_read does.
		if newer == 0 {
			return markReadInTx(ctx, tx, chatID, receiverID, messageID, now)
		}

		// The cursor only moves forward; a late receipt for an older message leaves it in place.
		_, err = exec(ctx, tx, `UPDATE chat_participants SET
                last_read_message_id = CASE
                    WHEN last_read_message_id IS NULL THEN ?
                    WHEN (SELECT created_at FROM messages WHERE id = chat_participants.last_read_message_id) <= ? THEN ?
                    ELSE last_read_message_id END,
                unread_count = CASE WHEN unread_count > 0 THEN unread_count - 1 ELSE 0 END
            WHERE chat_id=? AND user_id=?`,
			messageID, msg.CreatedAt, messageID, chatID, receiverID)
		return classify("advance read cursor", err)
	})
	if err != nil {
		return models.MessageReceipt{}, err
	}
	return receipt, nil
}

// markReadInTx sets the cursor to messageID, clears the unread counter and flips
// every delivered receipt of userID in the chat to read.
func markReadInTx(ctx context.Context, tx *sqlx.Tx, chatID, userID, messageID string, now time.Time) error {
	if _, err := exec(ctx, tx, `UPDATE chat_participants SET last_read_message_id=?, unread_count=0
        WHERE chat_id=? AND user_id=?`, messageID, chatID, userID); err != nil {
		return classify("update read cursor", err)
	}
	_, err := exec(ctx, tx, `UPDATE message_receipts SET status=?, updated_at=?
        WHERE receiver_id=? AND status=? AND message_id IN (
            SELECT m.id FROM messages m JOIN conversations cv ON cv.id = m.conversation_id WHERE cv.chat_id=?)`,
		string(models.ReceiptRead), now, userID, string(models.ReceiptDelivered), chatID)
	return classify("mark receipts read", err)
}
