package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/logger"
	"chat-store/internal/models"
)

var ErrNotParticipant = fmt.Errorf("%w: sender is not a chat participant", ErrForbidden)

// MessageRepository abstracts message fan-out and retrieval.
type MessageRepository interface {
	SendMessage(ctx context.Context, in models.NewMessage) (models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	ListReceipts(ctx context.Context, messageID string) ([]models.MessageReceipt, error)
	ListChatMessages(ctx context.Context, chatID string, viewerID string, limit int, before *string) (models.MessagePage, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	store
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB, log *logger.Logger, clock Clock) *MessageRepo {
	return &MessageRepo{store: newStore(db, log, clock, "MessageRepo")}
}

// SendMessage stores a message, one delivered receipt per other participant, bumps
// their unread counters and refreshes the chat's last-message cache, all in one transaction.
// It is not idempotent: a retry after an ambiguous failure can duplicate the message.
func (r *MessageRepo) SendMessage(ctx context.Context, in models.NewMessage) (models.Message, error) {
	var msg models.Message
	err := r.withTx(ctx, "send_message", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		msg, err = sendInTx(ctx, tx, r.now(), in)
		return err
	})
	if err != nil {
		return models.Message{}, err
	}
	r.log.Debug("sent message", "message_id", msg.ID, "chat_id", in.ChatID, "sender_id", in.SenderID)
	return msg, nil
}

func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.run(ctx, "get_message", func(ctx context.Context) error {
		return getMessage(ctx, r.db, messageID, &msg)
	})
	return msg, err
}

func (r *MessageRepo) ListReceipts(ctx context.Context, messageID string) ([]models.MessageReceipt, error) {
	var receipts []models.MessageReceipt
	err := r.run(ctx, "list_receipts", func(ctx context.Context) error {
		var msg models.Message
		if err := getMessage(ctx, r.db, messageID, &msg); err != nil {
			return err
		}
		err := selectRows(ctx, r.db, &receipts, `SELECT `+receiptColumns+`
            FROM message_receipts WHERE message_id=? ORDER BY created_at, receiver_id`, messageID)
		return classify("list receipts", err)
	})
	if receipts == nil && err == nil {
		receipts = []models.MessageReceipt{}
	}
	return receipts, err
}

const messageColumns = `id, conversation_id, sender_id, content, content_type, status, created_at, updated_at`

const receiptColumns = `id, message_id, receiver_id, status, created_at, updated_at`

func validateNewMessage(in *models.NewMessage) error {
	if in.ChatID == "" || in.SenderID == "" {
		return invalidArgument("chat and sender are required")
	}
	if strings.TrimSpace(in.Content) == "" && len(in.Attachments) == 0 {
		return invalidArgument("message content is empty")
	}
	if in.ContentType == "" {
		in.ContentType = models.DefaultContentType
	}
	for _, a := range in.Attachments {
		if a.FileName == "" || a.FilePath == "" {
			return invalidArgument("attachment file name and path are required")
		}
		if a.FileSize < 0 {
			return invalidArgument("attachment size must not be negative")
		}
	}
	return nil
}

// sendInTx performs the message fan-out inside tx.
func sendInTx(ctx context.Context, tx *sqlx.Tx, now time.Time, in models.NewMessage) (models.Message, error) {
	if err := validateNewMessage(&in); err != nil {
		return models.Message{}, err
	}

	var chat models.Chat
	if err := getChat(ctx, tx, in.ChatID, &chat); err != nil {
		return models.Message{}, err
	}
	var sender models.ChatParticipant
	if err := getParticipant(ctx, tx, in.ChatID, in.SenderID, &sender); err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			return models.Message{}, ErrNotParticipant
		}
		return models.Message{}, err
	}

	conversationID, err := conversationForChat(ctx, tx, in.ChatID, now)
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		ID:             newID(),
		ConversationID: conversationID,
		SenderID:       in.SenderID,
		Content:        in.Content,
		ContentType:    in.ContentType,
		Status:         models.MessageStatusSent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := exec(ctx, tx, `INSERT INTO messages (id, conversation_id, sender_id, content, content_type, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.ContentType, string(msg.Status), msg.CreatedAt, msg.UpdatedAt); err != nil {
		return models.Message{}, classify("insert message", err)
	}

	var receivers []string
	if err := selectRows(ctx, tx, &receivers, `SELECT user_id FROM chat_participants WHERE chat_id=? AND user_id<>? ORDER BY user_id`,
		in.ChatID, in.SenderID); err != nil {
		return models.Message{}, classify("select receivers", err)
	}
	if err := insertReceipts(ctx, tx, msg.ID, receivers, now); err != nil {
		return models.Message{}, err
	}
	if _, err := exec(ctx, tx, `UPDATE chat_participants SET unread_count = unread_count + 1 WHERE chat_id=? AND user_id<>?`,
		in.ChatID, in.SenderID); err != nil {
		return models.Message{}, classify("increment unread", err)
	}

	for _, a := range in.Attachments {
		if _, err := exec(ctx, tx, `INSERT INTO attachments
            (id, message_id, file_name, file_type, file_size, file_path, thumbnail_path, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newID(), msg.ID, a.FileName, a.FileType, a.FileSize, a.FilePath, a.ThumbnailPath, now, now); err != nil {
			return models.Message{}, classify("insert attachment", err)
		}
	}

	var senderName string
	if err := get(ctx, tx, &senderName, `SELECT name FROM users WHERE id=?`, in.SenderID); err != nil {
		return models.Message{}, lookup("resolve sender", err, ErrUserNotFound)
	}
	if _, err := exec(ctx, tx, `UPDATE chats SET
            last_message_id=?, last_message_content=?, last_message_time=?,
            last_message_sender_id=?, last_message_sender_name=?, last_message_type=?, updated_at=?
        WHERE id=?`,
		msg.ID, msg.Content, msg.CreatedAt, msg.SenderID, senderName, msg.ContentType, now, in.ChatID); err != nil {
		return models.Message{}, classify("update chat cache", err)
	}
	return msg, nil
}

// conversationForChat returns the chat's conversation, creating it for chats that
// have never carried a message.
func conversationForChat(ctx context.Context, tx *sqlx.Tx, chatID string, now time.Time) (string, error) {
	var id string
	err := get(ctx, tx, &id, `SELECT id FROM conversations WHERE chat_id=?`, chatID)
	if err == nil {
		return id, nil
	}
	if err := lookup("get conversation", err, ErrConversationNotFound); !errors.Is(err, ErrConversationNotFound) {
		return "", err
	}
	return insertConversation(ctx, tx, chatID, now)
}

// receiptBatchSize keeps one batch insert under SQLite's bound-parameter limit.
const receiptBatchSize = 500

type receiptRow struct {
	ID         string    `db:"id"`
	MessageID  string    `db:"message_id"`
	ReceiverID string    `db:"receiver_id"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func insertReceipts(ctx context.Context, tx *sqlx.Tx, messageID string, receivers []string, now time.Time) error {
	rows := make([]receiptRow, len(receivers))
	for i, receiverID := range receivers {
		rows[i] = receiptRow{
			ID:         newID(),
			MessageID:  messageID,
			ReceiverID: receiverID,
			Status:     string(models.ReceiptDelivered),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	for len(rows) > 0 {
		n := min(len(rows), receiptBatchSize)
		if _, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO message_receipts
            (id, message_id, receiver_id, status, created_at, updated_at)
            VALUES (:id, :message_id, :receiver_id, :status, :created_at, :updated_at)`, rows[:n]); err != nil {
			return classify("insert receipts", err)
		}
		rows = rows[n:]
	}
	return nil
}

func getMessage(ctx context.Context, q sqlx.ExtContext, messageID string, dest *models.Message) error {
	err := get(ctx, q, dest, `SELECT `+messageColumns+` FROM messages WHERE id=?`, messageID)
	return lookup("get message", err, ErrMessageNotFound)
}

// chatOfMessage resolves the chat a message was posted to.
func chatOfMessage(ctx context.Context, q sqlx.ExtContext, messageID string) (string, error) {
	var chatID string
	err := get(ctx, q, &chatID, `SELECT cv.chat_id FROM messages m
        JOIN conversations cv ON cv.id = m.conversation_id WHERE m.id=?`, messageID)
	return chatID, lookup("resolve message chat", err, ErrMessageNotFound)
}
