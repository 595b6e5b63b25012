package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/models"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 200
)

// ListChatMessages returns a newest-first page of a chat's messages as seen by viewer.
// before is the id of the oldest message of the previous page.
func (r *MessageRepo) ListChatMessages(ctx context.Context, chatID string, viewerID string, limit int, before *string) (models.MessagePage, error) {
	switch {
	case limit < 0:
		return models.MessagePage{}, invalidArgument("limit must not be negative")
	case limit == 0:
		limit = defaultMessagePageSize
	case limit > maxMessagePageSize:
		limit = maxMessagePageSize
	}

	page := models.MessagePage{Messages: []models.MessageWithDetails{}}
	err := r.withTx(ctx, "list_chat_messages", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		var chat models.Chat
		if err := getChat(ctx, tx, chatID, &chat); err != nil {
			return err
		}
		var viewer models.ChatParticipant
		if err := getParticipant(ctx, tx, chatID, viewerID, &viewer); err != nil {
			if errors.Is(err, ErrParticipantNotFound) {
				return ErrForbidden
			}
			return err
		}

		query := `SELECT m.id, m.conversation_id, m.sender_id, m.content, m.content_type, m.status, m.created_at, m.updated_at,
                u.id AS "sender.id", u.name AS "sender.name", u.description AS "sender.description", u.is_ai AS "sender.is_ai",
                mr.status AS receipt_status
            FROM messages m
            JOIN conversations cv ON cv.id = m.conversation_id
            JOIN users u ON u.id = m.sender_id
            LEFT JOIN message_receipts mr ON mr.message_id = m.id AND mr.receiver_id = ?
            WHERE cv.chat_id = ?`
		args := []any{viewerID, chatID}
		if before != nil && *before != "" {
			var cursor models.Message
			if err := getMessage(ctx, tx, *before, &cursor); err != nil {
				return err
			}
			cursorChat, err := chatOfMessage(ctx, tx, cursor.ID)
			if err != nil {
				return err
			}
			if cursorChat != chatID {
				return ErrMessageNotFound
			}
			query += ` AND (m.created_at < ? OR (m.created_at = ? AND m.id < ?))`
			args = append(args, cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		query += ` ORDER BY m.created_at DESC, m.id DESC LIMIT ?`
		args = append(args, limit+1)

		var rows []models.MessageWithDetails
		if err := selectRows(ctx, tx, &rows, query, args...); err != nil {
			return classify("list messages", err)
		}
		if len(rows) > limit {
			page.HasMore = true
			rows = rows[:limit]
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]string, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
			rows[i].Attachments = []models.Attachment{}
		}
		var attachments []models.Attachment
		if err := selectIn(ctx, tx, &attachments, `SELECT id, message_id, file_name, file_type, file_size, file_path,
                thumbnail_path, created_at, updated_at
            FROM attachments WHERE message_id IN (?) ORDER BY created_at, id`, ids); err != nil {
			return classify("list attachments", err)
		}
		index := make(map[string]int, len(rows))
		for i := range rows {
			index[rows[i].ID] = i
		}
		for _, a := range attachments {
			if i, ok := index[a.MessageID]; ok {
				rows[i].Attachments = append(rows[i].Attachments, a)
			}
		}
		page.Messages = rows
		return nil
	})
	if err != nil {
		return models.MessagePage{}, err
	}
	return page, nil
}
