package repositories

import (
	"context"
	"math"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/models"
)

var chatOrderings = map[models.ChatSort]string{
	models.SortByLastMessage: `CASE WHEN c.last_message_time IS NULL THEN 1 ELSE 0 END, c.last_message_time DESC, c.created_at DESC, c.id`,
	models.SortByCreatedAt:   `c.created_at DESC, c.id`,
	models.SortByTitle:       `c.title ASC, c.created_at DESC, c.id`,
	models.SortByUpdatedAt:   `c.updated_at DESC, c.id`,
}

type chatParticipantRow struct {
	ChatID string `db:"chat_id"`
	models.ParticipantDetails
}

// FindUserChats lists the chats a user belongs to, each with the caller's read state
// and the member list. It never writes.
func (r *ChatRepo) FindUserChats(ctx context.Context, userID string, opts models.ChatListOptions) ([]models.ChatWithDetails, error) {
	sort, err := models.ParseChatSort(string(opts.Sort))
	if err != nil {
		return nil, invalidArgument("%v", err)
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, invalidArgument("limit and offset must not be negative")
	}

	query := `SELECT c.id, c.title, c.type, c.last_message_id, c.last_message_content, c.last_message_time,
            c.last_message_sender_id, c.last_message_sender_name, c.last_message_type, c.created_at, c.updated_at,
            cp.unread_count, cp.last_read_message_id, cp.role
        FROM chats c
        JOIN chat_participants cp ON cp.chat_id = c.id
        WHERE cp.user_id = ?`
	args := []any{userID}
	if !opts.IncludeEmpty {
		query += ` AND c.last_message_id IS NOT NULL`
	}
	query += ` ORDER BY ` + chatOrderings[sort]
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit == 0 {
			limit = math.MaxInt32
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, opts.Offset)
	}

	var chats []models.ChatWithDetails
	err = r.withTx(ctx, "find_user_chats", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := selectRows(ctx, tx, &chats, query, args...); err != nil {
			return classify("find user chats", err)
		}
		if len(chats) == 0 {
			return nil
		}

		ids := make([]string, len(chats))
		for i := range chats {
			ids[i] = chats[i].ID
		}
		var rows []chatParticipantRow
		err := selectIn(ctx, tx, &rows, `SELECT cp.chat_id, u.id, u.name, u.description, u.is_ai, cp.role
            FROM chat_participants cp
            JOIN users u ON u.id = cp.user_id
            WHERE cp.chat_id IN (?)
            ORDER BY cp.joined_at, u.id`, ids)
		if err != nil {
			return classify("load chat participants", err)
		}

		byChat := make(map[string][]models.ParticipantDetails, len(chats))
		for _, row := range rows {
			byChat[row.ChatID] = append(byChat[row.ChatID], row.ParticipantDetails)
		}
		for i := range chats {
			chats[i].Participants = byChat[chats[i].ID]
			if chats[i].Participants == nil {
				chats[i].Participants = []models.ParticipantDetails{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []models.ChatWithDetails{}
	}
	return chats, nil
}
