package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/logger"
	"chat-store/internal/models"
)

const (
	defaultChatTitle  = "New Chat"
	defaultGroupTitle = "New Group"
)

// ChatRepository abstracts chat lifecycle and membership persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, title string, chatType models.ChatType) (models.Chat, error)
	CreateIndividualChat(ctx context.Context, in models.NewIndividualChat) (models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	UpdateChat(ctx context.Context, chatID string, title string, chatType models.ChatType) (models.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
	AddParticipant(ctx context.Context, chatID string, userID string, role models.ParticipantRole) (models.ChatParticipant, error)
	RemoveParticipant(ctx context.Context, chatID string, userID string) error
	GetParticipant(ctx context.Context, chatID string, userID string) (models.ChatParticipant, error)
	ListParticipants(ctx context.Context, chatID string) ([]models.ChatParticipant, error)
	FindUserChats(ctx context.Context, userID string, opts models.ChatListOptions) ([]models.ChatWithDetails, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	store
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB, log *logger.Logger, clock Clock) *ChatRepo {
	return &ChatRepo{store: newStore(db, log, clock, "ChatRepo")}
}

// CreateChat inserts an empty chat. Its conversation is created with the first message.
func (r *ChatRepo) CreateChat(ctx context.Context, title string, chatType models.ChatType) (models.Chat, error) {
	if chatType == "" {
		chatType = models.ChatTypeIndividual
	}
	if !chatType.Valid() {
		return models.Chat{}, invalidArgument("unknown chat type %q", chatType)
	}
	if strings.TrimSpace(title) == "" {
		title = defaultChatTitle
		if chatType == models.ChatTypeGroup {
			title = defaultGroupTitle
		}
	}

	now := r.now()
	chat := models.Chat{ID: newID(), Title: title, Type: chatType, CreatedAt: now, UpdatedAt: now}
	err := r.run(ctx, "create_chat", func(ctx context.Context) error {
		return insertChat(ctx, r.db, chat)
	})
	if err != nil {
		return models.Chat{}, err
	}
	r.log.Debug("created chat", "chat_id", chat.ID, "type", chat.Type)
	return chat, nil
}

// CreateIndividualChat creates a 1:1 chat with both participants and its conversation,
// sending the initial message when one is supplied. Nothing is persisted on failure.
func (r *ChatRepo) CreateIndividualChat(ctx context.Context, in models.NewIndividualChat) (models.Chat, error) {
	if in.InitiatorID == "" || in.ReceiverID == "" {
		return models.Chat{}, invalidArgument("initiator and receiver are required")
	}
	if in.InitiatorID == in.ReceiverID {
		return models.Chat{}, invalidArgument("cannot create chat with self")
	}
	if in.InitialMessage != nil && strings.TrimSpace(*in.InitialMessage) == "" {
		in.InitialMessage = nil
	}

	var chat models.Chat
	err := r.withTx(ctx, "create_individual_chat", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := userExists(ctx, tx, in.InitiatorID); err != nil {
			return err
		}
		var receiver models.User
		if err := getUser(ctx, tx, in.ReceiverID, &receiver); err != nil {
			return err
		}

		now := r.now()
		title := in.Title
		if strings.TrimSpace(title) == "" {
			title = receiver.Name
		}
		chat = models.Chat{ID: newID(), Title: title, Type: models.ChatTypeIndividual, CreatedAt: now, UpdatedAt: now}
		if err := insertChat(ctx, tx, chat); err != nil {
			return err
		}
		if _, err := insertParticipant(ctx, tx, chat.ID, in.InitiatorID, models.RoleOwner, now); err != nil {
			return err
		}
		if _, err := insertParticipant(ctx, tx, chat.ID, in.ReceiverID, models.RoleMember, now); err != nil {
			return err
		}
		if _, err := insertConversation(ctx, tx, chat.ID, now); err != nil {
			return err
		}

		if in.InitialMessage != nil {
			if _, err := sendInTx(ctx, tx, r.now(), models.NewMessage{
				ChatID:      chat.ID,
				SenderID:    in.InitiatorID,
				Content:     *in.InitialMessage,
				ContentType: models.DefaultContentType,
			}); err != nil {
				return err
			}
			return getChat(ctx, tx, chat.ID, &chat)
		}
		return nil
	})
	if err != nil {
		return models.Chat{}, err
	}
	r.log.Debug("created individual chat", "chat_id", chat.ID, "initiator_id", in.InitiatorID, "receiver_id", in.ReceiverID)
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.run(ctx, "get_chat", func(ctx context.Context) error {
		return getChat(ctx, r.db, chatID, &chat)
	})
	return chat, err
}

// UpdateChat changes title and type of an existing chat.
func (r *ChatRepo) UpdateChat(ctx context.Context, chatID string, title string, chatType models.ChatType) (models.Chat, error) {
	if !chatType.Valid() {
		return models.Chat{}, invalidArgument("unknown chat type %q", chatType)
	}
	if strings.TrimSpace(title) == "" {
		return models.Chat{}, invalidArgument("chat title is required")
	}

	var chat models.Chat
	err := r.withTx(ctx, "update_chat", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := exec(ctx, tx, `UPDATE chats SET title=?, type=?, updated_at=? WHERE id=?`, title, string(chatType), r.now(), chatID)
		if err != nil {
			return classify("update chat", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return classify("update chat", err)
		} else if n == 0 {
			return ErrChatNotFound
		}
		return getChat(ctx, tx, chatID, &chat)
	})
	return chat, err
}

// DeleteChat removes a chat together with its conversation, messages, receipts,
// attachments and memberships.
func (r *ChatRepo) DeleteChat(ctx context.Context, chatID string) error {
	err := r.withTx(ctx, "delete_chat", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		var chat models.Chat
		if err := getChat(ctx, tx, chatID, &chat); err != nil {
			return err
		}
		return deleteChatGraph(ctx, tx, chatID)
	})
	if err != nil {
		return err
	}
	r.log.Debug("deleted chat", "chat_id", chatID)
	return nil
}

// AddParticipant adds a member to a chat with zero unread messages.
func (r *ChatRepo) AddParticipant(ctx context.Context, chatID string, userID string, role models.ParticipantRole) (models.ChatParticipant, error) {
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return models.ChatParticipant{}, invalidArgument("unknown participant role %q", role)
	}

	var participant models.ChatParticipant
	err := r.withTx(ctx, "add_participant", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		var chat models.Chat
		if err := getChat(ctx, tx, chatID, &chat); err != nil {
			return err
		}
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		participant, err = insertParticipant(ctx, tx, chatID, userID, role, r.now())
		return err
	})
	return participant, err
}

// RemoveParticipant deletes a membership. Removing a missing membership is not an error.
func (r *ChatRepo) RemoveParticipant(ctx context.Context, chatID string, userID string) error {
	return r.run(ctx, "remove_participant", func(ctx context.Context) error {
		_, err := exec(ctx, r.db, `DELETE FROM chat_participants WHERE chat_id=? AND user_id=?`, chatID, userID)
		return classify("delete participant", err)
	})
}

func (r *ChatRepo) GetParticipant(ctx context.Context, chatID string, userID string) (models.ChatParticipant, error) {
	var participant models.ChatParticipant
	err := r.run(ctx, "get_participant", func(ctx context.Context) error {
		return getParticipant(ctx, r.db, chatID, userID, &participant)
	})
	return participant, err
}

func (r *ChatRepo) ListParticipants(ctx context.Context, chatID string) ([]models.ChatParticipant, error) {
	var participants []models.ChatParticipant
	err := r.run(ctx, "list_participants", func(ctx context.Context) error {
		var chat models.Chat
		if err := getChat(ctx, r.db, chatID, &chat); err != nil {
			return err
		}
		err := selectRows(ctx, r.db, &participants, `SELECT `+participantColumns+`
            FROM chat_participants WHERE chat_id=? ORDER BY joined_at, id`, chatID)
		return classify("list participants", err)
	})
	return participants, err
}

const chatColumns = `id, title, type, last_message_id, last_message_content, last_message_time,
        last_message_sender_id, last_message_sender_name, last_message_type, created_at, updated_at`

const participantColumns = `id, chat_id, user_id, role, unread_count, last_read_message_id, joined_at`

func insertChat(ctx context.Context, q sqlx.ExtContext, chat models.Chat) error {
	_, err := exec(ctx, q, `INSERT INTO chats (id, title, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		chat.ID, chat.Title, string(chat.Type), chat.CreatedAt, chat.UpdatedAt)
	return classify("insert chat", err)
}

func getChat(ctx context.Context, q sqlx.ExtContext, chatID string, dest *models.Chat) error {
	err := get(ctx, q, dest, `SELECT `+chatColumns+` FROM chats WHERE id=?`, chatID)
	return lookup("get chat", err, ErrChatNotFound)
}

func insertParticipant(ctx context.Context, q sqlx.ExtContext, chatID, userID string, role models.ParticipantRole, now time.Time) (models.ChatParticipant, error) {
	p := models.ChatParticipant{ID: newID(), ChatID: chatID, UserID: userID, Role: role, JoinedAt: now}
	_, err := exec(ctx, q, `INSERT INTO chat_participants (id, chat_id, user_id, role, unread_count, joined_at)
        VALUES (?, ?, ?, ?, 0, ?)`, p.ID, p.ChatID, p.UserID, string(p.Role), p.JoinedAt)
	if err != nil {
		return models.ChatParticipant{}, classify("insert participant", err)
	}
	return p, nil
}

func getParticipant(ctx context.Context, q sqlx.ExtContext, chatID, userID string, dest *models.ChatParticipant) error {
	err := get(ctx, q, dest, `SELECT `+participantColumns+` FROM chat_participants WHERE chat_id=? AND user_id=?`, chatID, userID)
	return lookup("get participant", err, ErrParticipantNotFound)
}

func insertConversation(ctx context.Context, q sqlx.ExtContext, chatID string, now time.Time) (string, error) {
	id := newID()
	_, err := exec(ctx, q, `INSERT INTO conversations (id, chat_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, chatID, now, now)
	if err != nil {
		return "", classify("insert conversation", err)
	}
	return id, nil
}

// deleteChatGraph removes everything hanging off a chat, children first.
func deleteChatGraph(ctx context.Context, q sqlx.ExtContext, chatID string) error {
	const chatMessages = `SELECT m.id FROM messages m JOIN conversations cv ON cv.id = m.conversation_id WHERE cv.chat_id = ?`
	steps := []struct {
		op    string
		query string
	}{
		{"delete attachments", `DELETE FROM attachments WHERE message_id IN (` + chatMessages + `)`},
		{"delete receipts", `DELETE FROM message_receipts WHERE message_id IN (` + chatMessages + `)`},
		{"delete messages", `DELETE FROM messages WHERE conversation_id IN (SELECT id FROM conversations WHERE chat_id = ?)`},
		{"delete conversation", `DELETE FROM conversations WHERE chat_id = ?`},
		{"delete participants", `DELETE FROM chat_participants WHERE chat_id = ?`},
		{"delete chat", `DELETE FROM chats WHERE id = ?`},
	}
	for _, step := range steps {
		if _, err := exec(ctx, q, step.query, chatID); err != nil {
			return classify(step.op, err)
		}
	}
	return nil
}
