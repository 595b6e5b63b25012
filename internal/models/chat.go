package models

import (
	"fmt"
	"time"
)

type ChatType string

const (
	ChatTypeIndividual ChatType = "individual"
	ChatTypeGroup      ChatType = "group"
)

func (t ChatType) Valid() bool {
	return t == ChatTypeIndividual || t == ChatTypeGroup
}

type ParticipantRole string

const (
	RoleOwner  ParticipantRole = "owner"
	RoleAdmin  ParticipantRole = "admin"
	RoleMember ParticipantRole = "member"
)

func (r ParticipantRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Chat is a conversation container. The last_message_* fields cache the newest
// committed message and are written only together with that message.
type Chat struct {
	ID                    string     `db:"id" json:"id"`
	Title                 string     `db:"title" json:"title"`
	Type                  ChatType   `db:"type" json:"type"`
	LastMessageID         *string    `db:"last_message_id" json:"last_message_id,omitempty"`
	LastMessageContent    *string    `db:"last_message_content" json:"last_message_content,omitempty"`
	LastMessageTime       *time.Time `db:"last_message_time" json:"last_message_time,omitempty"`
	LastMessageSenderID   *string    `db:"last_message_sender_id" json:"last_message_sender_id,omitempty"`
	LastMessageSenderName *string    `db:"last_message_sender_name" json:"last_message_sender_name,omitempty"`
	LastMessageType       *string    `db:"last_message_type" json:"last_message_type,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

type ChatParticipant struct {
	ID                string          `db:"id" json:"id"`
	ChatID            string          `db:"chat_id" json:"chat_id"`
	UserID            string          `db:"user_id" json:"user_id"`
	Role              ParticipantRole `db:"role" json:"role"`
	UnreadCount       int             `db:"unread_count" json:"unread_count"`
	LastReadMessageID *string         `db:"last_read_message_id" json:"last_read_message_id,omitempty"`
	JoinedAt          time.Time       `db:"joined_at" json:"joined_at"`
}

// Conversation binds a chat to its message stream; there is exactly one per chat.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	ChatID    string    `db:"chat_id" json:"chat_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ParticipantDetails is a member of a chat as shown in chat listings.
type ParticipantDetails struct {
	UserDetails
	Role ParticipantRole `db:"role" json:"role"`
}

// ChatWithDetails is a chat seen from one participant.
type ChatWithDetails struct {
	Chat
	UnreadCount       int                  `db:"unread_count" json:"unread_count"`
	LastReadMessageID *string              `db:"last_read_message_id" json:"last_read_message_id,omitempty"`
	Role              ParticipantRole      `db:"role" json:"role"`
	Participants      []ParticipantDetails `db:"-" json:"participants"`
}

// ChatSort is the closed set of orderings for chat listings.
type ChatSort string

const (
	SortByLastMessage ChatSort = "last_message_time"
	SortByCreatedAt   ChatSort = "created_at"
	SortByTitle       ChatSort = "title"
	SortByUpdatedAt   ChatSort = "updated_at"
)

// ParseChatSort maps a request value to a ChatSort. Empty selects the default ordering.
func ParseChatSort(s string) (ChatSort, error) {
	switch ChatSort(s) {
	case "", SortByLastMessage:
		return SortByLastMessage, nil
	case SortByCreatedAt, SortByTitle, SortByUpdatedAt:
		return ChatSort(s), nil
	}
	return "", fmt.Errorf("unknown chat sort %q", s)
}

// NewIndividualChat carries the inputs of a 1:1 chat creation.
type NewIndividualChat struct {
	InitiatorID    string  `json:"initiator_id"`
	ReceiverID     string  `json:"receiver_id" binding:"required"`
	Title          string  `json:"title"`
	InitialMessage *string `json:"initial_message"`
}

// ChatListOptions filters and orders find_user_chats.
type ChatListOptions struct {
	IncludeEmpty bool
	Sort         ChatSort
	Limit        int
	Offset       int
}
