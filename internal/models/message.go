package models

import "time"

type MessageStatus string

const MessageStatusSent MessageStatus = "sent"

// ReceiptStatus only moves forward: delivered, then read.
type ReceiptStatus string

const (
	ReceiptDelivered ReceiptStatus = "delivered"
	ReceiptRead      ReceiptStatus = "read"
)

func (s ReceiptStatus) Valid() bool {
	return s == ReceiptDelivered || s == ReceiptRead
}

const DefaultContentType = "text"

// Message is immutable once created apart from status bookkeeping.
type Message struct {
	ID             string        `db:"id" json:"id"`
	ConversationID string        `db:"conversation_id" json:"conversation_id"`
	SenderID       string        `db:"sender_id" json:"sender_id"`
	Content        string        `db:"content" json:"content"`
	ContentType    string        `db:"content_type" json:"content_type"`
	Status         MessageStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

type MessageReceipt struct {
	ID         string        `db:"id" json:"id"`
	MessageID  string        `db:"message_id" json:"message_id"`
	ReceiverID string        `db:"receiver_id" json:"receiver_id"`
	Status     ReceiptStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// Attachment is metadata for a file stored outside the database.
type Attachment struct {
	ID            string    `db:"id" json:"id"`
	MessageID     string    `db:"message_id" json:"message_id"`
	FileName      string    `db:"file_name" json:"file_name"`
	FileType      string    `db:"file_type" json:"file_type"`
	FileSize      int64     `db:"file_size" json:"file_size"`
	FilePath      string    `db:"file_path" json:"file_path"`
	ThumbnailPath *string   `db:"thumbnail_path" json:"thumbnail_path,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type NewAttachment struct {
	FileName      string  `json:"file_name" binding:"required"`
	FileType      string  `json:"file_type" binding:"required"`
	FileSize      int64   `json:"file_size"`
	FilePath      string  `json:"file_path" binding:"required"`
	ThumbnailPath *string `json:"thumbnail_path"`
}

// NewMessage is the input of send_message.
type NewMessage struct {
	ChatID      string          `json:"-"`
	SenderID    string          `json:"-"`
	Content     string          `json:"content"`
	ContentType string          `json:"content_type"`
	Attachments []NewAttachment `json:"attachments"`
}

// MessageWithDetails is a message as seen by one viewer.
type MessageWithDetails struct {
	Message
	Sender        UserDetails    `db:"sender" json:"sender"`
	ReceiptStatus *ReceiptStatus `db:"receipt_status" json:"receipt_status,omitempty"`
	Attachments   []Attachment   `db:"-" json:"attachments"`
}

// MessagePage is a newest-first slice of a chat's messages.
type MessagePage struct {
	Messages []MessageWithDetails `json:"messages"`
	HasMore  bool                 `json:"has_more"`
}
