package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-store/internal/models"
	"chat-store/internal/repositories"
)

// MessageHandler serves message fan-out, listing and read state.
type MessageHandler struct {
	messageRepo   repositories.MessageRepository
	readStateRepo repositories.ReadStateRepository
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, readStateRepo repositories.ReadStateRepository) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo, readStateRepo: readStateRepo}
}

// PostChatMessage sends a message from the caller to a chat.
func (h *MessageHandler) PostChatMessage(c *gin.Context) {
	var req models.NewMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ChatID = c.Param("chat_id")
	req.SenderID = currentUserID(c)

	msg, err := h.messageRepo.SendMessage(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to store message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetChatMessages returns one newest-first page of a chat's messages.
func (h *MessageHandler) GetChatMessages(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	var before *string
	if raw := c.Query("before"); raw != "" {
		before = &raw
	}

	page, err := h.messageRepo.ListChatMessages(c.Request.Context(), c.Param("chat_id"), currentUserID(c), limit, before)
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, page)
}

type markAsReadRequest struct {
	MessageID string `json:"message_id" binding:"required"`
}

// MarkAsRead moves the caller's read cursor in a chat.
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	var req markAsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.readStateRepo.MarkAsRead(c.Request.Context(), c.Param("chat_id"), currentUserID(c), req.MessageID)
	if err != nil {
		respondError(c, err, "could not mark chat read")
		return
	}
	c.JSON(http.StatusOK, participant)
}

// ResetUnread clears the caller's unread counter in a chat.
func (h *MessageHandler) ResetUnread(c *gin.Context) {
	participant, err := h.readStateRepo.ResetUnreadCount(c.Request.Context(), c.Param("chat_id"), currentUserID(c))
	if err != nil {
		respondError(c, err, "could not reset unread count")
		return
	}
	c.JSON(http.StatusOK, participant)
}

type receiptStatusRequest struct {
	Status models.ReceiptStatus `json:"status" binding:"required"`
}

// UpdateReceipt changes the caller's own receipt for a message.
func (h *MessageHandler) UpdateReceipt(c *gin.Context) {
	receiverID := c.Param("receiver_id")
	if receiverID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "receipts can only be updated by their receiver"})
		return
	}
	var req receiptStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.readStateRepo.UpdateMessageReceiptStatus(c.Request.Context(), c.Param("message_id"), receiverID, req.Status)
	if err != nil {
		respondError(c, err, "could not update receipt")
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// ListReceipts returns every receipt of a message. Only its sender may look.
func (h *MessageHandler) ListReceipts(c *gin.Context) {
	messageID := c.Param("message_id")
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, err, "failed to load message")
		return
	}
	if msg.SenderID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can list receipts"})
		return
	}

	receipts, err := h.messageRepo.ListReceipts(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, err, "failed to load receipts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}
