package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-store/internal/models"
	"chat-store/internal/repositories"
	"chat-store/internal/telemetry"
)

// ChatHandler manages chat and membership endpoints.
type ChatHandler struct {
	chatRepo repositories.ChatRepository
	audit    *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chatRepo: chatRepo, audit: audit}
}

type createChatRequest struct {
	Title string          `json:"title"`
	Type  models.ChatType `json:"type"`
}

// CreateChat inserts an empty chat with no members.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chatRepo.CreateChat(c.Request.Context(), req.Title, req.Type)
	if err != nil {
		respondError(c, err, "could not create chat")
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// CreateIndividualChat opens a 1:1 chat between the caller and the receiver.
func (h *ChatHandler) CreateIndividualChat(c *gin.Context) {
	var req models.NewIndividualChat
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.InitiatorID = currentUserID(c)

	chat, err := h.chatRepo.CreateIndividualChat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "could not create chat")
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// ListChats returns the caller's chats with read state and members.
func (h *ChatHandler) ListChats(c *gin.Context) {
	sort, err := models.ParseChatSort(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts := models.ChatListOptions{Sort: sort}
	if raw := c.Query("include_empty"); raw != "" {
		if opts.IncludeEmpty, err = strconv.ParseBool(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid include_empty"})
			return
		}
	}
	var ok bool
	if opts.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if opts.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	chats, err := h.chatRepo.FindUserChats(c.Request.Context(), currentUserID(c), opts)
	if err != nil {
		respondError(c, err, "failed to load chats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChat returns a chat the caller belongs to, with its members.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID := c.Param("chat_id")
	if _, ok := h.authorize(c, chatID, false, ""); !ok {
		return
	}

	chat, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, err, "failed to load chat")
		return
	}
	participants, err := h.chatRepo.ListParticipants(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, err, "failed to load participants")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat, "participants": participants})
}

type updateChatRequest struct {
	Title *string          `json:"title"`
	Type  *models.ChatType `json:"type"`
}

// UpdateChat renames a chat or changes its type. Owners and admins only.
func (h *ChatHandler) UpdateChat(c *gin.Context) {
	chatID := c.Param("chat_id")
	var req updateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := h.authorize(c, chatID, true, ""); !ok {
		return
	}

	current, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, err, "failed to load chat")
		return
	}
	title, chatType := current.Title, current.Type
	if req.Title != nil {
		title = *req.Title
	}
	if req.Type != nil {
		chatType = *req.Type
	}

	chat, err := h.chatRepo.UpdateChat(c.Request.Context(), chatID, title, chatType)
	if err != nil {
		respondError(c, err, "could not update chat")
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DeleteChat removes a chat and everything posted to it. Owners and admins only.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chatID := c.Param("chat_id")
	if _, ok := h.authorize(c, chatID, true, ""); !ok {
		return
	}

	if err := h.chatRepo.DeleteChat(c.Request.Context(), chatID); err != nil {
		respondError(c, err, "could not delete chat")
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AuditEvent{
		Action:     "chat.deleted",
		Text:       "chat deleted",
		RequestID:  requestIDFromContext(c),
		UserID:     userIDFromContext(c),
		Attributes: map[string]string{"chat_id": chatID},
	})
	c.Status(http.StatusNoContent)
}

type addParticipantRequest struct {
	UserID string                 `json:"user_id" binding:"required"`
	Role   models.ParticipantRole `json:"role"`
}

// AddParticipant adds a member. The first member of an empty chat may add
// themselves; afterwards owners and admins manage membership.
func (h *ChatHandler) AddParticipant(c *gin.Context) {
	chatID := c.Param("chat_id")
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := h.authorize(c, chatID, true, req.UserID); !ok {
		return
	}

	participant, err := h.chatRepo.AddParticipant(c.Request.Context(), chatID, req.UserID, req.Role)
	if err != nil {
		respondError(c, err, "could not add participant")
		return
	}
	c.JSON(http.StatusCreated, participant)
}

// RemoveParticipant drops a member. Anyone may leave; removing others needs owner or admin.
func (h *ChatHandler) RemoveParticipant(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := c.Param("user_id")
	if _, ok := h.authorize(c, chatID, userID != currentUserID(c), ""); !ok {
		return
	}

	if err := h.chatRepo.RemoveParticipant(c.Request.Context(), chatID, userID); err != nil {
		respondError(c, err, "could not remove participant")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListParticipants returns the members of a chat the caller belongs to.
func (h *ChatHandler) ListParticipants(c *gin.Context) {
	chatID := c.Param("chat_id")
	if _, ok := h.authorize(c, chatID, false, ""); !ok {
		return
	}

	participants, err := h.chatRepo.ListParticipants(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, err, "failed to load participants")
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// authorize checks the caller's membership of chatID. With manage set the caller
// must be an owner or admin. A non-member passes only when joiner is the caller
// and the chat has no members yet.
func (h *ChatHandler) authorize(c *gin.Context, chatID string, manage bool, joiner string) (models.ChatParticipant, bool) {
	ctx := c.Request.Context()
	if _, err := h.chatRepo.GetChat(ctx, chatID); err != nil {
		respondError(c, err, "failed to load chat")
		return models.ChatParticipant{}, false
	}

	participant, err := h.chatRepo.GetParticipant(ctx, chatID, currentUserID(c))
	switch {
	case err == nil:
		if manage && participant.Role != models.RoleOwner && participant.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "owner or admin role required"})
			return models.ChatParticipant{}, false
		}
		return participant, true
	case !errors.Is(err, repositories.ErrNotFound):
		respondError(c, err, "failed to load membership")
		return models.ChatParticipant{}, false
	}

	if manage && joiner != "" && joiner == currentUserID(c) {
		members, err := h.chatRepo.ListParticipants(ctx, chatID)
		if err != nil {
			respondError(c, err, "failed to load participants")
			return models.ChatParticipant{}, false
		}
		if len(members) == 0 {
			return models.ChatParticipant{}, true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
	return models.ChatParticipant{}, false
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return n, true
}
