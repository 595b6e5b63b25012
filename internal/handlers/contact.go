package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-store/internal/models"
	"chat-store/internal/repositories"
	"chat-store/internal/telemetry"
)

// ContactHandler serves contact groups, contact provisioning and teardown.
type ContactHandler struct {
	contactRepo repositories.ContactRepository
	groupRepo   repositories.ContactGroupRepository
	audit       *telemetry.AuditEmitter
}

// NewContactHandler builds a ContactHandler.
func NewContactHandler(contactRepo repositories.ContactRepository, groupRepo repositories.ContactGroupRepository, audit *telemetry.AuditEmitter) *ContactHandler {
	return &ContactHandler{contactRepo: contactRepo, groupRepo: groupRepo, audit: audit}
}

type createContactGroupRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func (h *ContactHandler) CreateContactGroup(c *gin.Context) {
	var req createContactGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupRepo.CreateContactGroup(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err, "could not create contact group")
		return
	}
	c.JSON(http.StatusCreated, group)
}

// CreateAIContact provisions an agent with its synthetic user and adds it to the caller's contacts.
func (h *ContactHandler) CreateAIContact(c *gin.Context) {
	var req models.NewAIContact
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.OwnerID = currentUserID(c)

	provisioned, err := h.contactRepo.CreateAIContact(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "could not create contact")
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AuditEvent{
		Action:    "contact.provisioned",
		Text:      "ai contact provisioned",
		RequestID: requestIDFromContext(c),
		UserID:    userIDFromContext(c),
		Attributes: map[string]string{
			"contact_id": provisioned.Contact.ID,
			"agent_id":   provisioned.Agent.ID,
			"user_id":    provisioned.User.ID,
			"link_id":    provisioned.Link.ID,
		},
	})
	c.JSON(http.StatusCreated, provisioned)
}

// CreateContact adds an existing user to the caller's contacts.
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req models.NewContact
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.OwnerID = currentUserID(c)

	contact, err := h.contactRepo.CreateContact(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "could not create contact")
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) ListContacts(c *gin.Context) {
	contacts, err := h.contactRepo.ListContactsByOwner(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err, "failed to load contacts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// DeleteContact tears down one of the caller's contacts and reports what was removed.
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	contactID := c.Param("contact_id")

	teardown, err := h.contactRepo.DeleteContactWithRelatedData(c.Request.Context(), contactID, currentUserID(c))
	if err != nil {
		respondError(c, err, "could not delete contact")
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.AuditEvent{
		Action:    "contact.deleted",
		Text:      "contact deleted",
		RequestID: requestIDFromContext(c),
		UserID:    userIDFromContext(c),
		Attributes: map[string]string{
			"contact_id":       teardown.ContactID,
			"deleted_chat_ids": strings.Join(teardown.DeletedChatIDs, ","),
			"group_deleted":    strconv.FormatBool(teardown.GroupDeleted),
			"link_deleted":     strconv.FormatBool(teardown.LinkDeleted),
			"user_deleted":     strconv.FormatBool(teardown.UserDeleted),
			"agent_deleted":    strconv.FormatBool(teardown.AgentDeleted),
		},
	})
	c.JSON(http.StatusOK, teardown)
}
