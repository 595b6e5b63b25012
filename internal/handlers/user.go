package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-store/internal/models"
	"chat-store/internal/repositories"
)

// UserHandler serves local users and the agents behind AI users.
type UserHandler struct {
	userRepo  repositories.UserRepository
	agentRepo repositories.AgentRepository
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, agentRepo repositories.AgentRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo, agentRepo: agentRepo}
}

// CreateUser registers a local user. It does not require a current user.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "could not create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userRepo.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetAgentByUser(c *gin.Context) {
	agent, err := h.agentRepo.GetAgentByUserID(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err, "failed to load agent")
		return
	}
	c.JSON(http.StatusOK, agent)
}
