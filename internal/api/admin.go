package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-bot-demo/backend/internal/repository"
	"messenger-bot-demo/backend/internal/service"
	"messenger-bot-demo/backend/pkg/errors"
)

// AdminHandler exposes read-only operational endpoints over the stored users
// and message log.
type AdminHandler struct {
	directory *service.Directory
	messages  repository.MessageRepository
}

func NewAdminHandler(directory *service.Directory, messages repository.MessageRepository) *AdminHandler {
	return &AdminHandler{directory: directory, messages: messages}
}

// RegisterRoutes registers the operational API routes
func (h *AdminHandler) RegisterRoutes(router *gin.Engine) {
	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/users/:id", h.GetUser)
		apiGroup.GET("/messages/:userId", h.GetUserMessages)
	}
}

// GetUser returns a user's sparse profile serialization
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.directory.Get(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInternalServerError("USER_LOOKUP_FAILED", "Error retrieving user"))
		return
	}
	if user == nil {
		c.Error(errors.NewNotFoundError("USER_NOT_FOUND", "No user with that id"))
		return
	}

	c.JSON(http.StatusOK, user.Serialize())
}

// GetUserMessages lists a sender's log entries, most recent first
func (h *AdminHandler) GetUserMessages(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}

	messages, err := h.messages.RecentBySender(c.Param("userId"), limit)
	if err != nil {
		c.Error(errors.NewInternalServerError("MESSAGE_LOOKUP_FAILED", "Error retrieving messages"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}
