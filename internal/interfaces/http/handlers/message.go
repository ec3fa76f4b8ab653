package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/message"
	"github.com/thesheunit/storefront/internal/interfaces/http/middleware"
)

// MessageHandler accepts contact form submissions
type MessageHandler struct {
	messageService *message.Service
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *message.Service) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Submit handles POST /messages. Signed-in senders are linked to their account.
func (h *MessageHandler) Submit(c *gin.Context) {
	var req message.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var userID *uint
	if id, ok := middleware.GetUserIDFromContext(c); ok {
		userID = &id
	}

	msg, err := h.messageService.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent successfully",
		"data":    msg,
	})
}
