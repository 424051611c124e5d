package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"production-assistant/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultAPIUser = "api_user"

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type chatReply struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

type ChatHandler struct {
	assistant services.AssistantService
	logger    *slog.Logger
}

func NewChatHandler(assistant services.AssistantService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{assistant: assistant, logger: logger}
}

// Chat is the direct programmatic entry point: one free-form message in, one
// assistant reply out. No command parsing happens here.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = defaultAPIUser
	}

	reply := h.assistant.SafeReply(c.Request.Context(), req.Message)
	h.logger.Info("chat reply generated", "user", userID, "reply_len", len(reply))

	c.JSON(http.StatusOK, chatReply{
		Response:  reply,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
