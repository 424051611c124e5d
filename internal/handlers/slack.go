package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"production-assistant/backend/internal/commands"
	"production-assistant/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Slash command response visibility. Ephemeral replies are shown only to the
// invoking user; in-channel replies are visible to everyone in the channel.
const (
	ResponseEphemeral = "ephemeral"
	ResponseInChannel = "in_channel"
)

type slackResponse struct {
	Text         string `json:"text"`
	ResponseType string `json:"response_type"`
}

type slackEvent struct {
	Type    string `json:"type"`
	BotID   string `json:"bot_id"`
	User    string `json:"user"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type slackEventEnvelope struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	Event     slackEvent `json:"event"`
}

type SlackHandler struct {
	db            *gorm.DB
	taskService   services.TaskService
	assistant     services.AssistantService
	triggerPhrase string
	logger        *slog.Logger
}

func NewSlackHandler(db *gorm.DB, taskService services.TaskService, assistant services.AssistantService, triggerPhrase string, logger *slog.Logger) *SlackHandler {
	return &SlackHandler{
		db:            db,
		taskService:   taskService,
		assistant:     assistant,
		triggerPhrase: strings.ToLower(triggerPhrase),
		logger:        logger,
	}
}

// Events handles the Slack events webhook. The event channel is
// fire-and-forget: the acknowledgment never carries a chat reply, it only
// tells Slack the event was received.
func (h *SlackHandler) Events(c *gin.Context) {
	var envelope slackEventEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data received"})
		return
	}

	if envelope.Type == "url_verification" {
		c.JSON(http.StatusOK, gin.H{"challenge": envelope.Challenge})
		return
	}

	event := envelope.Event

	// Anything carrying a bot identity is dropped unconditionally so the
	// assistant never replies to itself.
	if event.BotID != "" {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if event.Type == "message" && strings.Contains(strings.ToLower(event.Text), h.triggerPhrase) {
		reply := h.assistant.SafeReply(c.Request.Context(), event.Text)
		h.logger.Info("AI response generated",
			"user", event.User,
			"channel", event.Channel,
			"reply_len", len(reply),
		)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Commands handles Slack slash commands. Every outcome, including gateway
// failures, comes back as text with a visibility flag; the only 5xx path is
// a store failure.
func (h *SlackHandler) Commands(c *gin.Context) {
	command := c.PostForm("command")
	text := c.PostForm("text")
	userID := c.PostForm("user_id")
	channelID := c.PostForm("channel_id")

	switch command {
	case "/ai":
		h.handleAI(c, text)
	case "/task":
		h.handleTask(c, text, userID, channelID)
	default:
		c.JSON(http.StatusOK, slackResponse{
			Text:         "Unknown command",
			ResponseType: ResponseEphemeral,
		})
	}
}

func (h *SlackHandler) handleAI(c *gin.Context, text string) {
	if text == "" {
		c.JSON(http.StatusOK, slackResponse{
			Text:         "Please provide a message to chat with the AI assistant.",
			ResponseType: ResponseEphemeral,
		})
		return
	}

	reply := h.assistant.SafeReply(c.Request.Context(), text)
	c.JSON(http.StatusOK, slackResponse{
		Text:         reply,
		ResponseType: ResponseInChannel,
	})
}

func (h *SlackHandler) handleTask(c *gin.Context, text, userID, channelID string) {
	cmd := commands.Parse(text)

	switch cmd.Kind {
	case commands.KindCreate:
		taskID, err := h.taskService.CreateTask(h.db, services.CreateTaskInput{
			Title:     cmd.Title,
			UserID:    userID,
			ChannelID: channelID,
		})
		if err != nil {
			h.commandError(c, err)
			return
		}
		c.JSON(http.StatusOK, slackResponse{
			Text:         fmt.Sprintf("Task created with ID: %d", taskID),
			ResponseType: ResponseInChannel,
		})

	case commands.KindList:
		tasks, err := h.taskService.GetUserTasks(h.db, userID)
		if err != nil {
			h.commandError(c, err)
			return
		}

		var listing string
		if len(tasks) == 0 {
			listing = "No tasks found."
		} else {
			lines := make([]string, 0, len(tasks))
			for _, task := range tasks {
				lines = append(lines, fmt.Sprintf("#%d: %s (%s)", task.ID, task.Title, task.Status))
			}
			listing = strings.Join(lines, "\n")
		}
		c.JSON(http.StatusOK, slackResponse{
			Text:         "Your tasks:\n" + listing,
			ResponseType: ResponseEphemeral,
		})

	case commands.KindComplete:
		ok, err := h.taskService.CompleteTask(h.db, cmd.TaskID, userID)
		if err != nil {
			h.commandError(c, err)
			return
		}
		if ok {
			c.JSON(http.StatusOK, slackResponse{
				Text:         fmt.Sprintf("Task #%d marked as complete!", cmd.TaskID),
				ResponseType: ResponseInChannel,
			})
		} else {
			c.JSON(http.StatusOK, slackResponse{
				Text:         fmt.Sprintf("Task #%d not found or not yours.", cmd.TaskID),
				ResponseType: ResponseEphemeral,
			})
		}

	default: // usage and parse errors carry their own user-facing message
		c.JSON(http.StatusOK, slackResponse{
			Text:         cmd.Message,
			ResponseType: ResponseEphemeral,
		})
	}
}

func (h *SlackHandler) commandError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrEmptyTitle) {
		c.JSON(http.StatusOK, slackResponse{
			Text:         commands.UsageText,
			ResponseType: ResponseEphemeral,
		})
		return
	}

	h.logger.Error("Slack command error", "error", err)
	c.JSON(http.StatusInternalServerError, slackResponse{
		Text:         "An error occurred processing your command.",
		ResponseType: ResponseEphemeral,
	})
}
