package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"production-assistant/backend/internal/models"
	"production-assistant/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	logger      *slog.Logger
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService, logger: logger}
}

type taskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"user_id"`
	ChannelID   string `json:"channel_id"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad request", "message": err.Error()})
		return
	}

	if req.UserID == "" {
		req.UserID = defaultAPIUser
	}

	taskID, err := h.taskService.CreateTask(h.db, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		UserID:      req.UserID,
		ChannelID:   req.ChannelID,
	})
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      taskID,
		"message": "Task created successfully",
	})
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID := c.Query("user_id")

	var tasks []models.Task
	var err error
	if userID != "" {
		tasks, err = h.taskService.GetUserTasks(h.db, userID)
	} else {
		tasks, err = h.taskService.GetAllTasks(h.db)
	}
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) handleTaskError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrEmptyTitle) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	h.logger.Error("task request failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process task request"})
}
