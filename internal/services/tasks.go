package services

import (
	"errors"
	"strings"
	"time"

	"production-assistant/backend/internal/models"

	"gorm.io/gorm"
)

// ErrEmptyTitle is returned by CreateTask when the title is missing or blank.
var ErrEmptyTitle = errors.New("task title is required")

type CreateTaskInput struct {
	Title       string
	Description string
	UserID      string
	ChannelID   string
}

type TaskService interface {
	CreateTask(db *gorm.DB, input CreateTaskInput) (uint, error)
	GetUserTasks(db *gorm.DB, userID string) ([]models.Task, error)
	GetAllTasks(db *gorm.DB) ([]models.Task, error)
	CompleteTask(db *gorm.DB, taskID uint, userID string) (bool, error)
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

// CreateTask inserts a new pending task and returns its assigned id. The id
// comes from the database's autoincrement sequence, so concurrent creates
// never collide and ids are never reused.
func (s *TaskServiceImpl) CreateTask(db *gorm.DB, input CreateTaskInput) (uint, error) {
	if strings.TrimSpace(input.Title) == "" {
		return 0, ErrEmptyTitle
	}

	task := models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      models.StatusPending,
		UserID:      input.UserID,
		ChannelID:   input.ChannelID,
	}

	if err := db.Create(&task).Error; err != nil {
		return 0, err
	}
	return task.ID, nil
}

func (s *TaskServiceImpl) GetUserTasks(db *gorm.DB, userID string) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetAllTasks(db *gorm.DB) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	err := db.Order("created_at DESC").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteTask marks a task completed if it exists and belongs to userID.
// The ownership check and the status write happen in one guarded UPDATE, so
// the boolean outcome is computed against a consistent view of the record.
// A task that is already completed still reports success; an id that does
// not exist or belongs to someone else reports false without touching
// anything.
func (s *TaskServiceImpl) CompleteTask(db *gorm.DB, taskID uint, userID string) (bool, error) {
	result := db.Model(&models.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Updates(map[string]interface{}{
			"status":     models.StatusCompleted,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
