package services

import (
	"fmt"
	"time"

	"production-assistant/backend/internal/cache"
	"production-assistant/backend/internal/models"

	"gorm.io/gorm"
)

const allTasksKey = "all_tasks"

// CachedTaskService decorates a TaskService with Redis-backed listing
// caches. Writes always reach the database first; cache entries are
// invalidated after every mutation so reads never observe a stale listing
// past a durable write. Cache failures degrade silently to the database.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
	listTTL     time.Duration
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache, listTTL time.Duration) *CachedTaskService {
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		listTTL:     listTTL,
	}
}

func userTasksKey(userID string) string {
	return fmt.Sprintf("user_tasks:%s", userID)
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, input CreateTaskInput) (uint, error) {
	id, err := s.taskService.CreateTask(db, input)
	if err != nil {
		return 0, err
	}

	s.cache.Delete(userTasksKey(input.UserID), allTasksKey)
	return id, nil
}

func (s *CachedTaskService) GetUserTasks(db *gorm.DB, userID string) ([]models.Task, error) {
	cacheKey := userTasksKey(userID)

	var cached []models.Task
	if err := s.cache.Get(cacheKey, &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.taskService.GetUserTasks(db, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, tasks, s.listTTL)
	return tasks, nil
}

func (s *CachedTaskService) GetAllTasks(db *gorm.DB) ([]models.Task, error) {
	var cached []models.Task
	if err := s.cache.Get(allTasksKey, &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.taskService.GetAllTasks(db)
	if err != nil {
		return nil, err
	}

	s.cache.Set(allTasksKey, tasks, s.listTTL)
	return tasks, nil
}

func (s *CachedTaskService) CompleteTask(db *gorm.DB, taskID uint, userID string) (bool, error) {
	ok, err := s.taskService.CompleteTask(db, taskID, userID)
	if err != nil {
		return false, err
	}

	if ok {
		s.cache.Delete(userTasksKey(userID), allTasksKey)
	}
	return ok, nil
}
