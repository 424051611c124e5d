package models

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Task struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Status      string    `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `json:"user_id" gorm:"not null;index"`
	ChannelID   string    `json:"channel_id"`
}
