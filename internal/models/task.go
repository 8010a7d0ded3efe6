package models

import (
	"time"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TaskStatus represents the persisted status of a task.
// Only pending and completed are ever stored; overdue/dueToday are
// derived display classifications and must never be written back.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task represents a task item as the backend serves it
type Task struct {
	ID            string     `json:"_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Priority      Priority   `json:"priority"`
	DueDate       time.Time  `json:"dueDate"`
	Status        TaskStatus `json:"status"`
	AISuggestions []string   `json:"aiSuggestions,omitempty"`
	CreatedAt     time.Time  `json:"createdAt,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt,omitempty"`
}

// TaskFields carries the writable fields for create and full-update calls.
// Pointer fields distinguish "leave unchanged" from an explicit zero value.
type TaskFields struct {
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description,omitempty" validate:"max=2000"`
	Priority    Priority    `json:"priority" validate:"required,task_priority"`
	DueDate     time.Time   `json:"dueDate" validate:"required"`
	Status      *TaskStatus `json:"status,omitempty" validate:"omitempty,task_status"`
}
