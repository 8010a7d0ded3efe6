package models

import (
	"time"
)

// NotificationType represents the kind of notification
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationOverdue NotificationType = "overdue"
)

// Notification represents a server-created notification.
// Identifiers are globally unique per account. Read is monotonic from the
// client's perspective: once flipped true locally it stays true until a
// fresh snapshot fetch, where the server is authoritative.
type Notification struct {
	ID           string           `json:"_id"`
	Message      string           `json:"message"`
	Type         NotificationType `json:"type"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"createdAt"`
	RelatedTasks []string         `json:"relatedTasks,omitempty"`
}
