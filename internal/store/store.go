// Package store defines the backend collaborator contracts for tasks and
// notifications and provides the HTTP client implementation. Persistence is
// entirely the backend's concern; the core only ever sees snapshots and
// write acknowledgements.
package store

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/models"
)

// TaskStore is the authoritative task collaborator.
type TaskStore interface {
	// List fetches the full task snapshot for the account.
	List(ctx context.Context) ([]models.Task, error)

	// Create persists a new task and returns it with server-assigned fields.
	Create(ctx context.Context, fields models.TaskFields) (models.Task, error)

	// Update replaces the writable fields of a task.
	Update(ctx context.Context, id string, fields models.TaskFields) (models.Task, error)

	// PatchStatus changes only the persisted status of a task.
	PatchStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, id string) error
}

// NotificationStore is the authoritative notification collaborator.
// Notifications are created server-side only; the client can fetch snapshots
// and acknowledge reads.
type NotificationStore interface {
	List(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// CredentialSource supplies the current bearer credential for requests.
// Implemented by auth.Source; the store never issues or refreshes
// credentials itself.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}
