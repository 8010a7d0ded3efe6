package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/models"
)

// TaskEventKind identifies which task lifecycle event the server pushed.
type TaskEventKind string

const (
	TaskCreated TaskEventKind = "taskCreated"
	TaskUpdated TaskEventKind = "taskUpdated"
	TaskDeleted TaskEventKind = "taskDeleted"
)

// Event is a typed server-pushed event. The two variants are TaskEvent and
// NotificationEvent; consumers switch on the concrete type.
type Event interface {
	isEvent()
}

// TaskEvent is an invalidation signal: the cached task list may be stale and
// must be refetched in full. The event payload is never used to patch the
// cache, because delivery order across a reconnect is not guaranteed and
// partial patches risk divergence.
type TaskEvent struct {
	Kind   TaskEventKind
	TaskID string
}

func (TaskEvent) isEvent() {}

// NotificationEvent carries a full notification payload and is merged
// directly into the synchronizer, not treated as an invalidation.
type NotificationEvent struct {
	Notification models.Notification
}

func (NotificationEvent) isEvent() {}

// clientMessage is the client-to-server wire shape. Exactly one field is set
// per message.
type clientMessage struct {
	Authenticate     string `json:"authenticate,omitempty"`
	NotificationRead string `json:"notificationRead,omitempty"`
}

// serverMessage is a decoded server-to-client message.
type serverMessage struct {
	// control messages
	authenticated     bool
	sessionTerminated bool
	serverError       string

	// event payload; nil event means a control message
	event Event
}

// decodeServerMessage decodes one wire message, matching exhaustively on the
// tag. An unknown tag is a decode error, not a silent fallthrough: new event
// kinds added server-side must be handled here explicitly before they flow.
func decodeServerMessage(raw []byte) (serverMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return serverMessage{}, fmt.Errorf("malformed server message: %w", err)
	}
	if len(fields) != 1 {
		return serverMessage{}, fmt.Errorf("expected exactly one message tag, got %d", len(fields))
	}

	for tag, value := range fields {
		switch tag {
		case "authenticated":
			var ok bool
			if err := json.Unmarshal(value, &ok); err != nil {
				return serverMessage{}, fmt.Errorf("bad authenticated payload: %w", err)
			}
			return serverMessage{authenticated: ok}, nil

		case "sessionTerminated":
			return serverMessage{sessionTerminated: true}, nil

		case "error":
			var msg string
			if err := json.Unmarshal(value, &msg); err != nil {
				return serverMessage{}, fmt.Errorf("bad error payload: %w", err)
			}
			return serverMessage{serverError: msg}, nil

		case "notification":
			var n models.Notification
			if err := json.Unmarshal(value, &n); err != nil {
				return serverMessage{}, fmt.Errorf("bad notification payload: %w", err)
			}
			return serverMessage{event: NotificationEvent{Notification: n}}, nil

		case "taskCreated", "taskUpdated", "taskDeleted":
			var taskID string
			if err := json.Unmarshal(value, &taskID); err != nil {
				return serverMessage{}, fmt.Errorf("bad %s payload: %w", tag, err)
			}
			return serverMessage{event: TaskEvent{Kind: TaskEventKind(tag), TaskID: taskID}}, nil

		default:
			return serverMessage{}, fmt.Errorf("unknown message tag %q", tag)
		}
	}

	return serverMessage{}, fmt.Errorf("empty server message")
}
