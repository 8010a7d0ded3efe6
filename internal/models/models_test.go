package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPriority_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Priority
		valid bool
	}{
		{"low", PriorityLow, true},
		{"medium", PriorityMedium, true},
		{"high", PriorityHigh, true},
		{"invalid", Priority("urgent"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			switch tt.value {
			case PriorityLow, PriorityMedium, PriorityHigh:
				if !tt.valid {
					t.Errorf("Expected %s to be invalid", tt.value)
				}
			default:
				if tt.valid {
					t.Errorf("Expected %s to be valid", tt.value)
				}
			}
		})
	}
}

func TestTaskStatus_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value TaskStatus
		valid bool
	}{
		{"pending", TaskStatusPending, true},
		{"completed", TaskStatusCompleted, true},
		{"overdue is derived, never a status", TaskStatus("overdue"), false},
		{"dueToday is derived, never a status", TaskStatus("dueToday"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			switch tt.value {
			case TaskStatusPending, TaskStatusCompleted:
				if !tt.valid {
					t.Errorf("Expected %s to be invalid", tt.value)
				}
			default:
				if tt.valid {
					t.Errorf("Expected %s to be valid", tt.value)
				}
			}
		})
	}
}

func TestTask_WireShape(t *testing.T) {
	t.Parallel()

	raw := `{
		"_id": "64f1c0ffee",
		"title": "Ship release notes",
		"priority": "high",
		"dueDate": "2025-03-14T23:59:00Z",
		"status": "pending",
		"aiSuggestions": ["break into two subtasks"]
	}`

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if task.ID != "64f1c0ffee" {
		t.Errorf("expected _id to map to ID, got %q", task.ID)
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected status pending, got %q", task.Status)
	}
	want := time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC)
	if !task.DueDate.Equal(want) {
		t.Errorf("expected dueDate %v, got %v", want, task.DueDate)
	}
	if len(task.AISuggestions) != 1 {
		t.Errorf("expected 1 suggestion, got %d", len(task.AISuggestions))
	}
}

func TestNotification_WireShape(t *testing.T) {
	t.Parallel()

	raw := `{"_id":"n1","message":"Task overdue","type":"overdue","read":false,"createdAt":"2025-03-14T08:00:00Z","relatedTasks":["t1"]}`

	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if n.ID != "n1" || n.Type != NotificationOverdue || n.Read {
		t.Errorf("unexpected notification: %+v", n)
	}
	if len(n.RelatedTasks) != 1 || n.RelatedTasks[0] != "t1" {
		t.Errorf("expected related task t1, got %v", n.RelatedTasks)
	}
}
