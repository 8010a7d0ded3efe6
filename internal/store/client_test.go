package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/models"
)

type fakeCreds string

func (c fakeCreds) Credential(ctx context.Context) (string, error) {
	return string(c), nil
}

// fakeBackend serves the task and notification REST surface.
type fakeBackend struct {
	mu       sync.Mutex
	tasks    []models.Task
	auth     []string
	patches  []string
	failWith int // when non-zero, every handler responds with this status
	srv      *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{}

	r := mux.NewRouter()
	r.Use(f.record)
	r.HandleFunc("/api/tasks", f.listTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", f.createTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}", f.updateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id}/status", f.patchStatus).Methods(http.MethodPatch)
	r.HandleFunc("/api/tasks/{id}", f.deleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/api/notifications", f.listNotifications).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/{id}/read", f.markRead).Methods(http.MethodPatch)

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		fail := f.failWith
		f.mu.Unlock()

		if fail != 0 {
			w.WriteHeader(fail)
			_, _ = w.Write([]byte(`{"message":"injected failure"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeBackend) listTasks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = json.NewEncoder(w).Encode(f.tasks)
}

func (f *fakeBackend) createTask(w http.ResponseWriter, r *http.Request) {
	var fields models.TaskFields
	_ = json.NewDecoder(r.Body).Decode(&fields)
	task := models.Task{ID: "srv-1", Title: fields.Title, Priority: fields.Priority, DueDate: fields.DueDate, Status: models.TaskStatusPending}
	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()
	_ = json.NewEncoder(w).Encode(task)
}

func (f *fakeBackend) updateTask(w http.ResponseWriter, r *http.Request) {
	var fields models.TaskFields
	_ = json.NewDecoder(r.Body).Decode(&fields)
	task := models.Task{ID: mux.Vars(r)["id"], Title: fields.Title, Priority: fields.Priority, DueDate: fields.DueDate}
	if fields.Status != nil {
		task.Status = *fields.Status
	}
	_ = json.NewEncoder(w).Encode(task)
}

func (f *fakeBackend) patchStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.TaskStatus `json:"status"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.patches = append(f.patches, string(body.Status))
	f.mu.Unlock()
	_ = json.NewEncoder(w).Encode(models.Task{ID: mux.Vars(r)["id"], Title: "t", Priority: models.PriorityLow, DueDate: time.Now(), Status: body.Status})
}

func (f *fakeBackend) deleteTask(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeBackend) listNotifications(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode([]models.Notification{
		{ID: "n1", Message: "hello", Type: models.NotificationInfo, CreatedAt: time.Now()},
	})
}

func (f *fakeBackend) markRead(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{}`))
}

func newTestClient(t *testing.T, f *fakeBackend) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:     f.srv.URL,
		Credentials: fakeCreds("tok-abc"),
	}, zap.NewNop())
}

func TestClient_BearerHeader(t *testing.T) {
	t.Parallel()

	f := newFakeBackend(t)
	c := newTestClient(t, f)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auth) != 1 || f.auth[0] != "Bearer tok-abc" {
		t.Errorf("auth headers = %v", f.auth)
	}
}

func TestClient_PatchStatusRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFakeBackend(t)
	c := newTestClient(t, f)

	task, err := c.PatchStatus(context.Background(), "t9", models.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("PatchStatus: %v", err)
	}
	if task.ID != "t9" || task.Status != models.TaskStatusCompleted {
		t.Errorf("task = %+v", task)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.patches) != 1 || f.patches[0] != "completed" {
		t.Errorf("patches = %v", f.patches)
	}
}

func TestClient_CreateValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	f := newFakeBackend(t)
	c := newTestClient(t, f)

	_, err := c.Create(context.Background(), models.TaskFields{
		// missing title and priority
		DueDate: time.Now(),
	})
	if !IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auth) != 0 {
		t.Error("invalid payload must not reach the network")
	}
}

func TestClient_RejectsDerivedStatusWrite(t *testing.T) {
	t.Parallel()

	f := newFakeBackend(t)
	c := newTestClient(t, f)

	derived := models.TaskStatus("overdue")
	_, err := c.Create(context.Background(), models.TaskFields{
		Title:    "task",
		Priority: models.PriorityHigh,
		DueDate:  time.Now(),
		Status:   &derived,
	})
	if !IsValidationError(err) {
		t.Fatalf("derived bucket written as status must fail validation, got %v", err)
	}
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, IsAuthError},
		{"forbidden", http.StatusForbidden, IsAuthError},
		{"conflict", http.StatusConflict, IsConflictError},
		{"bad request", http.StatusBadRequest, IsValidationError},
		{"unprocessable", http.StatusUnprocessableEntity, IsValidationError},
		{"server error", http.StatusInternalServerError, IsNetworkError},
		{"bad gateway", http.StatusBadGateway, IsNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFakeBackend(t)
			f.mu.Lock()
			f.failWith = tt.status
			f.mu.Unlock()

			c := newTestClient(t, f)
			_, err := c.List(context.Background())
			if err == nil || !tt.check(err) {
				t.Errorf("status %d mapped to %v", tt.status, err)
			}
		})
	}
}

func TestClient_ConnectionRefusedIsNetworkError(t *testing.T) {
	t.Parallel()

	c := NewClient(ClientConfig{
		BaseURL:     "http://127.0.0.1:1", // nothing listens here
		Credentials: fakeCreds("tok"),
		Timeout:     500 * time.Millisecond,
	}, zap.NewNop())

	_, err := c.List(context.Background())
	if !IsNetworkError(err) {
		t.Errorf("expected NetworkError, got %v", err)
	}
}

func TestClient_NotificationStoreView(t *testing.T) {
	t.Parallel()

	f := newFakeBackend(t)
	c := newTestClient(t, f)

	ns := c.Notifications()
	list, err := ns.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != "n1" {
		t.Errorf("notifications = %v", list)
	}
	if err := ns.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
}
