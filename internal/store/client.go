package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/logger"
	"github.com/taskdeck/taskdeck/internal/models"
)

// DefaultTimeout bounds each store request when the caller's context has no
// earlier deadline.
const DefaultTimeout = 15 * time.Second

// ClientConfig configures the HTTP store client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:5000.
	BaseURL string
	// Credentials supplies the bearer token per request.
	Credentials CredentialSource
	// Timeout defaults to DefaultTimeout when zero.
	Timeout time.Duration
	// EnableTracing wraps the transport in otelhttp instrumentation.
	EnableTracing bool
}

// Client implements TaskStore and NotificationStore against the backend's
// REST surface.
type Client struct {
	baseURL string
	creds   CredentialSource
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a store client.
func NewClient(cfg ClientConfig, zapLogger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport
	if cfg.EnableTracing {
		transport = otelhttp.NewTransport(transport)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		creds:   cfg.Credentials,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: zapLogger,
	}
}

// List fetches the full task snapshot.
func (c *Client) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create persists a new task.
func (c *Client) Create(ctx context.Context, fields models.TaskFields) (models.Task, error) {
	if err := ValidateTaskFields(fields); err != nil {
		return models.Task{}, err
	}
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", fields, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// Update replaces the writable fields of a task.
func (c *Client) Update(ctx context.Context, id string, fields models.TaskFields) (models.Task, error) {
	if err := ValidateTaskFields(fields); err != nil {
		return models.Task{}, err
	}
	var task models.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, fields, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// PatchStatus changes only the persisted status of a task.
func (c *Client) PatchStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	body := struct {
		Status models.TaskStatus `json:"status"`
	}{Status: status}

	var task models.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+id+"/status", body, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// Delete removes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}

// ListNotifications fetches the notification snapshot, most recent first.
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead acknowledges a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/notifications/"+id+"/read", nil, nil)
}

// Notifications returns a NotificationStore view of the client.
func (c *Client) Notifications() NotificationStore {
	return notificationStore{c}
}

type notificationStore struct{ c *Client }

func (s notificationStore) List(ctx context.Context) ([]models.Notification, error) {
	return s.c.ListNotifications(ctx)
}

func (s notificationStore) MarkRead(ctx context.Context, id string) error {
	return s.c.MarkNotificationRead(ctx, id)
}

// do issues one request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := fmt.Sprintf("%s %s", method, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.creds.Credential(ctx)
	if err != nil {
		return &AuthError{Op: op, Message: fmt.Sprintf("no credential available: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed_to_close_response_body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(op, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

// errorFromResponse maps an HTTP error status into the error taxonomy.
func (c *Client) errorFromResponse(op string, resp *http.Response) error {
	message := serverMessage(resp.Body)

	c.logger.Debug("store_request_failed",
		zap.String("op", op),
		zap.Int("status_code", resp.StatusCode),
		zap.String("message", logger.SanitizeString(message, 0)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Op: op, StatusCode: resp.StatusCode, Message: message}
	case resp.StatusCode == http.StatusConflict:
		return &ConflictError{Op: op, Message: message}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{Op: op, Message: message}
	default:
		// 404s and everything else unexpected are treated as transient:
		// the follow-up snapshot refetch settles the true state.
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", message)}
	}
}

// serverMessage extracts the backend's {"message": ...} error body.
func serverMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}

	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &parsed) == nil && parsed.Message != "" {
		return parsed.Message
	}
	return string(raw)
}
