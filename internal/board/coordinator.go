// Package board owns the in-memory task cache and coordinates optimistic
// bucket moves against the authoritative task store. Moves apply locally
// before the network round trip completes; per-task sequence numbers impose
// a total order on mutation outcomes so stale confirmations can never win
// over a later move.
package board

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/bucket"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/store"
)

// ErrUnknownTask is returned for mutations against a task id not present in
// the cache.
var ErrUnknownTask = errors.New("unknown task")

const tracerName = "github.com/taskdeck/taskdeck/internal/board"

// Coordinator reconciles user-driven bucket moves with the task store. The
// cache it owns is the only task state the core holds; the view layer reads
// it through the accessor methods and never mutates it.
type Coordinator struct {
	store  store.TaskStore
	logger *zap.Logger

	mu        sync.Mutex
	cache     map[string]models.Task
	confirmed map[string]models.Task // last store-confirmed state per task
	issued    map[string]uint64      // latest sequence number issued per task
	resolved  map[string]uint64      // latest sequence number resolved per task
}

// NewCoordinator creates a coordinator over the given task store. The cache
// starts empty; call Refresh to load the initial snapshot.
func NewCoordinator(taskStore store.TaskStore, zapLogger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:     taskStore,
		logger:    zapLogger,
		cache:     make(map[string]models.Task),
		confirmed: make(map[string]models.Task),
		issued:    make(map[string]uint64),
		resolved:  make(map[string]uint64),
	}
}

// Move applies a drag or status-button move of a task into a destination
// bucket.
//
// A move whose mapped status equals the task's current status is a no-op:
// the cached task is returned without a network call. This also absorbs a
// duplicate move to the same destination while one is still in flight, since
// the optimistic status is already in the cache.
//
// Otherwise the new status is applied optimistically, the patch is issued,
// and the outcome is applied only if no later move for the same task was
// issued meanwhile; a stale response, success or failure, is discarded. A
// current failure reverts the cache entry to the last store-confirmed value.
func (c *Coordinator) Move(ctx context.Context, taskID string, dest bucket.Bucket) (models.Task, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "board.Move")
	span.SetAttributes(attribute.String("task.id", taskID), attribute.String("task.dest", string(dest)))
	defer span.End()

	newStatus := bucket.StatusFor(dest)

	c.mu.Lock()
	task, ok := c.cache[taskID]
	if !ok {
		c.mu.Unlock()
		return models.Task{}, ErrUnknownTask
	}
	if task.Status == newStatus {
		c.mu.Unlock()
		return task, nil
	}

	c.issued[taskID]++
	seq := c.issued[taskID]
	task.Status = newStatus
	c.cache[taskID] = task
	c.mu.Unlock()

	c.logger.Debug("mutation_issued",
		zap.String("task_id", taskID),
		zap.String("dest_bucket", string(dest)),
		zap.String("new_status", string(newStatus)),
		zap.Uint64("seq", seq),
	)

	updated, err := c.store.PatchStatus(ctx, taskID, newStatus)

	c.mu.Lock()
	if c.resolved[taskID] < seq {
		c.resolved[taskID] = seq
	}
	if c.issued[taskID] != seq {
		// A later move for this task was issued before this response
		// arrived. Only the most recent mutation's outcome may mutate the
		// cache, so this one is discarded entirely.
		current := c.cache[taskID]
		c.mu.Unlock()
		c.logger.Debug("stale_mutation_response_discarded",
			zap.String("task_id", taskID),
			zap.Uint64("seq", seq),
			zap.Error(err),
		)
		return current, nil
	}

	if err != nil {
		if baseline, ok := c.confirmed[taskID]; ok {
			c.cache[taskID] = baseline
		} else {
			delete(c.cache, taskID)
		}
		c.mu.Unlock()
		c.logger.Warn("mutation_reverted",
			zap.String("task_id", taskID),
			zap.Uint64("seq", seq),
			zap.Error(err),
		)
		return models.Task{}, err
	}

	c.cache[taskID] = updated
	c.confirmed[taskID] = updated
	c.mu.Unlock()

	// Reconcile concurrent changes from other clients or server-side
	// recalculation. The move itself already succeeded, so a failed
	// refetch is logged, not reported.
	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		c.logger.Warn("post_mutation_refresh_failed",
			zap.String("task_id", taskID),
			zap.Error(refreshErr),
		)
	}

	c.mu.Lock()
	result, ok := c.cache[taskID]
	c.mu.Unlock()
	if !ok {
		// The reconciling snapshot no longer contains the task (deleted by
		// another client after our patch landed).
		return updated, nil
	}
	return result, nil
}

// Refresh replaces the cache with a fresh snapshot from the store. Tasks
// with an unresolved in-flight mutation keep their optimistic entry until
// the response arrives; everything else adopts the snapshot, which is
// authoritative.
func (c *Coordinator) Refresh(ctx context.Context) error {
	snapshot, err := c.store.List(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]models.Task, len(snapshot))
	nextConfirmed := make(map[string]models.Task, len(snapshot))
	for _, task := range snapshot {
		nextConfirmed[task.ID] = task
		if c.issued[task.ID] > c.resolved[task.ID] {
			if optimistic, ok := c.cache[task.ID]; ok {
				next[task.ID] = optimistic
				continue
			}
		}
		next[task.ID] = task
	}
	c.cache = next
	c.confirmed = nextConfirmed

	c.logger.Debug("task_snapshot_applied", zap.Int("count", len(snapshot)))
	return nil
}

// Create validates and persists a new task, then reconciles the cache.
func (c *Coordinator) Create(ctx context.Context, fields models.TaskFields) (models.Task, error) {
	if fields.Status == nil {
		status := models.TaskStatusPending
		fields.Status = &status
	}

	created, err := c.store.Create(ctx, fields)
	if err != nil {
		return models.Task{}, err
	}

	c.mu.Lock()
	c.cache[created.ID] = created
	c.confirmed[created.ID] = created
	c.mu.Unlock()

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		c.logger.Warn("post_create_refresh_failed", zap.Error(refreshErr))
	}
	return created, nil
}

// Update replaces the writable fields of a task, preserving its current
// status unless the caller set one explicitly.
func (c *Coordinator) Update(ctx context.Context, taskID string, fields models.TaskFields) (models.Task, error) {
	c.mu.Lock()
	current, ok := c.cache[taskID]
	c.mu.Unlock()
	if !ok {
		return models.Task{}, ErrUnknownTask
	}
	if fields.Status == nil {
		status := current.Status
		fields.Status = &status
	}

	updated, err := c.store.Update(ctx, taskID, fields)
	if err != nil {
		return models.Task{}, err
	}

	c.mu.Lock()
	c.cache[taskID] = updated
	c.confirmed[taskID] = updated
	c.mu.Unlock()

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		c.logger.Warn("post_update_refresh_failed", zap.Error(refreshErr))
	}
	return updated, nil
}

// Reschedule moves a task to a new due date, as a calendar drag does. The
// persisted status is untouched; the task may land in a different bucket on
// the next render purely because its due date changed.
func (c *Coordinator) Reschedule(ctx context.Context, taskID string, due time.Time) (models.Task, error) {
	c.mu.Lock()
	current, ok := c.cache[taskID]
	c.mu.Unlock()
	if !ok {
		return models.Task{}, ErrUnknownTask
	}

	status := current.Status
	fields := models.TaskFields{
		Title:       current.Title,
		Description: current.Description,
		Priority:    current.Priority,
		DueDate:     due,
		Status:      &status,
	}
	return c.Update(ctx, taskID, fields)
}

// Delete removes a task from the store and the cache.
func (c *Coordinator) Delete(ctx context.Context, taskID string) error {
	if err := c.store.Delete(ctx, taskID); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.cache, taskID)
	delete(c.confirmed, taskID)
	delete(c.issued, taskID)
	delete(c.resolved, taskID)
	c.mu.Unlock()

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		c.logger.Warn("post_delete_refresh_failed", zap.Error(refreshErr))
	}
	return nil
}

// Tasks returns a stable copy of the cached tasks, ordered by due date.
func (c *Coordinator) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	tasks := make([]models.Task, 0, len(c.cache))
	for _, task := range c.cache {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks
}

// Task returns the cached task with the given id.
func (c *Coordinator) Task(taskID string) (models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	task, ok := c.cache[taskID]
	return task, ok
}

// Buckets classifies every cached task against now. Called by the view on
// each render pass; classification is derived and never stored.
func (c *Coordinator) Buckets(now time.Time) map[bucket.Bucket][]models.Task {
	grouped := make(map[bucket.Bucket][]models.Task, len(bucket.All))
	for _, task := range c.Tasks() {
		b := bucket.Classify(task, now)
		grouped[b] = append(grouped[b], task)
	}
	return grouped
}

// TasksOn returns the tasks whose due date falls on the given calendar day,
// for month-view rendering.
func (c *Coordinator) TasksOn(date time.Time) []models.Task {
	var tasks []models.Task
	for _, task := range c.Tasks() {
		if bucket.SameDay(task.DueDate, date) {
			tasks = append(tasks, task)
		}
	}
	return tasks
}
