// Package notify maintains the client's view of account notifications:
// an ordered, deduplicated sequence merged from snapshot fetches and
// realtime pushes, plus the unread count.
package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/logger"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/store"
)

// Synchronizer merges pushed notifications with fetched snapshots and
// tracks read state. Entries are held most-recent-first and deduplicated by
// identifier. The unread count is never tracked independently: it is
// recomputed from the entries after every mutation, so it always equals the
// number of entries with read == false.
type Synchronizer struct {
	store  store.NotificationStore
	logger *zap.Logger

	mu         sync.Mutex
	entries    []models.Notification
	index      map[string]int // id -> position in entries
	unread     int
	generation uint64 // bumped per snapshot; ties optimistic flips to their baseline
}

// NewSynchronizer creates a synchronizer over the given notification store.
func NewSynchronizer(notificationStore store.NotificationStore, zapLogger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		store:  notificationStore,
		logger: zapLogger,
		index:  make(map[string]int),
	}
}

// RefreshSnapshot fetches the current snapshot from the store and replaces
// the baseline. The server is authoritative: any stale local optimistic
// read state is overwritten.
func (s *Synchronizer) RefreshSnapshot(ctx context.Context) error {
	snapshot, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	s.IngestSnapshot(snapshot)
	return nil
}

// IngestSnapshot replaces the baseline with a fetched snapshot, most recent
// first as the server returns it, and recomputes the unread count.
func (s *Synchronizer) IngestSnapshot(snapshot []models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.entries = make([]models.Notification, 0, len(snapshot))
	s.index = make(map[string]int, len(snapshot))
	for _, n := range snapshot {
		if _, dup := s.index[n.ID]; dup {
			continue
		}
		s.index[n.ID] = len(s.entries)
		s.entries = append(s.entries, n)
	}
	s.recountLocked()

	s.logger.Debug("notification_snapshot_applied",
		zap.Int("count", len(s.entries)),
		zap.Int("unread", s.unread),
	)
}

// IngestPush merges a single pushed notification. A duplicate identifier is
// ignored entirely: no reorder, no list growth. New notifications are
// prepended.
func (s *Synchronizer) IngestPush(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.index[n.ID]; dup {
		s.logger.Debug("duplicate_notification_ignored", zap.String("notification_id", n.ID))
		return
	}

	s.entries = append([]models.Notification{n}, s.entries...)
	for id, pos := range s.index {
		s.index[id] = pos + 1
	}
	s.index[n.ID] = 0
	s.recountLocked()

	s.logger.Info("notification_received",
		zap.String("notification_id", n.ID),
		zap.String("type", string(n.Type)),
		zap.String("message", logger.SanitizeString(n.Message, 0)),
	)
}

// MarkRead optimistically flips a notification to read and confirms with
// the store. An unknown or already-read identifier is a no-op, so the
// unread count can never be decremented twice for one entry. A store
// failure rolls the optimistic flip back and reports the error, unless a
// fresh snapshot replaced the baseline meanwhile; the snapshot wins.
func (s *Synchronizer) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok || s.entries[pos].Read {
		s.mu.Unlock()
		return nil
	}
	s.entries[pos].Read = true
	s.recountLocked()
	gen := s.generation
	s.mu.Unlock()

	if err := s.store.MarkRead(ctx, id); err != nil {
		s.mu.Lock()
		// Roll back only within the baseline the flip was made against. A
		// snapshot that landed while the request was in flight is the
		// server speaking; its read state stands even if it matches ours.
		if s.generation == gen {
			if pos, ok := s.index[id]; ok && s.entries[pos].Read {
				s.entries[pos].Read = false
				s.recountLocked()
			}
		}
		s.mu.Unlock()
		s.logger.Warn("mark_read_reverted",
			zap.String("notification_id", id),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Notifications returns a copy of the entries, most recent first.
func (s *Synchronizer) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.entries))
	copy(out, s.entries)
	return out
}

// Unread returns the current unread count.
func (s *Synchronizer) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// recountLocked recomputes the unread count from the entries and checks the
// invariant. Callers hold s.mu.
func (s *Synchronizer) recountLocked() {
	count := 0
	for _, n := range s.entries {
		if !n.Read {
			count++
		}
	}
	s.unread = count

	if len(s.index) != len(s.entries) {
		panic(fmt.Sprintf("notification index out of sync: %d indexed, %d entries", len(s.index), len(s.entries)))
	}
}
