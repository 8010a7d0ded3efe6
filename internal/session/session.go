// Package session wires the core together for the lifetime of one
// authenticated session: the task coordinator, the notification
// synchronizer and the realtime channel. The channel is an owned instance
// constructed and torn down with the session, never a process-wide
// singleton.
package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/board"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/notify"
	"github.com/taskdeck/taskdeck/internal/realtime"
	"github.com/taskdeck/taskdeck/internal/store"
)

// ErrCredentialInvalidated is returned from Run when the auth collaborator
// invalidates the credential. The channel is already torn down; the caller
// decides whether to obtain a fresh credential and start a new session.
var ErrCredentialInvalidated = errors.New("credential invalidated")

// Session owns one authenticated client session.
type Session struct {
	cfg    *config.Config
	creds  *auth.Source
	logger *zap.Logger

	Board         *board.Coordinator
	Notifications *notify.Synchronizer
	channel       *realtime.Manager
}

// New composes a session from configuration and a credential source.
func New(cfg *config.Config, creds *auth.Source, zapLogger *zap.Logger) *Session {
	client := store.NewClient(store.ClientConfig{
		BaseURL:       cfg.APIBaseURL,
		Credentials:   creds,
		Timeout:       cfg.RequestTimeout,
		EnableTracing: cfg.OTELEnabled,
	}, zapLogger)

	attempts := cfg.ReconnectAttempts
	if attempts < 0 {
		attempts = 0
	}
	channel := realtime.NewManager(realtime.Config{
		URL:                cfg.SocketURL,
		ReconnectAttempts:  uint64(attempts),
		ReconnectBaseDelay: cfg.ReconnectBaseDelay,
	}, creds, zapLogger)

	return &Session{
		cfg:           cfg,
		creds:         creds,
		logger:        zapLogger,
		Board:         board.NewCoordinator(client, zapLogger),
		Notifications: notify.NewSynchronizer(client.Notifications(), zapLogger),
		channel:       channel,
	}
}

// Preferences returns the account's notification preferences as configured.
func (s *Session) Preferences() config.NotificationPreferences {
	return s.cfg.Notifications
}

// Run loads the initial snapshots, starts the realtime channel and routes
// events until the context ends, the channel closes, or the credential is
// invalidated. Task lifecycle events are invalidation signals: each one
// triggers a full task refetch rather than a cache patch. Notification
// events carry a full payload and are merged directly.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Board.Refresh(ctx); err != nil {
		return err
	}
	if err := s.Notifications.RefreshSnapshot(ctx); err != nil {
		return err
	}

	s.logger.Info("session_started",
		zap.Int("tasks", len(s.Board.Tasks())),
		zap.Int("notifications", len(s.Notifications.Notifications())),
		zap.Bool("notification_preferences_enabled", s.cfg.Notifications.Enabled),
	)

	if err := s.channel.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = s.channel.Close()
			return ctx.Err()

		case <-s.creds.Invalidations():
			s.logger.Warn("credential_invalidated_tearing_down_channel")
			_ = s.channel.Close()
			return ErrCredentialInvalidated

		case event, ok := <-s.channel.Events():
			if !ok {
				// The channel gave up for good without a client-side Close:
				// a rejected credential or an exhausted reconnect budget.
				// Either way the session cannot continue.
				return s.channel.Err()
			}
			s.dispatch(ctx, event)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, event realtime.Event) {
	switch ev := event.(type) {
	case realtime.TaskEvent:
		s.logger.Debug("task_invalidation_received",
			zap.String("kind", string(ev.Kind)),
			zap.String("task_id", ev.TaskID),
		)
		if err := s.Board.Refresh(ctx); err != nil {
			s.logger.Warn("invalidation_refetch_failed", zap.Error(err))
		}

	case realtime.NotificationEvent:
		s.Notifications.IngestPush(ev.Notification)
	}
}

// MarkRead acknowledges a notification through the store and, best effort,
// over the realtime channel so other connected clients of the account
// converge without waiting for their next snapshot.
func (s *Session) MarkRead(ctx context.Context, id string) error {
	if err := s.Notifications.MarkRead(ctx, id); err != nil {
		return err
	}
	if err := s.channel.SendRead(id); err != nil && !errors.Is(err, realtime.ErrNotStreaming) {
		s.logger.Debug("channel_read_ack_failed", zap.Error(err))
	}
	return nil
}

// Close tears the session down: channel first, then the credential watcher.
func (s *Session) Close() error {
	err := s.channel.Close()
	s.creds.Close()
	return err
}
