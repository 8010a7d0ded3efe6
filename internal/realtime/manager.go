// Package realtime manages the single persistent connection to the
// notification server: credential handshake, typed event delivery, and
// reconnection with bounded backoff after transport drops. Exactly one
// channel is active per session; only the manager opens or closes it.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/logger"
	"github.com/taskdeck/taskdeck/internal/store"
)

// State is the connection state of the channel manager.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateAwaitingAuth State = "awaitingAuth"
	StateStreaming    State = "streaming"
	StateReconnecting State = "reconnecting"
)

// ErrNotStreaming is returned for sends while the channel is not streaming.
var ErrNotStreaming = errors.New("channel is not streaming")

// errServerTerminated marks a session the server ended explicitly. Unlike a
// client-intended close, it triggers a reconnect.
var errServerTerminated = errors.New("session terminated by server")

const (
	// DefaultReconnectAttempts and DefaultReconnectBaseDelay mirror the
	// reconnection options the web client shipped with.
	DefaultReconnectAttempts  = 5
	DefaultReconnectBaseDelay = time.Second

	defaultHandshakeTimeout = 10 * time.Second
)

// Config holds the channel manager tunables. Both the retry budget and the
// base delay are parameters; neither is hardcoded.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://localhost:5000/ws.
	URL string
	// ReconnectAttempts bounds retries per transport drop.
	ReconnectAttempts uint64
	// ReconnectBaseDelay seeds the exponential backoff between attempts.
	ReconnectBaseDelay time.Duration
	// HandshakeTimeout bounds the dial plus credential acknowledgement.
	HandshakeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReconnectAttempts == 0 {
		c.ReconnectAttempts = DefaultReconnectAttempts
	}
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	return c
}

// Manager owns the realtime channel. Construct with NewManager, start with
// Start, consume Events, and Close when the session ends. Close is terminal:
// no automatic reconnection happens afterwards.
type Manager struct {
	cfg    Config
	creds  store.CredentialSource
	logger *zap.Logger

	events chan Event

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	writeMu   sync.Mutex
	cancelRun context.CancelFunc
	runDone   chan struct{}
	runLog    *zap.Logger
	fatalErr  error
	closed    bool
}

// NewManager creates a channel manager. The credential source is consulted
// on every (re)connect, so a refreshed token is picked up automatically.
func NewManager(cfg Config, creds store.CredentialSource, zapLogger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg.withDefaults(),
		creds:  creds,
		logger: zapLogger,
		events: make(chan Event, 64),
		state:  StateDisconnected,
	}
}

// Start opens the channel. A connection already active for this manager is
// torn down first, so repeated starts never leak duplicate subscriptions.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("channel manager is closed")
	}
	prevCancel := m.cancelRun
	prevDone := m.runDone
	m.mu.Unlock()

	if prevCancel != nil {
		// Still scoped to the run being replaced; the new id is minted below.
		m.runLogger().Info("replacing_active_channel")
		prevCancel()
		<-prevDone
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	// One id per Start spans every connect attempt, reconnect and teardown
	// of this run, so duplicate subscriptions show up in the logs.
	runLog := m.logger.With(zap.String("channel_session_id", uuid.NewString()))

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return errors.New("channel manager is closed")
	}
	m.cancelRun = cancel
	m.runDone = done
	m.runLog = runLog
	m.mu.Unlock()

	go m.run(runCtx, done)
	return nil
}

// Events returns the stream of typed server events. The channel is closed
// when the manager is closed or when the run loop gives up for good; Err
// reports which.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Err returns the error that ended the run loop permanently: a rejected
// credential or an exhausted reconnect budget. It is nil while the channel
// is live and after an explicit Close.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fatalErr
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SendRead acknowledges a notification as read over the channel.
func (m *Manager) SendRead(id string) error {
	m.mu.Lock()
	conn := m.conn
	streaming := m.state == StateStreaming
	m.mu.Unlock()

	if !streaming || conn == nil {
		return ErrNotStreaming
	}
	return m.writeJSON(conn, clientMessage{NotificationRead: id})
}

// Close tears the channel down for good. Safe to call from any state.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	cancel := m.cancelRun
	done := m.runDone
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	m.setState(StateDisconnected)
	close(m.events)
	m.runLogger().Info("channel_closed")
	return nil
}

// run drives the connect/stream/reconnect loop until the context is
// cancelled. The backoff budget spans consecutive failed attempts and
// resets after every successful stream.
func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer m.setState(StateDisconnected)
	log := m.runLogger()

	policy := m.newBackoffPolicy()
	for {
		streamed, err := m.connectAndStream(ctx)
		if ctx.Err() != nil {
			return
		}
		if store.IsAuthError(err) {
			// Fatal to the session: the auth collaborator decides what
			// happens next, so the failure must reach the consumer.
			log.Error("channel_auth_rejected", zap.Error(err))
			m.terminate(err)
			return
		}
		if streamed {
			policy = m.newBackoffPolicy()
		}

		if errors.Is(err, errServerTerminated) {
			log.Warn("session_terminated_by_server_reconnecting")
		} else {
			log.Warn("transport_dropped", zap.String("error", logger.SanitizeError(err)))
		}

		m.setState(StateReconnecting)
		delay := policy.NextBackOff()
		if delay == backoff.Stop {
			log.Error("reconnect_budget_exhausted",
				zap.Uint64("attempts", m.cfg.ReconnectAttempts),
			)
			m.terminate(fmt.Errorf("reconnect budget exhausted after %d attempts: %w",
				m.cfg.ReconnectAttempts, err))
			return
		}

		log.Info("reconnect_scheduled", zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// terminate ends the manager from inside the run loop. It behaves like an
// explicit Close except the cause is recorded for Err; closing the events
// channel is what wakes consumers blocked on it.
func (m *Manager) terminate(err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.fatalErr = err
	cancel := m.cancelRun
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	close(m.events)
}

// runLogger returns the logger scoped to the current run, falling back to
// the manager logger before the first Start.
func (m *Manager) runLogger() *zap.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runLog != nil {
		return m.runLog
	}
	return m.logger
}

func (m *Manager) newBackoffPolicy() backoff.BackOff {
	return backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(m.cfg.ReconnectBaseDelay)),
		m.cfg.ReconnectAttempts,
	)
}

// connectAndStream performs one full connection lifecycle: dial, credential
// handshake, then stream events until the transport drops or the server
// terminates the session. The streamed result reports whether the channel
// reached the streaming state before the error.
func (m *Manager) connectAndStream(ctx context.Context) (streamed bool, err error) {
	m.setState(StateConnecting)

	credential, err := m.creds.Credential(ctx)
	if err != nil {
		return false, &store.AuthError{Op: "channel connect", Message: fmt.Sprintf("no credential: %v", err)}
	}

	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to dial %s: %w", m.cfg.URL, err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			m.runLogger().Debug("connection_close_failed", zap.Error(closeErr))
		}
		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
	}()

	// Credential handshake: send the token, wait for the acknowledgement.
	m.setState(StateAwaitingAuth)
	if err := m.writeJSON(conn, clientMessage{Authenticate: credential}); err != nil {
		return false, fmt.Errorf("failed to send credential handshake: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(m.cfg.HandshakeTimeout)); err != nil {
		return false, fmt.Errorf("failed to set handshake deadline: %w", err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return false, fmt.Errorf("connection dropped awaiting credential ack: %w", err)
	}
	ack, err := decodeServerMessage(raw)
	if err != nil {
		return false, fmt.Errorf("bad credential ack: %w", err)
	}
	switch {
	case ack.authenticated:
	case ack.serverError != "":
		return false, &store.AuthError{Op: "channel handshake", Message: ack.serverError}
	default:
		return false, &store.AuthError{Op: "channel handshake", Message: "credential not acknowledged"}
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return false, fmt.Errorf("failed to clear handshake deadline: %w", err)
	}

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
	m.setState(StateStreaming)
	m.runLogger().Info("channel_streaming")

	return true, m.stream(ctx, conn)
}

// stream reads and dispatches events until the connection ends.
func (m *Manager) stream(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				// A close frame from the server is a terminated session,
				// not a client-intended close.
				return errServerTerminated
			}
			return fmt.Errorf("transport read failed: %w", err)
		}

		msg, err := decodeServerMessage(raw)
		if err != nil {
			// A message this client cannot understand is rejected loudly
			// but does not kill the stream.
			m.runLogger().Error("server_message_rejected", zap.Error(err))
			continue
		}

		switch {
		case msg.sessionTerminated:
			return errServerTerminated
		case msg.serverError != "":
			m.runLogger().Warn("server_reported_error",
				zap.String("message", logger.SanitizeString(msg.serverError, 0)))
		case msg.event != nil:
			select {
			case m.events <- msg.event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (m *Manager) writeJSON(conn *websocket.Conn, msg clientMessage) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	if prev != s {
		m.runLogger().Debug("channel_state_changed",
			zap.String("from", string(prev)),
			zap.String("to", string(s)),
		)
	}
}
