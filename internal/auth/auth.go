// Package auth adapts an oauth2 token source into the credential
// collaborator the core consumes. The core never issues or refreshes
// credentials itself; it only reads the current bearer token and observes
// invalidation, which forces a realtime channel teardown.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Source supplies the current bearer credential and broadcasts credential
// invalidation. Invalidation fires when Invalidate is called explicitly or
// when the token's exp claim passes.
type Source struct {
	tokens oauth2.TokenSource
	logger *zap.Logger

	mu          sync.Mutex
	expiryTimer *time.Timer
	armedExpiry time.Time
	invalidated chan struct{}
	closed      bool
}

// NewSource creates a credential source backed by tokens. Static tokens for
// CLI use come from StaticToken; deployments plug in refreshing sources.
func NewSource(tokens oauth2.TokenSource, zapLogger *zap.Logger) *Source {
	return &Source{
		tokens:      tokens,
		logger:      zapLogger,
		invalidated: make(chan struct{}, 1),
	}
}

// StaticToken wraps a fixed bearer token in an oauth2.TokenSource.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

// Credential returns the current bearer token. Reading a token with an exp
// claim arms a timer that broadcasts invalidation when the claim passes.
func (s *Source) Credential(ctx context.Context) (string, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain token: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token source returned empty access token")
	}

	if expiry, err := TokenExpiry(token.AccessToken); err == nil && !expiry.IsZero() {
		s.armExpiry(expiry)
	}
	return token.AccessToken, nil
}

// TokenExpiry reads the exp claim from a JWT bearer token without verifying
// its signature. Verification is the backend's job; the client only needs to
// know when to expect rejection.
func TokenExpiry(token string) (time.Time, error) {
	parsed, err := jwt.Parse([]byte(token), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	return parsed.Expiration(), nil
}

// Invalidate broadcasts that the current credential is no longer usable.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked()
}

// Invalidations returns the stream observed for forced disconnects. The
// channel is buffered; consumers that lag see one coalesced signal.
func (s *Source) Invalidations() <-chan struct{} {
	return s.invalidated
}

// Close stops the expiry timer. The source must not be used afterwards.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.expiryTimer != nil {
		s.expiryTimer.Stop()
		s.expiryTimer = nil
	}
}

func (s *Source) armExpiry(expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || expiry.Equal(s.armedExpiry) {
		return
	}
	if s.expiryTimer != nil {
		s.expiryTimer.Stop()
	}
	s.armedExpiry = expiry

	delay := time.Until(expiry)
	if delay < 0 {
		delay = 0
	}
	s.expiryTimer = time.AfterFunc(delay, func() {
		s.logger.Info("credential_expired", zap.Time("expiry", expiry))
		s.Invalidate()
	})
}

// notifyLocked performs a coalescing send; callers hold s.mu.
func (s *Source) notifyLocked() {
	if s.closed {
		return
	}
	select {
	case s.invalidated <- struct{}{}:
	default:
	}
}
