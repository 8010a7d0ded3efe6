package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()

	key, err := jwk.FromRaw([]byte("test-signing-key-test-signing-key"))
	if err != nil {
		t.Fatalf("failed to build signing key: %v", err)
	}

	builder := jwt.NewBuilder().Subject("user-1")
	if !expiry.IsZero() {
		builder = builder.Expiration(expiry)
	}
	token, err := builder.Build()
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, key))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(signed)
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("refresh rejected")
}

func TestCredentialReturnsToken(t *testing.T) {
	t.Parallel()

	src := NewSource(StaticToken("opaque-bearer"), zap.NewNop())
	defer src.Close()

	got, err := src.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got != "opaque-bearer" {
		t.Errorf("Credential() = %q, want %q", got, "opaque-bearer")
	}
}

func TestCredentialTokenSourceFailure(t *testing.T) {
	t.Parallel()

	src := NewSource(failingTokenSource{}, zap.NewNop())
	defer src.Close()

	if _, err := src.Credential(context.Background()); err == nil {
		t.Error("Credential() should surface token source failure")
	}
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, expiry)

	got, err := TokenExpiry(token)
	if err != nil {
		t.Fatalf("TokenExpiry() error = %v", err)
	}
	if !got.Equal(expiry) {
		t.Errorf("TokenExpiry() = %v, want %v", got, expiry)
	}

	if _, err := TokenExpiry("not-a-jwt"); err == nil {
		t.Error("TokenExpiry() should reject a malformed token")
	}
}

func TestInvalidateCoalesces(t *testing.T) {
	t.Parallel()

	src := NewSource(StaticToken("opaque-bearer"), zap.NewNop())
	defer src.Close()

	src.Invalidate()
	src.Invalidate()
	src.Invalidate()

	select {
	case <-src.Invalidations():
	default:
		t.Fatal("expected a buffered invalidation signal")
	}
	select {
	case <-src.Invalidations():
		t.Error("repeated Invalidate calls should coalesce into one signal")
	default:
	}
}

func TestExpiredTokenBroadcastsInvalidation(t *testing.T) {
	t.Parallel()

	token := signedToken(t, time.Now().Add(-time.Minute))
	src := NewSource(StaticToken(token), zap.NewNop())
	defer src.Close()

	if _, err := src.Credential(context.Background()); err != nil {
		t.Fatalf("Credential() error = %v", err)
	}

	select {
	case <-src.Invalidations():
	case <-time.After(2 * time.Second):
		t.Fatal("expected invalidation for an already-expired credential")
	}
}

func TestCloseSuppressesInvalidation(t *testing.T) {
	t.Parallel()

	src := NewSource(StaticToken("opaque-bearer"), zap.NewNop())
	src.Close()
	src.Invalidate()

	select {
	case <-src.Invalidations():
		t.Error("Invalidate after Close should not signal")
	default:
	}
}
