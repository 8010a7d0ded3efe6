package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/logger"
	"github.com/taskdeck/taskdeck/internal/session"
)

// newSession builds a session from environment configuration. One-shot
// commands use the returned session without starting the realtime channel
// and get a console logger; watch runs long and logs JSON. The close
// function releases the credential source and flushes the logger.
func newSession(interactive bool) (*session.Session, *config.Config, *zap.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	newLogger := logger.NewProductionLogger
	if interactive {
		newLogger = logger.NewDevelopmentLogger
	}
	zapLogger, err := newLogger(cfg.DebugMode)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	creds := auth.NewSource(auth.StaticToken(cfg.Token), zapLogger)
	sess := session.New(cfg, creds, zapLogger)

	cleanup := func() {
		creds.Close()
		_ = zapLogger.Sync()
	}
	return sess, cfg, zapLogger, cleanup, nil
}

// commandContext bounds a one-shot command run.
func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	timeout := 2 * cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
