package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/session"
	"github.com/taskdeck/taskdeck/internal/telemetry"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream realtime updates for the account",
		Long:  "Open the realtime channel and keep the local board and notifications in sync until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, zapLogger, cleanup, err := newSession(false)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.OTELEnabled {
				tp, err := telemetry.InitTracer(ctx, "taskdeck", cfg.OTELEndpoint)
				if err != nil {
					return fmt.Errorf("failed to initialize tracing: %w", err)
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Warn("tracer_shutdown_failed", zap.Error(err))
					}
				}()
			}

			err = sess.Run(ctx)
			switch {
			case errors.Is(err, context.Canceled):
				fmt.Println("Stopped")
				return nil
			case errors.Is(err, session.ErrCredentialInvalidated):
				fmt.Fprintln(os.Stderr, "Credential expired or was invalidated; obtain a fresh token and restart")
				return err
			default:
				return err
			}
		},
	}
	return cmd
}
