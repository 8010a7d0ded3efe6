package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRmCmd creates the rm command
func NewRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, _, cleanup, err := newSession(true)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := commandContext(cfg)
			defer cancel()

			if err := sess.Board.Refresh(ctx); err != nil {
				return fmt.Errorf("failed to fetch tasks: %w", err)
			}
			if err := sess.Board.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}

			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
	return cmd
}
