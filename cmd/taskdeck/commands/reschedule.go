package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRescheduleCmd creates the reschedule command
func NewRescheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reschedule <task-id> <due>",
		Short: "Change a task's due date",
		Long:  "Change a task's due date without touching its other fields. Accepts YYYY-MM-DD or RFC 3339.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := parseDue(args[1])
			if err != nil {
				return err
			}

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

			task, err := sess.Board.Reschedule(ctx, args[0], due)
			if err != nil {
				return fmt.Errorf("failed to reschedule task: %w", err)
			}

			fmt.Printf("Task %s now due %s\n", task.ID, task.DueDate.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	return cmd
}
