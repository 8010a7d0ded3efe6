package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/models"
)

// NewAddCmd creates the add command
func NewAddCmd() *cobra.Command {
	var (
		description string
		priority    string
		due         string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := parseDue(due)
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

			task, err := sess.Board.Create(ctx, models.TaskFields{
				Title:       args[0],
				Description: description,
				Priority:    models.Priority(priority),
				DueDate:     dueDate,
			})
			if err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			fmt.Printf("Created %s\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&priority, "priority", "medium", "Task priority (low, medium, high)")
	cmd.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD or RFC 3339 (default: end of today)")
	return cmd
}

func parseDue(due string) (time.Time, error) {
	if due == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location()), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", due, time.Local); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, time.Local), nil
	}
	t, err := time.Parse(time.RFC3339, due)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q, want YYYY-MM-DD or RFC 3339: %w", due, err)
	}
	return t, nil
}
