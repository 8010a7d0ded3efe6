package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/bucket"
)

// NewMoveCmd creates the move command
func NewMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <task-id> <bucket>",
		Short: "Move a task to another board bucket",
		Long:  "Move a task between buckets. Moving to completed marks it done, any other bucket marks it pending.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := bucket.Bucket(args[1])
			if !validBucket(dest) {
				return fmt.Errorf("unknown bucket %q, want one of %v", args[1], bucket.All)
			}
			return moveTask(args[0], dest)
		},
	}
	return cmd
}

// NewDoneCmd creates the done command, shorthand for move to completed
func NewDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return moveTask(args[0], bucket.Completed)
		},
	}
	return cmd
}

func moveTask(taskID string, dest bucket.Bucket) error {
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

	task, err := sess.Board.Move(ctx, taskID, dest)
	if err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}

	fmt.Printf("Task %s is now %s\n", task.ID, task.Status)
	return nil
}

func validBucket(b bucket.Bucket) bool {
	for _, known := range bucket.All {
		if b == known {
			return true
		}
	}
	return false
}
