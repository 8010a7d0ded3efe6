package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/bucket"
	"github.com/taskdeck/taskdeck/internal/models"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var on string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks grouped by board bucket",
		Long:  "Fetch the task snapshot and print it grouped into dueToday, pending, completed and overdue",
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

			if on != "" {
				date, err := time.ParseInLocation("2006-01-02", on, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --on date %q, want YYYY-MM-DD: %w", on, err)
				}
				tasks := sess.Board.TasksOn(date)
				if len(tasks) == 0 {
					fmt.Printf("No tasks due on %s\n", on)
					return nil
				}
				for _, task := range tasks {
					printTask(task)
				}
				return nil
			}

			buckets := sess.Board.Buckets(time.Now())
			for _, b := range bucket.All {
				tasks := buckets[b]
				if len(tasks) == 0 {
					continue
				}
				fmt.Printf("%s (%d):\n", b, len(tasks))
				for _, task := range tasks {
					printTask(task)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&on, "on", "", "Only show tasks due on this date (YYYY-MM-DD)")
	return cmd
}

func printTask(task models.Task) {
	fmt.Printf("  - %s  [%s]  %s  due %s\n",
		task.ID, task.Priority, task.Title, task.DueDate.Local().Format("2006-01-02 15:04"))
}
