package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewNotificationsCmd creates the notifications command group
func NewNotificationsCmd() *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, _, cleanup, err := newSession(true)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := commandContext(cfg)
			defer cancel()

			if err := sess.Notifications.RefreshSnapshot(ctx); err != nil {
				return fmt.Errorf("failed to fetch notifications: %w", err)
			}

			notifications := sess.Notifications.Notifications()
			shown := 0
			for _, n := range notifications {
				if unreadOnly && n.Read {
					continue
				}
				marker := " "
				if !n.Read {
					marker = "*"
				}
				fmt.Printf("%s %s  [%s]  %s\n", marker, n.ID, n.Type, n.Message)
				shown++
			}
			if shown == 0 {
				fmt.Println("No notifications")
				return nil
			}
			fmt.Printf("\n%d unread\n", sess.Notifications.Unread())
			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only show unread notifications")
	cmd.AddCommand(newNotificationsReadCmd())
	return cmd
}

func newNotificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, _, cleanup, err := newSession(true)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := commandContext(cfg)
			defer cancel()

			if err := sess.Notifications.RefreshSnapshot(ctx); err != nil {
				return fmt.Errorf("failed to fetch notifications: %w", err)
			}
			if err := sess.MarkRead(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to mark notification read: %w", err)
			}

			fmt.Printf("Marked %s read, %d unread remaining\n", args[0], sess.Notifications.Unread())
			return nil
		},
	}
}
