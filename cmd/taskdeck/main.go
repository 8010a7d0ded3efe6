package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/cmd/taskdeck/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskdeck",
		Short: "Task board client for TaskDeck",
		Long:  "CLI client for the TaskDeck task board: list, mutate and watch tasks and notifications",
	}

	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewAddCmd())
	rootCmd.AddCommand(commands.NewDoneCmd())
	rootCmd.AddCommand(commands.NewMoveCmd())
	rootCmd.AddCommand(commands.NewRmCmd())
	rootCmd.AddCommand(commands.NewRescheduleCmd())
	rootCmd.AddCommand(commands.NewNotificationsCmd())
	rootCmd.AddCommand(commands.NewWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
