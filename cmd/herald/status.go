package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/herald-notify/herald/internal/config"
	"github.com/herald-notify/herald/internal/queue"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue depth and consumer state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	lockPath := config.LockPath()
	if pid, ok := queue.LockHolder(lockPath); ok && queue.ConsumerAlive(lockPath) {
		fmt.Printf("Consumer: running (pid %d)\n", pid)
	} else {
		fmt.Println("Consumer: not running")
	}

	entries, err := spool.PendingEntries()
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}

	fmt.Printf("Pending:  %d\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("  %s  %-14s %s  %q\n",
			entry.Request.ID,
			entry.Request.EventKind,
			humanize.Time(entry.EnqueuedAt),
			entry.Request.Text)
	}

	return nil
}
