package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Discard queued announcements that have not started playing",
	Long: `Discard every pending queue entry. The entry currently being played,
if any, finishes normally. Intended for session boundaries, where stale
announcements from a previous session are no longer wanted.`,
	RunE: runFlush,
}

func init() {
	rootCmd.AddCommand(flushCmd)
}

func runFlush(cmd *cobra.Command, args []string) error {
	removed, err := spool.Flush()
	if err != nil {
		return fmt.Errorf("failed to flush queue: %w", err)
	}

	fmt.Printf("Flushed %d pending announcement(s)\n", removed)
	return nil
}
