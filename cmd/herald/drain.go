package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/herald-notify/herald/internal/audio"
	"github.com/herald-notify/herald/internal/config"
	"github.com/herald-notify/herald/internal/provider"
	"github.com/herald-notify/herald/internal/queue"
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Play all pending announcements in the foreground",
	Long: `Drain claims and plays every pending announcement in arrival order,
then exits. Useful for debugging provider configuration without the
background consumer. Fails if a consumer already holds the queue.`,
	RunE: runDrain,
}

func init() {
	rootCmd.AddCommand(drainCmd)
}

func runDrain(cmd *cobra.Command, args []string) error {
	lock, err := queue.AcquireLock(config.LockPath())
	if err != nil {
		return fmt.Errorf("cannot drain: %w", err)
	}
	defer lock.Release()

	player := audio.NewPlayer(logger)
	defer player.Close()

	registry, err := provider.NewRegistry(cfg, player)
	if err != nil {
		return err
	}
	chain := provider.NewChain(registry, cfg.ProviderTimeout(), logger)
	consumer := queue.NewConsumer(spool, chain, logger)

	if err := spool.Recover(); err != nil {
		logger.Warn("recovery failed", "error", err)
	}

	played := consumer.DrainOnce(cmd.Context())
	fmt.Printf("Played %d announcement(s)\n", played)
	return nil
}
