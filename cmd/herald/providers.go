package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/herald-notify/herald/internal/audio"
	"github.com/herald-notify/herald/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and their availability",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	player := audio.NewPlayer(logger)
	defer player.Close()

	registry, err := provider.NewRegistry(cfg, player)
	if err != nil {
		return err
	}
	for _, p := range registry.All() {
		if err := p.Available(); err != nil {
			fmt.Printf("  %-12s unavailable: %v\n", p.Name(), err)
			continue
		}
		fmt.Printf("  %-12s ready\n", p.Name())
	}

	return nil
}
