package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moltbook/moltbot/internal/stats"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Recompute today's stats and rewrite the snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			syncer := stats.NewSyncer(a.reader, a.cfg.StatsPath(), a.logger)
			if err := syncer.Sync(); err != nil {
				return err
			}
			fmt.Printf("Snapshot written to %s\n", a.cfg.StatsPath())
			return nil
		},
	}
}
