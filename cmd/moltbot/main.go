// Package main is the entry point for the moltbot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var version = "1.0.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "moltbot",
		Short: "Multi-persona forum automation for Moltbook",
		Long: `Moltbot drives several learning personas through the Moltbook forum
on a cron cadence: each persona browses posts matched to its focus,
interacts probabilistically, and occasionally authors a post. Every
action is journaled; the dashboard and daily report are derived views
of that journal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newDashboardCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
