package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [persona...]",
		Short: "Run one scheduler cycle now",
		Long: `Run executes a single cycle over the configured personas and exits.
With persona arguments the cycle is restricted to those personas, in
the given order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			profiles, err := a.selectProfiles(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b := a.newBrowser()
			defer b.Close()

			a.newScheduler(b, profiles, nil).RunCycle(ctx)
			return nil
		},
	}
}
