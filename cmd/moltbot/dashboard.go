package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moltbook/moltbot/internal/dashboard"
	"github.com/moltbook/moltbot/internal/persona"
)

func newDashboardCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the monitoring dashboard only",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.DashboardAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dash := dashboard.NewServer(addr, a.reader, persona.Names(a.profiles), a.logger)
			if err := dash.Start(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from DASHBOARD_ADDR)")
	return cmd
}
