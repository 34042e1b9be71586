package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/moltbook/moltbot/internal/dashboard"
	"github.com/moltbook/moltbot/internal/mail"
	"github.com/moltbook/moltbot/internal/persona"
	"github.com/moltbook/moltbot/internal/report"
	"github.com/moltbook/moltbot/internal/scheduler"
	"github.com/moltbook/moltbot/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler daemon with dashboard and daily report",
		Long: `Serve runs the cron-driven persona scheduler, the monitoring
dashboard, and the daily-report job as one process. SIGINT or SIGTERM
shuts all three down cleanly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

			b := a.newBrowser()
			defer b.Close()

			sched := a.newScheduler(b, a.profiles, metrics)
			dash := dashboard.NewServer(a.cfg.DashboardAddr, a.reader,
				persona.Names(a.profiles), a.logger)

			gen := report.NewGenerator(a.reader, a.profiles, a.cfg.ReportPath(), a.logger)
			sender := mail.NewSender(a.cfg.SMTP, a.logger)
			reportJob := scheduler.NewReportJob(a.cfg.ReportCronSpec, func(ctx context.Context) error {
				html, err := gen.Save()
				if err != nil {
					return err
				}
				return sender.Send(ctx, a.cfg.SMTP.Recipients(), "Moltbook Bot 每日学习报告", html)
			}, a.logger)

			g, ctx := errgroup.WithContext(sigCtx)
			g.Go(func() error { return sched.Start(ctx) })
			g.Go(func() error { return dash.Start(ctx) })
			g.Go(func() error { return reportJob.Start(ctx) })

			// A signal-driven stop is a clean exit; only a component
			// failure is an error.
			if err := g.Wait(); err != nil && sigCtx.Err() == nil {
				return err
			}
			a.logger.Info("shutdown complete")
			return nil
		},
	}
}
