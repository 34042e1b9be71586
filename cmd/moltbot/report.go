package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moltbook/moltbot/internal/mail"
	"github.com/moltbook/moltbot/internal/report"
)

func newReportCmd() *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the daily learning report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			gen := report.NewGenerator(a.reader, a.profiles, a.cfg.ReportPath(), a.logger)
			html, err := gen.Save()
			if err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", a.cfg.ReportPath())

			if send {
				sender := mail.NewSender(a.cfg.SMTP, a.logger)
				return sender.Send(cmd.Context(), a.cfg.SMTP.Recipients(), "Moltbook Bot 每日学习报告", html)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "Mail the report via the configured SMTP relay")
	return cmd
}
