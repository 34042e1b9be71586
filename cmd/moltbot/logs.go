package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moltbook/moltbot/internal/persona"
	"github.com/moltbook/moltbot/internal/stats"
)

func newLogsCmd() *cobra.Command {
	var (
		showStats bool
		showAll   bool
		clear     bool
		tail      int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect the activity journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			switch {
			case clear:
				if err := a.writer.Clear(); err != nil {
					return err
				}
				fmt.Println("Journal cleared.")
				return nil

			case showStats:
				lines, err := a.reader.Lines()
				if err != nil {
					return err
				}
				s := stats.Compute(lines, persona.Names(a.profiles), nil)
				fmt.Printf("浏览帖子: %d\n互动次数: %d\n发布帖子: %d\n登录次数: %d\n调度轮次: %d\n",
					s.Visits, s.Interactions, s.Authored, s.Logins, s.Cycles)
				for _, name := range persona.Names(a.profiles) {
					ps := s.Personas[name]
					fmt.Printf("  %-10s 浏览 %d, 互动 %d, 发帖 %d\n",
						name, ps.Visits, ps.Interactions, ps.Authored)
				}
				if s.LastUpdate != nil {
					fmt.Printf("最后更新: %s\n", s.LastUpdate.Format("2006-01-02 15:04:05"))
				}
				return nil

			case showAll:
				raw, err := a.reader.Raw()
				if err != nil {
					return err
				}
				for _, l := range raw {
					fmt.Println(l)
				}
				return nil

			default:
				raw, err := a.reader.Tail(tail)
				if err != nil {
					return err
				}
				for _, l := range raw {
					fmt.Println(l)
				}
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&showStats, "stats", false, "Print aggregate statistics instead of lines")
	cmd.Flags().BoolVar(&showAll, "all", false, "Print the whole journal")
	cmd.Flags().BoolVar(&clear, "clear", false, "Truncate the journal")
	cmd.Flags().IntVarP(&tail, "tail", "n", 20, "Number of lines to show from the end")
	return cmd
}
