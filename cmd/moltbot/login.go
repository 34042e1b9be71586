package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moltbook/moltbot/internal/browser"
	"github.com/moltbook/moltbot/internal/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Capture a session interactively in a visible browser",
		Long: `Login opens a headful browser on the forum login page, pre-fills the
account identity, and waits while you complete the login by hand (for
example through an emailed magic link). Press Enter afterwards to
persist the session cookies for the bot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// The operator has to see and drive this browser.
			b := browser.NewChrome(browser.ChromeOptions{
				Headless:          false,
				SlowMo:            a.cfg.SlowMo,
				NavigationTimeout: a.cfg.NavigationTimeout,
			})
			defer b.Close()

			page, err := b.NewPage(ctx)
			if err != nil {
				return err
			}
			defer page.Close()

			fmt.Println("1. Opening the login page...")
			if err := page.Navigate(ctx, a.cfg.ForumURL+"/login"); err != nil {
				return err
			}

			if el, found, err := page.Locate(ctx, browser.IntentLoginUsername); err == nil && found {
				if err := el.Fill(ctx, a.cfg.Username); err == nil {
					fmt.Printf("2. Pre-filled identity: %s\n", a.cfg.Username)
				}
			}

			fmt.Println()
			fmt.Println("Complete the login in the browser window, then return here.")
			fmt.Print("Press Enter to save the session... ")
			bufio.NewScanner(os.Stdin).Scan()

			cookies, err := page.Cookies(ctx)
			if err != nil {
				return fmt.Errorf("capture cookies: %w", err)
			}
			if len(cookies) == 0 {
				return fmt.Errorf("no cookies captured, login may not have completed")
			}

			store := session.NewStore(a.cfg.CookiesPath(), a.cfg.ForumURL,
				session.Credentials{Identity: a.cfg.Username, Secret: a.cfg.Password},
				a.writer, a.logger)
			store.Persist(cookies)
			fmt.Printf("Session saved to %s\n", a.cfg.CookiesPath())

			// Verify the captured session actually authenticates.
			if err := page.Navigate(ctx, a.cfg.ForumURL); err == nil {
				if _, found, err := page.Locate(ctx, browser.IntentAuthMarker); err == nil && found {
					fmt.Println("Verified: the session is authenticated.")
				} else {
					fmt.Println("Warning: could not verify the session, the bot may need a fresh login.")
				}
			}
			return nil
		},
	}
}
