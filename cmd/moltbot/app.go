package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/moltbook/moltbot/internal/browser"
	"github.com/moltbook/moltbot/internal/config"
	"github.com/moltbook/moltbot/internal/interact"
	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/persona"
	"github.com/moltbook/moltbot/internal/relevance"
	"github.com/moltbook/moltbot/internal/runner"
	"github.com/moltbook/moltbot/internal/scheduler"
	"github.com/moltbook/moltbot/internal/session"
	"github.com/moltbook/moltbot/internal/stats"
	"github.com/moltbook/moltbot/internal/telemetry"
)

// app bundles the shared wiring every subcommand starts from.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	writer   *journal.Writer
	reader   *journal.Reader
	profiles []persona.Profile
}

func newApp() (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := telemetry.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	profiles, err := persona.Load(cfg.PersonasFile)
	if err != nil {
		return nil, fmt.Errorf("load personas: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		writer:   journal.NewWriter(cfg.JournalPath(), logger),
		reader:   journal.NewReader(cfg.JournalPath()),
		profiles: profiles,
	}, nil
}

// newBrowser builds the chromedp-backed engine from the config.
func (a *app) newBrowser() browser.Browser {
	return browser.NewChrome(browser.ChromeOptions{
		Headless:          a.cfg.Headless,
		SlowMo:            a.cfg.SlowMo,
		NavigationTimeout: a.cfg.NavigationTimeout,
	})
}

// newScheduler wires the full per-cycle stack over the given browser.
func (a *app) newScheduler(b browser.Browser, profiles []persona.Profile, metrics *telemetry.Metrics) *scheduler.Scheduler {
	store := session.NewStore(a.cfg.CookiesPath(), a.cfg.ForumURL,
		session.Credentials{Identity: a.cfg.Username, Secret: a.cfg.Password},
		a.writer, a.logger)
	engine := interact.NewEngine(a.writer, a.logger, nil)
	r := runner.New(a.cfg, b, store, relevance.NewFilter(a.logger), engine,
		a.writer, a.logger, metrics, nil)
	syncer := stats.NewSyncer(a.reader, a.cfg.StatsPath(), a.logger)

	return scheduler.New(r, profiles, a.writer, syncer.Sync, a.logger, metrics,
		scheduler.Options{
			CronSpec:   a.cfg.CronSpec,
			Cooldown:   a.cfg.Cooldown,
			RunOnStart: a.cfg.RunOnStart,
		})
}

// selectProfiles narrows the configured personas to the named ones.
// With no names, every configured persona is selected.
func (a *app) selectProfiles(names []string) ([]persona.Profile, error) {
	if len(names) == 0 {
		return a.profiles, nil
	}
	var out []persona.Profile
	for _, name := range names {
		p, err := persona.Find(a.profiles, name)
		if err != nil {
			return nil, fmt.Errorf("%w (configured: %v)", err, persona.Names(a.profiles))
		}
		out = append(out, p)
	}
	return out, nil
}
