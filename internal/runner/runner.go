// Package runner drives one persona through one work cycle:
// authenticate, browse, react, and occasionally author a new post.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/moltbook/moltbot/internal/browser"
	"github.com/moltbook/moltbot/internal/config"
	"github.com/moltbook/moltbot/internal/interact"
	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/persona"
	"github.com/moltbook/moltbot/internal/relevance"
	"github.com/moltbook/moltbot/internal/session"
	"github.com/moltbook/moltbot/internal/telemetry"
)

// State is the runner's position in its cycle state machine.
type State string

const (
	StateIdle           State = "idle"
	StateAuthenticating State = "authenticating"
	StateBrowsing       State = "browsing"
	StateActing         State = "acting"
	StateAuthoring      State = "authoring"
	StateDone           State = "done"
	StateErrored        State = "errored"
)

// discoveryCap bounds how many listing links one cycle considers.
const discoveryCap = 30

// postBodies is the canned body pool for authored posts.
var postBodies = []string{
	"今天学到了很多，分享给大家。",
	"这是一个测试帖子，欢迎大家交流。",
	"分享一下今天的收获和感悟。",
	"最近在研究这个话题，欢迎大家讨论。",
}

// Runner executes persona work cycles.
type Runner struct {
	cfg      config.Config
	browser  browser.Browser
	sessions *session.Store
	filter   *relevance.Filter
	engine   *interact.Engine
	journal  *journal.Writer
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	rnd      interact.Rand
	now      func() time.Time
}

// New creates a persona runner. metrics and rnd may be nil.
func New(
	cfg config.Config,
	b browser.Browser,
	sessions *session.Store,
	filter *relevance.Filter,
	engine *interact.Engine,
	j *journal.Writer,
	logger *slog.Logger,
	metrics *telemetry.Metrics,
	rnd interact.Rand,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if rnd == nil {
		rnd = interact.SystemRand()
	}
	return &Runner{
		cfg:      cfg,
		browser:  b,
		sessions: sessions,
		filter:   filter,
		engine:   engine,
		journal:  j,
		logger:   logger,
		metrics:  metrics,
		rnd:      rnd,
		now:      time.Now,
	}
}

// Run executes one work cycle for the persona and returns its terminal
// state. Failures below the persona level (one item, one form) are
// contained here; only a failed session or an unopenable page ends the
// cycle in StateErrored.
func (r *Runner) Run(ctx context.Context, prof persona.Profile) (State, error) {
	log := telemetry.PersonaLogger(r.logger, ctx, prof.Name)
	tag := journal.PersonaTag(prof.Name)

	page, err := r.browser.NewPage(ctx)
	if err != nil {
		return StateErrored, fmt.Errorf("runner: open page: %w", err)
	}
	// The browsing session is released on every exit path.
	defer page.Close()

	// AUTHENTICATING
	if _, err := r.sessions.Ensure(ctx, page); err != nil {
		r.journal.Record(journal.KindLogin, fmt.Sprintf("%s 登录失败: %v", tag, err))
		log.Error("authentication failed, persona cycle ends", "error", err)
		return StateErrored, err
	}

	// BROWSING
	targets, err := r.discover(ctx, page, prof)
	if err != nil {
		log.Error("listing surface unreachable, persona cycle ends", "error", err)
		return StateErrored, err
	}
	log.Info("targets selected", "count", len(targets), "quota", prof.ReadQuota)

	// ACTING, once per selected item
	for i, target := range targets {
		if ctx.Err() != nil {
			return StateErrored, ctx.Err()
		}
		if err := r.visit(ctx, page, prof, target); err != nil {
			log.Warn("item skipped", "url", target, "index", i, "error", err)
			continue
		}
	}

	// AUTHORING, gated by one Bernoulli draw
	if len(prof.Topics) > 0 && r.rnd.Float64() < prof.AuthoringProbability {
		r.author(ctx, page, prof, log)
	}

	return StateDone, nil
}

// discover loads the listing surface and selects the persona's
// targets, applying the read quota after relevance filtering.
func (r *Runner) discover(ctx context.Context, page browser.Page, prof persona.Profile) ([]string, error) {
	if err := page.Navigate(ctx, r.cfg.ForumURL); err != nil {
		return nil, err
	}
	links, err := r.harvestLinks(ctx, page)
	if err != nil {
		return nil, err
	}
	selected := r.filter.Select(ctx, page, links, prof)
	if len(selected) > prof.ReadQuota {
		selected = selected[:prof.ReadQuota]
	}
	return selected, nil
}

// harvestLinks reads the content item links off the current listing
// surface: absolutized, deduplicated, in listing order, capped.
func (r *Runner) harvestLinks(ctx context.Context, page browser.Page) ([]string, error) {
	els, err := page.LocateAll(ctx, browser.IntentPostLink)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(r.cfg.ForumURL)
	if err != nil {
		return nil, fmt.Errorf("runner: forum url: %w", err)
	}

	seen := make(map[string]bool)
	var links []string
	for _, el := range els {
		href, ok, err := el.Attr(ctx, "href")
		if err != nil || !ok || href == "" {
			continue
		}
		ref, err := base.Parse(href)
		if err != nil {
			continue
		}
		abs := ref.String()
		if seen[abs] || strings.Contains(abs, "/comment") {
			continue
		}
		seen[abs] = true
		links = append(links, abs)
		if len(links) >= discoveryCap {
			break
		}
	}
	return links, nil
}

// visit navigates to one item, journals the LEARN event, and lets the
// interaction engine react. A navigation failure skips just this item.
func (r *Runner) visit(ctx context.Context, page browser.Page, prof persona.Profile, target string) error {
	if err := page.Navigate(ctx, target); err != nil {
		return err
	}

	title := strings.TrimSpace(browser.ReadText(ctx, page, browser.IntentPostTitle))
	if title == "" {
		title = "无标题"
	}
	category := strings.TrimSpace(browser.ReadText(ctx, page, browser.IntentPostCategory))

	tag := journal.PersonaTag(prof.Name)
	if category != "" {
		r.journal.Record(journal.KindLearn, fmt.Sprintf("%s 学习 [%s] %s: %s", tag, category, title, target))
	} else {
		r.journal.Record(journal.KindLearn, fmt.Sprintf("%s 学习 %s: %s", tag, title, target))
	}
	r.countAction(prof.Name, "visit")

	out, err := r.engine.Interact(ctx, page, prof)
	if err != nil {
		return err
	}
	if out.Endorsed {
		r.countAction(prof.Name, "endorse")
	}
	if out.Commented {
		r.countAction(prof.Name, "comment")
	}
	return nil
}

// author composes and submits a new post. Missing form fields are a
// logged skip, never an error; only a confirmed submission produces a
// POST event.
func (r *Runner) author(ctx context.Context, page browser.Page, prof persona.Profile, log *slog.Logger) {
	composeURL := r.cfg.ForumURL + "/post/create"
	if err := page.Navigate(ctx, composeURL); err != nil {
		log.Warn("compose surface unreachable, authoring skipped", "error", err)
		return
	}

	titleField, foundTitle, err := page.Locate(ctx, browser.IntentComposeTitle)
	if err != nil {
		log.Warn("compose probe failed", "error", err)
		return
	}
	bodyField, foundBody, err := page.Locate(ctx, browser.IntentComposeBody)
	if err != nil {
		log.Warn("compose probe failed", "error", err)
		return
	}
	if !foundTitle || !foundBody {
		log.Info("compose form not found, authoring skipped")
		return
	}

	title := prof.Topics[r.rnd.IntN(len(prof.Topics))] + " - " + r.now().Format("2006/01/02")
	body := postBodies[r.rnd.IntN(len(postBodies))]

	if err := titleField.Fill(ctx, title); err != nil {
		log.Warn("compose title fill failed, authoring skipped", "error", err)
		return
	}
	if err := bodyField.Fill(ctx, body); err != nil {
		log.Warn("compose body fill failed, authoring skipped", "error", err)
		return
	}

	submit, found, err := page.Locate(ctx, browser.IntentComposeSubmit)
	if err != nil || !found {
		log.Info("compose submit not found, authoring skipped")
		return
	}
	if err := submit.Click(ctx); err != nil {
		log.Warn("compose submit failed, authoring skipped", "error", err)
		return
	}

	current, err := page.CurrentURL(ctx)
	if err != nil || current == composeURL || !strings.Contains(current, "/post/") {
		log.Info("post-submit location indeterminate, no POST event", "url", current)
		return
	}

	r.journal.Record(journal.KindPost,
		fmt.Sprintf("%s 发布新帖%s: %s", journal.PersonaTag(prof.Name), journal.SuccessMarker, current))
	r.countAction(prof.Name, "author")
	log.Info("authored new post", "url", current, "title", title)
}

func (r *Runner) countAction(personaName, action string) {
	if r.metrics != nil {
		r.metrics.ActionsTotal.WithLabelValues(personaName, action).Inc()
	}
}
