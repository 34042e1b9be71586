// Package interact decides and performs a persona's reactions to one
// content item: endorsements and canned-but-topical commentary.
package interact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/moltbook/moltbot/internal/browser"
	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/persona"
)

// Outcome reports what Interact actually did.
type Outcome struct {
	Endorsed  bool
	Commented bool
	Comment   string
}

// Engine performs probabilistic interactions on the current item.
type Engine struct {
	journal *journal.Writer
	logger  *slog.Logger
	rnd     Rand
}

// NewEngine creates an interaction engine. A nil rnd uses the system
// source.
func NewEngine(j *journal.Writer, logger *slog.Logger, rnd Rand) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if rnd == nil {
		rnd = SystemRand()
	}
	return &Engine{journal: j, logger: logger, rnd: rnd}
}

// Interact reacts to the item currently loaded on the page. One
// uniform draw against the persona's interaction probability gates the
// whole attempt, so a probability of zero never produces an event.
// Missing affordances are skips, not errors; every performed action is
// journaled with the literal text used.
func (e *Engine) Interact(ctx context.Context, page browser.Page, prof persona.Profile) (Outcome, error) {
	var out Outcome
	if e.rnd.Float64() >= prof.InteractionProbability {
		return out, nil
	}

	title := browser.ReadText(ctx, page, browser.IntentPostTitle)
	body := browser.ReadText(ctx, page, browser.IntentPostBody)
	tag := journal.PersonaTag(prof.Name)

	if upvote, found, err := page.Locate(ctx, browser.IntentUpvote); err == nil && found {
		if err := upvote.Click(ctx); err != nil {
			e.logger.Debug("endorse click failed", "persona", prof.Name, "error", err)
		} else {
			out.Endorsed = true
			e.journal.Record(journal.KindInteract, fmt.Sprintf("%s 点赞%s", tag, journal.SuccessMarker))
		}
	}

	comment, err := e.comment(ctx, page, prof, title+" "+body)
	if err != nil {
		return out, err
	}
	if comment != "" {
		out.Commented = true
		out.Comment = comment
		e.journal.Record(journal.KindInteract, fmt.Sprintf("%s 评论%s: %s", tag, journal.SuccessMarker, comment))
	}
	return out, nil
}

// comment opens the reply affordance, generates a topical reply, and
// submits it. The returned text is empty when any expected control is
// absent.
func (e *Engine) comment(ctx context.Context, page browser.Page, prof persona.Profile, itemText string) (string, error) {
	open, found, err := page.Locate(ctx, browser.IntentCommentOpen)
	if err != nil || !found {
		return "", err
	}
	if err := open.Click(ctx); err != nil {
		e.logger.Debug("comment affordance click failed", "persona", prof.Name, "error", err)
		return "", nil
	}

	input, found, err := page.Locate(ctx, browser.IntentCommentInput)
	if err != nil || !found {
		return "", err
	}
	reply := GenerateReply(e.rnd, itemText)
	if err := input.Fill(ctx, reply); err != nil {
		e.logger.Debug("comment fill failed", "persona", prof.Name, "error", err)
		return "", nil
	}

	submit, found, err := page.Locate(ctx, browser.IntentCommentSubmit)
	if err != nil || !found {
		return "", err
	}
	if err := submit.Click(ctx); err != nil {
		e.logger.Debug("comment submit failed", "persona", prof.Name, "error", err)
		return "", nil
	}
	return reply, nil
}
