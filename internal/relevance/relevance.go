// Package relevance selects which discovered content items a persona
// should visit, biased toward its focus keywords.
package relevance

import (
	"context"
	"log/slog"
	"strings"

	"github.com/moltbook/moltbot/internal/browser"
	"github.com/moltbook/moltbot/internal/persona"
)

// probeLimit bounds how many candidates are fetched in full for
// keyword matching. This is the explicit bandwidth-for-relevance
// tradeoff: at most probeLimit extra item fetches per persona cycle.
const probeLimit = 10

// Filter ranks candidate items against a persona's focus keywords.
type Filter struct {
	logger *slog.Logger
}

// NewFilter creates a relevance filter.
func NewFilter(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{logger: logger}
}

// Select returns the ordered item URLs the persona should visit.
//
// With no focus keywords the first ReadQuota discovered links are
// returned in listing order. With keywords, up to probeLimit links are
// fetched and matched case-insensitively against title+body; a
// non-empty matched subset is returned whole (the caller applies quota
// truncation), an empty one falls back to the unranked head so the
// persona always makes forward progress.
func (f *Filter) Select(ctx context.Context, page browser.Page, links []string, prof persona.Profile) []string {
	if len(prof.FocusKeywords) == 0 {
		return head(links, prof.ReadQuota)
	}

	var matched []string
	for _, link := range head(links, probeLimit) {
		if ctx.Err() != nil {
			break
		}
		if err := page.Navigate(ctx, link); err != nil {
			f.logger.Warn("relevance probe failed", "url", link, "error", err)
			continue
		}
		title := browser.ReadText(ctx, page, browser.IntentPostTitle)
		body := browser.ReadText(ctx, page, browser.IntentPostBody)
		if Matches(title+" "+body, prof.FocusKeywords) {
			matched = append(matched, link)
		}
	}

	if len(matched) > 0 {
		return matched
	}
	f.logger.Debug("no focused match in sample, using unranked fallback",
		"persona", prof.Name, "sampled", min(len(links), probeLimit))
	return head(links, prof.ReadQuota)
}

// Matches reports whether any keyword occurs in text,
// case-insensitively.
func Matches(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func head(links []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(links) > n {
		return links[:n]
	}
	return links
}
