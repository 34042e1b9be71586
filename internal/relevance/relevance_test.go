package relevance

import (
	"context"
	"fmt"
	"testing"

	"github.com/moltbook/moltbot/internal/browser"
	"github.com/moltbook/moltbot/internal/browser/browsertest"
	"github.com/moltbook/moltbot/internal/persona"
)

func links(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("http://forum.test/post/p%d", i)
	}
	return out
}

func TestSelectNoFocusKeywords(t *testing.T) {
	f := NewFilter(nil)
	page := browsertest.NewPage()
	prof := persona.Profile{Name: "general", ReadQuota: 3}

	got := f.Select(context.Background(), page, links(10), prof)
	if len(got) != 3 {
		t.Fatalf("Select returned %d links, want 3", len(got))
	}
	// Listing order is preserved, no probing happened.
	if got[0] != "http://forum.test/post/p0" || got[2] != "http://forum.test/post/p2" {
		t.Errorf("Select reordered links: %v", got)
	}
	if len(page.NavLog) != 0 {
		t.Errorf("no-focus selection fetched %d pages, want 0", len(page.NavLog))
	}
}

func TestSelectPrefersMatches(t *testing.T) {
	f := NewFilter(nil)
	page := browsertest.NewPage()
	all := links(10)
	// Only items 2 and 5 talk about code.
	for i, link := range all {
		s := page.Surface(link)
		if i == 2 || i == 5 {
			s.SetText(browser.IntentPostTitle, "My CODE adventures")
		} else {
			s.SetText(browser.IntentPostTitle, "lunch thread")
		}
	}
	prof := persona.Profile{Name: "tech", ReadQuota: 5, FocusKeywords: []string{"code"}}

	got := f.Select(context.Background(), page, all, prof)
	if len(got) != 2 {
		t.Fatalf("Select returned %v, want the two matching links", got)
	}
	if got[0] != all[2] || got[1] != all[5] {
		t.Errorf("matches out of discovery order: %v", got)
	}
}

func TestSelectFallbackFillsQuota(t *testing.T) {
	f := NewFilter(nil)
	page := browsertest.NewPage()
	all := links(12)
	for _, link := range all {
		page.Surface(link).SetText(browser.IntentPostTitle, "nothing relevant here")
	}
	prof := persona.Profile{Name: "tech", ReadQuota: 4, FocusKeywords: []string{"code", "golang"}}

	got := f.Select(context.Background(), page, all, prof)
	if len(got) != 4 {
		t.Fatalf("fallback returned %d links, want read quota 4", len(got))
	}
	if got[0] != all[0] {
		t.Errorf("fallback should keep listing order, got %v", got)
	}
}

func TestSelectProbeIsBounded(t *testing.T) {
	f := NewFilter(nil)
	page := browsertest.NewPage()
	all := links(30)
	for _, link := range all {
		page.Surface(link).SetText(browser.IntentPostTitle, "no match")
	}
	prof := persona.Profile{Name: "tech", ReadQuota: 30, FocusKeywords: []string{"code"}}

	f.Select(context.Background(), page, all, prof)
	if len(page.NavLog) > probeLimit {
		t.Errorf("probed %d items, cap is %d", len(page.NavLog), probeLimit)
	}
}

func TestSelectSkipsUnreachableProbes(t *testing.T) {
	f := NewFilter(nil)
	page := browsertest.NewPage()
	all := links(3)
	page.FailNavigation(all[0])
	page.Surface(all[1]).SetText(browser.IntentPostBody, "learning go, writing code")
	page.Surface(all[2]).SetText(browser.IntentPostBody, "off topic")
	prof := persona.Profile{Name: "tech", ReadQuota: 3, FocusKeywords: []string{"code"}}

	got := f.Select(context.Background(), page, all, prof)
	if len(got) != 1 || got[0] != all[1] {
		t.Errorf("Select = %v, want just the reachable match", got)
	}
}

func TestMatches(t *testing.T) {
	if !Matches("Learning GoLang today", []string{"golang"}) {
		t.Error("case-insensitive match failed")
	}
	if Matches("nothing here", []string{"code"}) {
		t.Error("unexpected match")
	}
	if Matches("anything", nil) {
		t.Error("empty keyword set must never match")
	}
	if Matches("anything", []string{""}) {
		t.Error("blank keyword must not match everything")
	}
}
