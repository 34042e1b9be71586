// Package testutil provides shared test helpers to reduce boilerplate across unit tests.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moltbook/moltbot/internal/journal"
)

// WriteJournal writes raw journal lines to a fresh file under dir and
// returns a reader over it.
func WriteJournal(t *testing.T, dir string, lines ...string) *journal.Reader {
	t.Helper()
	path := filepath.Join(dir, "bot.log")
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write journal fixture: %v", err)
	}
	return journal.NewReader(path)
}

// MustParseLines parses raw journal lines, failing the test on any
// malformed fixture.
func MustParseLines(t *testing.T, raw ...string) []journal.Line {
	t.Helper()
	var lines []journal.Line
	for _, r := range raw {
		l, ok := journal.Parse(r)
		if !ok {
			t.Fatalf("fixture line does not parse: %q", r)
		}
		lines = append(lines, l)
	}
	return lines
}

// AssertErrorIs asserts that err wraps target.
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got %v", target, err)
	}
}

// AssertErrorContains asserts that err is non-nil and its message contains substr.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got %q", substr, err.Error())
	}
}
