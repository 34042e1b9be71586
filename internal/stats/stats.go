// Package stats derives activity metrics from the journal. The journal
// is the source of truth; everything here is a pure recomputation over
// its lines, plus a small side snapshot for day-over-day history.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/moltbook/moltbot/internal/journal"
)

// dateLayout is the day prefix of journal timestamps.
const dateLayout = "2006-01-02"

// snapshotDays bounds the rolling daily history kept in stats.json.
const snapshotDays = 30

// Window selects journal lines by calendar date. A nil Window admits
// every line.
type Window map[string]struct{}

// Day returns a window covering the single calendar date of t.
func Day(t time.Time) Window {
	return Window{t.Format(dateLayout): {}}
}

// LastHours returns a window of the calendar dates that can carry
// events from the past hours, following the day-granular cut of the
// original report tooling.
func LastHours(now time.Time, hours int) Window {
	w := Window{}
	for i := 0; i <= hours/24; i++ {
		w[now.Add(-time.Duration(i)*24*time.Hour).Format(dateLayout)] = struct{}{}
	}
	return w
}

// Contains reports whether t falls on one of the window's dates.
func (w Window) Contains(t time.Time) bool {
	if w == nil {
		return true
	}
	_, ok := w[t.Format(dateLayout)]
	return ok
}

// PersonaStats are the per-persona counters. JSON field names follow
// the dashboard API the original consumers expect.
type PersonaStats struct {
	Visits       int `json:"posts"`
	Interactions int `json:"interactions"`
	Authored     int `json:"newPosts"`
}

// Stats is the aggregate view of a journal window.
type Stats struct {
	Visits       int                     `json:"posts"`
	Interactions int                     `json:"interactions"`
	Authored     int                     `json:"newPosts"`
	Logins       int                     `json:"logins"`
	Cycles       int                     `json:"cycles"`
	LastUpdate   *time.Time              `json:"lastUpdate"`
	Personas     map[string]PersonaStats `json:"personas,omitempty"`
}

// Compute aggregates journal lines within the window. It is pure:
// same lines, same window, same result.
//
// Per-persona attribution uses the persona= tag on tagged lines.
// Untagged volume events (journals written before tagging existed) are
// split evenly across the known personas, with the remainder going to
// the last persona. The per-persona numbers for such journals are an
// approximation and may not sum exactly to a tagged-only recount.
func Compute(lines []journal.Line, personas []string, w Window) Stats {
	s := Stats{}
	if len(personas) > 0 {
		s.Personas = make(map[string]PersonaStats, len(personas))
		for _, p := range personas {
			s.Personas[p] = PersonaStats{}
		}
	}
	var untagged PersonaStats

	for _, l := range lines {
		if !w.Contains(l.Time) {
			continue
		}
		if s.LastUpdate == nil || l.Time.After(*s.LastUpdate) {
			t := l.Time
			s.LastUpdate = &t
		}

		switch l.Kind {
		case journal.KindLearn:
			s.Visits++
			s.attribute(l, &untagged, func(ps *PersonaStats) { ps.Visits++ })
		case journal.KindInteract:
			if strings.Contains(l.Detail, journal.SuccessMarker) {
				s.Interactions++
				s.attribute(l, &untagged, func(ps *PersonaStats) { ps.Interactions++ })
			}
		case journal.KindPost:
			if strings.Contains(l.Detail, journal.SuccessMarker) {
				s.Authored++
				s.attribute(l, &untagged, func(ps *PersonaStats) { ps.Authored++ })
			}
		case journal.KindLogin:
			if strings.Contains(l.Detail, journal.SuccessMarker) {
				s.Logins++
			}
		case journal.KindScheduler:
			if strings.Contains(l.Detail, journal.CycleStartMarker) {
				s.Cycles++
			}
		}
	}

	s.splitUntagged(personas, untagged)
	return s
}

func (s *Stats) attribute(l journal.Line, untagged *PersonaStats, bump func(*PersonaStats)) {
	name := l.Persona()
	if name == "" || s.Personas == nil {
		bump(untagged)
		return
	}
	ps, ok := s.Personas[name]
	if !ok {
		// Tagged with a persona no longer configured: treat as untagged
		// volume rather than invent a bucket.
		bump(untagged)
		return
	}
	bump(&ps)
	s.Personas[name] = ps
}

func (s *Stats) splitUntagged(personas []string, untagged PersonaStats) {
	n := len(personas)
	if n == 0 || (untagged == PersonaStats{}) {
		return
	}
	assigned := PersonaStats{}
	for i, name := range personas {
		ps := s.Personas[name]
		if i == n-1 {
			ps.Visits += untagged.Visits - assigned.Visits
			ps.Interactions += untagged.Interactions - assigned.Interactions
			ps.Authored += untagged.Authored - assigned.Authored
		} else {
			share := PersonaStats{
				Visits:       untagged.Visits / n,
				Interactions: untagged.Interactions / n,
				Authored:     untagged.Authored / n,
			}
			ps.Visits += share.Visits
			ps.Interactions += share.Interactions
			ps.Authored += share.Authored
			assigned.Visits += share.Visits
			assigned.Interactions += share.Interactions
			assigned.Authored += share.Authored
		}
		s.Personas[name] = ps
	}
}

// DailyEntry is one day's counters in the snapshot file.
type DailyEntry struct {
	Date     string `json:"date"`
	Visits   int    `json:"posts"`
	Replies  int    `json:"replies"`
	NewPosts int    `json:"newPosts"`
}

// Snapshot is the rolling stats.json side file. It is subordinate to
// the journal: Sync overwrites today's entry from a fresh recount, and
// a lost snapshot is fully reconstructible.
type Snapshot struct {
	Daily    []DailyEntry `json:"daily"`
	LastSync *time.Time   `json:"lastSync"`
}

// LoadSnapshot reads the snapshot file. A missing or unreadable file
// yields an empty snapshot.
func LoadSnapshot(path string) Snapshot {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}
	}
	return snap
}

// Syncer recomputes today's counters from the journal and folds them
// into the rolling snapshot.
type Syncer struct {
	reader *journal.Reader
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncer creates a syncer writing the snapshot at path.
func NewSyncer(r *journal.Reader, path string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{reader: r, path: path, logger: logger, now: time.Now}
}

// Sync rewrites today's snapshot entry and trims the history to the
// rolling retention.
func (s *Syncer) Sync() error {
	lines, err := s.reader.Lines()
	if err != nil {
		return fmt.Errorf("stats: sync: %w", err)
	}
	now := s.now()
	today := Compute(lines, nil, Day(now))

	snap := LoadSnapshot(s.path)
	entry := DailyEntry{
		Date:     now.Format(dateLayout),
		Visits:   today.Visits,
		Replies:  today.Interactions,
		NewPosts: today.Authored,
	}
	replaced := false
	for i := range snap.Daily {
		if snap.Daily[i].Date == entry.Date {
			snap.Daily[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		snap.Daily = append(snap.Daily, entry)
	}
	sort.Slice(snap.Daily, func(i, j int) bool { return snap.Daily[i].Date < snap.Daily[j].Date })
	if len(snap.Daily) > snapshotDays {
		snap.Daily = snap.Daily[len(snap.Daily)-snapshotDays:]
	}
	snap.LastSync = &now

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("stats: write snapshot: %w", err)
	}
	s.logger.Info("stats snapshot synced",
		"date", entry.Date,
		"visits", entry.Visits,
		"replies", entry.Replies,
		"new_posts", entry.NewPosts)
	return nil
}
