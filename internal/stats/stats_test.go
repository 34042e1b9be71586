package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/testutil"
)

func TestComputeDailyScenario(t *testing.T) {
	lines := testutil.MustParseLines(t,
		"[2024-01-01 09:00:01] [LEARN] persona=tech 学习 标题一: http://forum.test/post/a",
		"[2024-01-01 09:00:05] [LEARN] persona=tech 学习 标题二: http://forum.test/post/b",
		"[2024-01-01 09:01:00] [LEARN] persona=study 学习 标题三: http://forum.test/post/c",
		"[2024-01-01 09:02:00] [LEARN] persona=study 学习 标题四: http://forum.test/post/d",
		"[2024-01-01 09:03:00] [LEARN] persona=general 学习 标题五: http://forum.test/post/e",
		"[2024-01-01 09:00:09] [INTERACT] persona=tech 点赞成功",
		"[2024-01-01 09:01:20] [INTERACT] persona=study 评论成功: 很有帮助",
		"[2024-01-01 09:02:30] [INTERACT] persona=general 点赞失败",
		"[2024-01-01 09:05:00] [POST] persona=tech 发布新帖成功: http://forum.test/post/new",
	)
	day, _ := time.ParseInLocation("2006-01-02", "2024-01-01", time.Local)

	s := Compute(lines, []string{"tech", "study", "general"}, Day(day))

	if s.Visits != 5 || s.Interactions != 2 || s.Authored != 1 {
		t.Errorf("got visits=%d interactions=%d authored=%d, want 5/2/1",
			s.Visits, s.Interactions, s.Authored)
	}
	if s.LastUpdate == nil || s.LastUpdate.Format("15:04:05") != "09:05:00" {
		t.Errorf("LastUpdate = %v, want the latest line's timestamp", s.LastUpdate)
	}
	if got := s.Personas["tech"]; got != (PersonaStats{Visits: 2, Interactions: 1, Authored: 1}) {
		t.Errorf("tech bucket = %+v", got)
	}
	if got := s.Personas["general"]; got != (PersonaStats{Visits: 1}) {
		t.Errorf("general bucket = %+v (failed interaction must not count)", got)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	lines := testutil.MustParseLines(t,
		"[2024-01-01 10:00:00] [LEARN] persona=tech 学习 x: http://forum.test/post/a",
		"[2024-01-01 10:01:00] [INTERACT] persona=tech 点赞成功",
	)
	first := Compute(lines, []string{"tech"}, nil)
	second := Compute(lines, []string{"tech"}, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Compute over unchanged lines diverged:\n%+v\n%+v", first, second)
	}
}

func TestComputeEmptyJournal(t *testing.T) {
	s := Compute(nil, []string{"tech"}, nil)
	if s.Visits != 0 || s.Interactions != 0 || s.Authored != 0 || s.Logins != 0 || s.Cycles != 0 {
		t.Errorf("empty journal produced nonzero counters: %+v", s)
	}
	if s.LastUpdate != nil {
		t.Errorf("LastUpdate = %v, want nil", s.LastUpdate)
	}
}

func TestComputeWindowExcludesOtherDays(t *testing.T) {
	lines := testutil.MustParseLines(t,
		"[2024-01-01 10:00:00] [LEARN] 学习 x: http://forum.test/post/a",
		"[2024-01-02 10:00:00] [LEARN] 学习 y: http://forum.test/post/b",
	)
	day, _ := time.ParseInLocation("2006-01-02", "2024-01-02", time.Local)
	s := Compute(lines, nil, Day(day))
	if s.Visits != 1 {
		t.Errorf("visits = %d, want only the in-window line", s.Visits)
	}
}

func TestComputeCountsLoginsAndCycles(t *testing.T) {
	lines := testutil.MustParseLines(t,
		"[2024-01-01 09:00:00] [SCHEDULER] 开始执行 3 个Bot",
		"[2024-01-01 09:00:01] [LOGIN] persona=tech 登录成功",
		"[2024-01-01 09:10:00] [SCHEDULER] 全部Bot执行完成",
		"[2024-01-01 10:00:00] [SCHEDULER] 开始执行 3 个Bot",
	)
	s := Compute(lines, nil, nil)
	if s.Cycles != 2 {
		t.Errorf("cycles = %d, want 2 cycle starts", s.Cycles)
	}
	if s.Logins != 1 {
		t.Errorf("logins = %d, want 1", s.Logins)
	}
}

func TestComputeSplitsUntaggedEvenly(t *testing.T) {
	var raw []string
	for i := 0; i < 7; i++ {
		raw = append(raw, fmt.Sprintf("[2024-01-01 09:00:%02d] [LEARN] 学习 x: http://forum.test/post/a", i))
	}
	s := Compute(testutil.MustParseLines(t, raw...), []string{"tech", "study", "general"}, nil)

	if s.Personas["tech"].Visits != 2 || s.Personas["study"].Visits != 2 {
		t.Errorf("even split gave tech=%d study=%d, want 2 each",
			s.Personas["tech"].Visits, s.Personas["study"].Visits)
	}
	if s.Personas["general"].Visits != 3 {
		t.Errorf("remainder goes to the last persona, general=%d want 3",
			s.Personas["general"].Visits)
	}
}

func TestSyncWritesRollingSnapshot(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "bot.log")
	snapPath := filepath.Join(dir, "stats.json")

	now := time.Now()
	day := now.Format("2006-01-02")
	content := "[" + day + " 09:00:00] [LEARN] persona=tech 学习 x: http://forum.test/post/a\n" +
		"[" + day + " 09:00:01] [INTERACT] persona=tech 点赞成功\n"
	if err := os.WriteFile(journalPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	syncer := NewSyncer(journal.NewReader(journalPath), snapPath, nil)
	if err := syncer.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := syncer.Sync(); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	snap := LoadSnapshot(snapPath)
	if len(snap.Daily) != 1 {
		t.Fatalf("snapshot has %d entries after two syncs of one day, want 1", len(snap.Daily))
	}
	entry := snap.Daily[0]
	if entry.Date != day || entry.Visits != 1 || entry.Replies != 1 || entry.NewPosts != 0 {
		t.Errorf("entry = %+v", entry)
	}
	if snap.LastSync == nil {
		t.Error("LastSync not recorded")
	}
}

func TestSnapshotRetentionTrims(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "stats.json")

	old := Snapshot{}
	for i := 0; i < 40; i++ {
		old.Daily = append(old.Daily, DailyEntry{
			Date: time.Now().AddDate(0, 0, -40+i).Format("2006-01-02"),
		})
	}
	data, _ := json.Marshal(old)
	if err := os.WriteFile(snapPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	syncer := NewSyncer(journal.NewReader(filepath.Join(dir, "bot.log")), snapPath, nil)
	if err := syncer.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	snap := LoadSnapshot(snapPath)
	if len(snap.Daily) != snapshotDays {
		t.Errorf("retention kept %d entries, want %d", len(snap.Daily), snapshotDays)
	}
	if snap.Daily[len(snap.Daily)-1].Date != time.Now().Format("2006-01-02") {
		t.Errorf("newest entry is %q, want today", snap.Daily[len(snap.Daily)-1].Date)
	}
}
