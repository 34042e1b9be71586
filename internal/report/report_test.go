package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/persona"
	"github.com/moltbook/moltbot/internal/testutil"
)

func TestGenerateCountsWindow(t *testing.T) {
	dir := t.TempDir()
	today := time.Now().Format("2006-01-02")
	reader := testutil.WriteJournal(t, dir,
		"["+today+" 09:00:00] [LEARN] persona=tech 学习 标题: http://forum.test/post/a",
		"["+today+" 09:00:05] [LEARN] persona=tech 学习 标题: http://forum.test/post/b",
		"["+today+" 09:01:00] [INTERACT] persona=tech 点赞成功",
		"[2020-05-05 09:00:00] [LEARN] persona=tech 学习 老帖: http://forum.test/post/z",
	)

	g := NewGenerator(reader, persona.Defaults(), filepath.Join(dir, "daily-report.html"), nil)
	data, html, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if data.Global.Visits != 2 || data.Global.Interactions != 1 {
		t.Errorf("window stats = %d visits, %d interactions, want 2/1",
			data.Global.Visits, data.Global.Interactions)
	}
	if !strings.Contains(html, "每日学习报告") {
		t.Error("rendered HTML is missing the report heading")
	}
	if !strings.Contains(html, "技术学习Bot") {
		t.Error("rendered HTML is missing the persona sections")
	}
}

func TestGenerateEmptyJournalSuggests(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(journal.NewReader(filepath.Join(dir, "bot.log")),
		persona.Defaults(), filepath.Join(dir, "daily-report.html"), nil)

	data, html, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate on an empty journal: %v", err)
	}
	if data.Global.Visits != 0 {
		t.Errorf("visits = %d, want 0", data.Global.Visits)
	}
	if len(data.Skills) != 0 {
		t.Errorf("skills = %v, want none without activity", data.Skills)
	}
	if len(data.Suggestions) == 0 {
		t.Error("empty journal must still yield suggestions")
	}
	if !strings.Contains(html, "暂无学习数据") {
		t.Error("skills placeholder missing from rendered HTML")
	}
}

func TestSaveWritesReportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "daily-report.html")
	g := NewGenerator(journal.NewReader(filepath.Join(dir, "bot.log")),
		persona.Defaults(), path, nil)

	html, err := g.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if string(written) != html {
		t.Error("Save returned different HTML than it wrote")
	}
}

func TestSkillStars(t *testing.T) {
	cases := []struct {
		level float64
		want  string
	}{
		{0, "☆☆☆☆☆"},
		{0.3, "⭐☆☆☆☆"},
		{2, "⭐⭐☆☆☆"},
		{5, "⭐⭐⭐⭐⭐"},
		{9, "⭐⭐⭐⭐⭐"},
	}
	for _, tc := range cases {
		if got := (Skill{Level: tc.level}).Stars(); got != tc.want {
			t.Errorf("Stars(%v) = %q, want %q", tc.level, got, tc.want)
		}
	}
}
