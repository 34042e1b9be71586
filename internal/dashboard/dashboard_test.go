package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/stats"
)

func newTestServer(t *testing.T, journalContent string) *Server {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.log")
	if journalContent != "" {
		if err := os.WriteFile(path, []byte(journalContent), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return NewServer(":0", journal.NewReader(path), []string{"tech", "study", "general"}, nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

const sampleJournal = `[2024-01-01 09:00:00] [LEARN] persona=tech 学习 Go并发模式: http://forum.test/post/abc
[2024-01-01 09:00:05] [LEARN] persona=tech 学习 数据库优化: http://forum.test/post/def
[2024-01-01 09:00:09] [INTERACT] persona=tech 点赞成功
[2024-01-01 09:05:00] [POST] persona=tech 发布新帖成功: http://forum.test/post/new
`

func TestIndexRendersStats(t *testing.T) {
	s := newTestServer(t, sampleJournal)
	rec := get(t, s.Handler(), "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "监控面板") {
		t.Error("page heading missing")
	}
	if !strings.Contains(body, "Go并发模式") {
		t.Error("visited post titles missing")
	}
	if !strings.Contains(body, "2024-01-01 09:05:00") {
		t.Error("last update timestamp missing")
	}
}

func TestIndexEmptyJournalShowsPlaceholders(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s.Handler(), "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, placeholder := range []string{"暂无帖子记录", "暂无活动记录", "等待中..."} {
		if !strings.Contains(body, placeholder) {
			t.Errorf("placeholder %q missing from empty dashboard", placeholder)
		}
	}
}

func TestAPIStats(t *testing.T) {
	s := newTestServer(t, sampleJournal)
	rec := get(t, s.Handler(), "/api/stats")

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/stats = %d", rec.Code)
	}
	var got stats.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Visits != 2 || got.Interactions != 1 || got.Authored != 1 {
		t.Errorf("stats = %+v, want 2 visits, 1 interaction, 1 authored", got)
	}
}

func TestAPIPostsNewestFirstDeduplicated(t *testing.T) {
	content := sampleJournal +
		"[2024-01-01 10:00:00] [LEARN] persona=study 学习 Go并发模式: http://forum.test/post/abc\n"
	s := newTestServer(t, content)
	rec := get(t, s.Handler(), "/api/posts")

	var posts []Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2 after dedup", len(posts))
	}
	if posts[0].URL != "http://forum.test/post/def" {
		t.Errorf("first post = %q, want newest distinct URL first", posts[0].URL)
	}
	if posts[0].Title != "数据库优化" {
		t.Errorf("title = %q", posts[0].Title)
	}
}

func TestAPIActivityNewestFirst(t *testing.T) {
	s := newTestServer(t, sampleJournal)
	rec := get(t, s.Handler(), "/api/activity")

	var activity []string
	if err := json.Unmarshal(rec.Body.Bytes(), &activity); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(activity) != 4 {
		t.Fatalf("got %d activity rows, want 4", len(activity))
	}
	if !strings.Contains(activity[0], "[POST]") {
		t.Errorf("newest line first, got %q", activity[0])
	}
}

func TestAPIEmptyJournalReturnsEmptyArrays(t *testing.T) {
	s := newTestServer(t, "")
	for _, path := range []string{"/api/posts", "/api/activity"} {
		rec := get(t, s.Handler(), path)
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("GET %s = %q, want empty JSON array", path, body)
		}
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s.Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d", rec.Code)
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s.Handler(), "/api/delete-everything")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d, want 404", rec.Code)
	}
}

func TestPostTitleFallsBackToID(t *testing.T) {
	got := postTitle("persona=tech visited", "http://forum.test/post/abcdefgh1234")
	if got != "帖子 abcdefgh..." {
		t.Errorf("fallback title = %q", got)
	}
}
