// Package dashboard serves the read-only monitoring UI and API.
package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/stats"
)

//go:embed index.html.tmpl
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

const (
	maxPosts    = 50
	maxActivity = 30
)

var postURLRe = regexp.MustCompile(`https?://[^\s]*post/[a-zA-Z0-9-]+`)

// Post is one visited-post row.
type Post struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Time  string `json:"time"`
}

// ShortTime is the clock portion shown in the UI list.
func (p Post) ShortTime() string {
	if len(p.Time) >= 16 {
		return p.Time[11:16]
	}
	return p.Time
}

// Server is the dashboard HTTP server. It only ever reads the journal.
type Server struct {
	addr     string
	reader   *journal.Reader
	personas []string
	logger   *slog.Logger

	mu      sync.Mutex
	cached  *stats.Stats
	nocache bool

	httpSrv *http.Server
}

// NewServer creates a dashboard server bound to addr.
func NewServer(addr string, reader *journal.Reader, personas []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, reader: reader, personas: personas, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/posts", s.handlePosts)
	mux.HandleFunc("GET /api/activity", s.handleActivity)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start serves until ctx is canceled, then shuts down gracefully. A
// journal file watcher keeps the stats cache fresh without re-reading
// the file on every request.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go s.watchJournal(watchCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", s.addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard: shutdown: %w", err)
	}
	return nil
}

// watchJournal invalidates the stats cache whenever the journal file
// changes. The directory is watched because the file may not exist yet
// when the dashboard starts.
func (s *Server) watchJournal(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("journal watcher unavailable, stats are computed per request", "error", err)
		s.invalidateAlways()
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(s.reader.Path())
	if err := watcher.Add(dir); err != nil {
		s.logger.Warn("journal watcher unavailable, stats are computed per request", "error", err)
		s.invalidateAlways()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name == s.reader.Path() {
				s.invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("journal watcher error", "error", err)
		}
	}
}

func (s *Server) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// invalidateAlways disables caching entirely when no watcher can run.
func (s *Server) invalidateAlways() {
	s.mu.Lock()
	s.cached = nil
	s.nocache = true
	s.mu.Unlock()
}

func (s *Server) currentStats() (stats.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && !s.nocache {
		return *s.cached, nil
	}
	lines, err := s.reader.Lines()
	if err != nil {
		return stats.Stats{}, err
	}
	computed := stats.Compute(lines, s.personas, nil)
	s.cached = &computed
	return computed, nil
}

func (s *Server) visitedPosts() ([]Post, error) {
	lines, err := s.reader.Lines()
	if err != nil {
		return nil, err
	}
	var posts []Post
	seen := make(map[string]struct{})
	for _, l := range lines {
		if l.Kind != journal.KindLearn {
			continue
		}
		url := postURLRe.FindString(l.Detail)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		posts = append(posts, Post{
			URL:   url,
			Title: postTitle(l.Detail, url),
			Time:  l.Time.Format(journal.TimeLayout),
		})
	}
	// Newest first, bounded.
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	if len(posts) > maxPosts {
		posts = posts[:maxPosts]
	}
	return posts, nil
}

// postTitle recovers the post title from a LEARN detail, falling back
// to the post ID for journals written by older versions.
func postTitle(detail, url string) string {
	if _, after, ok := strings.Cut(detail, "学习 "); ok {
		if title, found := strings.CutSuffix(after, ": "+url); found && title != "" {
			return title
		}
	}
	if i := strings.LastIndex(url, "/"); i >= 0 && i+1 < len(url) {
		id := url[i+1:]
		if len(id) > 8 {
			id = id[:8] + "..."
		}
		return "帖子 " + id
	}
	return "帖子"
}

func (s *Server) recentActivity() ([]string, error) {
	raw, err := s.reader.Tail(maxActivity)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	return raw, nil
}

type activityRow struct {
	Time    string
	Content string
}

type pageData struct {
	Stats      stats.Stats
	Posts      []Post
	Activity   []activityRow
	LastUpdate string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	st, err := s.currentStats()
	if err != nil {
		s.serveError(w, err)
		return
	}
	posts, err := s.visitedPosts()
	if err != nil {
		s.serveError(w, err)
		return
	}
	activity, err := s.recentActivity()
	if err != nil {
		s.serveError(w, err)
		return
	}

	data := pageData{Stats: st, Posts: posts, LastUpdate: "等待中..."}
	if st.LastUpdate != nil {
		data.LastUpdate = st.LastUpdate.Format(journal.TimeLayout)
	}
	for _, raw := range activity {
		if l, ok := journal.Parse(raw); ok {
			data.Activity = append(data.Activity, activityRow{
				Time:    l.Time.Format(journal.TimeLayout),
				Content: "[" + string(l.Kind) + "] " + l.Detail,
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.logger.Error("index render failed", "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	st, err := s.currentStats()
	if err != nil {
		s.serveError(w, err)
		return
	}
	s.serveJSON(w, st)
}

func (s *Server) handlePosts(w http.ResponseWriter, _ *http.Request) {
	posts, err := s.visitedPosts()
	if err != nil {
		s.serveError(w, err)
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	s.serveJSON(w, posts)
}

func (s *Server) handleActivity(w http.ResponseWriter, _ *http.Request) {
	activity, err := s.recentActivity()
	if err != nil {
		s.serveError(w, err)
		return
	}
	if activity == nil {
		activity = []string{}
	}
	s.serveJSON(w, activity)
}

func (s *Server) serveJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) serveError(w http.ResponseWriter, err error) {
	s.logger.Error("dashboard request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
