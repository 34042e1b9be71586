// Package session maintains the durable authenticated forum session.
// The cookie file on disk is a checkpoint, not a second source of
// truth: it is revalidated with a liveness probe before every use.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/moltbook/moltbot/internal/browser"
	"github.com/moltbook/moltbot/internal/journal"
)

// ErrAuth marks a session that could not be established. It is fatal
// to one persona's cycle and to nothing else.
var ErrAuth = errors.New("session: authentication failed")

// State is the authoritative in-memory session state. At most one
// exists per process; it is recreated on every Ensure call.
type State struct {
	Authenticated bool
	Restored      bool
	Cookies       []browser.Cookie
	CapturedAt    time.Time
}

// Credentials identify the forum account shared by all personas.
type Credentials struct {
	Identity string
	Secret   string
}

// Store persists and restores the authenticated session.
type Store struct {
	path     string
	forumURL string
	creds    Credentials
	journal  *journal.Writer
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates a session store backed by the given cookie file.
func NewStore(path, forumURL string, creds Credentials, j *journal.Writer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:     path,
		forumURL: forumURL,
		creds:    creds,
		journal:  j,
		logger:   logger,
		now:      time.Now,
	}
}

// Ensure returns a validated session on the given page. It first tries
// to restore the persisted cookie set and probe it; only when that
// fails does it perform a full login. Ensure never panics past the
// caller: all failures come back as an error wrapping ErrAuth.
func (s *Store) Ensure(ctx context.Context, page browser.Page) (State, error) {
	if cookies, err := s.load(); err == nil && len(cookies) > 0 {
		if err := page.SetCookies(ctx, cookies); err != nil {
			s.logger.Warn("cookie injection failed, falling back to login", "error", err)
		} else if s.probe(ctx, page) {
			s.logger.Info("session restored from disk", "cookies", len(cookies))
			return State{
				Authenticated: true,
				Restored:      true,
				Cookies:       cookies,
				CapturedAt:    s.now(),
			}, nil
		} else {
			s.logger.Info("persisted session failed liveness probe, re-authenticating")
		}
	} else if err != nil {
		s.logger.Warn("cookie file unreadable, performing full login", "error", err)
	}

	return s.login(ctx, page)
}

// probe checks for an authenticated-only marker on the home surface.
func (s *Store) probe(ctx context.Context, page browser.Page) bool {
	if err := page.Navigate(ctx, s.forumURL); err != nil {
		return false
	}
	_, found, err := page.Locate(ctx, browser.IntentAuthMarker)
	return err == nil && found
}

// login performs full authentication against the login surface and
// persists the resulting cookie set.
func (s *Store) login(ctx context.Context, page browser.Page) (State, error) {
	if err := page.Navigate(ctx, s.forumURL+"/login"); err != nil {
		return State{}, fmt.Errorf("%w: login surface unreachable: %v", ErrAuth, err)
	}

	user, err := browser.Require(ctx, page, browser.IntentLoginUsername)
	if err != nil {
		return State{}, fmt.Errorf("%w: login form: %w", ErrAuth, err)
	}
	pass, err := browser.Require(ctx, page, browser.IntentLoginPassword)
	if err != nil {
		return State{}, fmt.Errorf("%w: login form: %w", ErrAuth, err)
	}

	if err := user.Fill(ctx, s.creds.Identity); err != nil {
		return State{}, fmt.Errorf("%w: fill identity: %v", ErrAuth, err)
	}
	if err := pass.Fill(ctx, s.creds.Secret); err != nil {
		return State{}, fmt.Errorf("%w: fill secret: %v", ErrAuth, err)
	}

	submit, err := browser.Require(ctx, page, browser.IntentLoginSubmit)
	if err != nil {
		return State{}, fmt.Errorf("%w: login form: %w", ErrAuth, err)
	}
	if err := submit.Click(ctx); err != nil {
		return State{}, fmt.Errorf("%w: submit: %v", ErrAuth, err)
	}

	if !s.probe(ctx, page) {
		return State{}, fmt.Errorf("%w: post-submit state is not authenticated", ErrAuth)
	}

	cookies, err := page.Cookies(ctx)
	if err != nil {
		s.logger.Warn("cookie capture failed, session will not survive restart", "error", err)
		cookies = nil
	}
	if len(cookies) > 0 {
		s.Persist(cookies)
	}

	s.journal.Record(journal.KindLogin, "登录"+journal.SuccessMarker)
	s.logger.Info("authenticated", "identity", s.creds.Identity)
	return State{
		Authenticated: true,
		Cookies:       cookies,
		CapturedAt:    s.now(),
	}, nil
}

// Persist checkpoints the cookie set, last writer wins. Failure is
// logged and swallowed: losing the checkpoint only costs one extra
// login on the next run.
func (s *Store) Persist(cookies []browser.Cookie) {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		s.logger.Error("cookie encode failed", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Error("cookie dir create failed", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.logger.Error("cookie persist failed", "path", s.path, "error", err)
	}
}

func (s *Store) load() ([]browser.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cookies []browser.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", s.path, err)
	}
	return cookies, nil
}
