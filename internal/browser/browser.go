// Package browser defines the capability boundary toward the
// page-rendering engine. Core packages speak only in terms of symbolic
// locator intents; the concrete selector catalogs belong to the
// engine adapter.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Intent names a page element by role rather than by selector.
type Intent string

const (
	IntentLoginUsername Intent = "login.username"
	IntentLoginPassword Intent = "login.password"
	IntentLoginSubmit   Intent = "login.submit"

	// IntentAuthMarker is an element only visible to an authenticated
	// user, used as the session liveness probe.
	IntentAuthMarker Intent = "auth.marker"

	IntentPostLink Intent = "listing.post-link"

	IntentPostTitle    Intent = "post.title"
	IntentPostBody     Intent = "post.body"
	IntentPostCategory Intent = "post.category"
	IntentUpvote       Intent = "post.upvote"

	IntentCommentOpen   Intent = "comment.open"
	IntentCommentInput  Intent = "comment.input"
	IntentCommentSubmit Intent = "comment.submit"

	IntentComposeTitle  Intent = "compose.title"
	IntentComposeBody   Intent = "compose.body"
	IntentComposeSubmit Intent = "compose.submit"
)

// ErrNavigation marks a navigation that did not complete within its
// timeout. Callers treat it as recoverable at the granularity of one
// content item or one login attempt.
var ErrNavigation = errors.New("browser: navigation failed")

// ErrNotFound marks a required element that is absent from the page.
// Only callers for which the element is mandatory raise it; optional
// affordances use the found flag instead.
var ErrNotFound = errors.New("browser: element not found")

// Require locates an element that the caller cannot proceed without.
func Require(ctx context.Context, p Page, intent Intent) (Element, error) {
	el, found, err := p.Locate(ctx, intent)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, intent)
	}
	return el, nil
}

// Cookie is an engine-independent session cookie.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"httpOnly,omitempty"`
}

// Element is a handle to one located page element.
type Element interface {
	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
	// Attr returns an attribute value; ok is false when the attribute
	// is absent.
	Attr(ctx context.Context, name string) (value string, ok bool, err error)
}

// Page is one browsing surface. Absence of an element is an expected
// condition, reported through the found flag, never through an error.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Locate(ctx context.Context, intent Intent) (el Element, found bool, err error)
	LocateAll(ctx context.Context, intent Intent) ([]Element, error)
	CurrentURL(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Browser launches browsing sessions.
type Browser interface {
	// NewPage opens a fresh page. The caller must Close it on every
	// exit path.
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

/// ReadText is a tolerant convenience: it returns the text of the first
// element matching intent, or "" when the element is absent or
// unreadable.
func ReadText(ctx context.Context, p Page, intent Intent) string {
	el, found, err := p.Locate(ctx, intent)
	if err != nil || !found {
		return ""
	}
	text, err := el.Text(ctx)
	if err != nil {
		return ""
	}
	return text
}
