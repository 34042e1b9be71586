// Package browsertest provides an in-memory rendering engine used to
// drive the core packages in tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/moltbook/moltbot/internal/browser"
)

// Browser hands out the configured fake page.
type Browser struct {
	mu     sync.Mutex
	Page   *Page
	Opened int
	Closed bool
	// OpenErr, when set, makes NewPage fail.
	OpenErr error
}

// NewBrowser creates a fake browser serving the given page.
func NewBrowser(p *Page) *Browser {
	return &Browser{Page: p}
}

// NewPage implements browser.Browser.
func (b *Browser) NewPage(context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	b.Opened++
	return b.Page, nil
}

// Close implements browser.Browser.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	return nil
}

// Page is a scriptable browser.Page. Surfaces are keyed by URL;
// navigating to an unknown URL succeeds and lands on an empty surface.
type Page struct {
	mu        sync.Mutex
	surfaces  map[string]*Surface
	current   string
	NavErrors map[string]error
	NavLog    []string

	CookieJar   []browser.Cookie
	Injected    [][]browser.Cookie
	Screenshots []string
	CloseCount  int
}

// NewPage creates an empty fake page.
func NewPage() *Page {
	return &Page{
		surfaces:  make(map[string]*Surface),
		NavErrors: make(map[string]error),
	}
}

// Surface returns (creating if needed) the surface behind a URL, for
// test setup.
func (p *Page) Surface(url string) *Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surfaceLocked(url)
}

func (p *Page) surfaceLocked(url string) *Surface {
	s, ok := p.surfaces[url]
	if !ok {
		s = &Surface{elements: make(map[browser.Intent][]*Element)}
		p.surfaces[url] = s
	}
	return s
}

// FailNavigation makes every navigation to url fail.
func (p *Page) FailNavigation(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.NavErrors[url] = fmt.Errorf("%w: %s: timeout", browser.ErrNavigation, url)
}

// SetCurrentURL overrides the reported location, emulating a redirect
// after a form submit.
func (p *Page) SetCurrentURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = url
}

// Navigations returns how many times url was navigated to.
func (p *Page) Navigations(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, u := range p.NavLog {
		if u == url {
			n++
		}
	}
	return n
}

// Navigate implements browser.Page.
func (p *Page) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.NavLog = append(p.NavLog, url)
	if err := p.NavErrors[url]; err != nil {
		return err
	}
	p.surfaceLocked(url)
	p.current = url
	return nil
}

// Locate implements browser.Page.
func (p *Page) Locate(_ context.Context, intent browser.Intent) (browser.Element, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.surfaces[p.current]
	if !ok {
		return nil, false, nil
	}
	els := s.elements[intent]
	if len(els) == 0 {
		return nil, false, nil
	}
	return els[0], true, nil
}

// LocateAll implements browser.Page.
func (p *Page) LocateAll(_ context.Context, intent browser.Intent) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.surfaces[p.current]
	if !ok {
		return nil, nil
	}
	var out []browser.Element
	for _, el := range s.elements[intent] {
		out = append(out, el)
	}
	return out, nil
}

// CurrentURL implements browser.Page.
func (p *Page) CurrentURL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

// Cookies implements browser.Page.
func (p *Page) Cookies(context.Context) ([]browser.Cookie, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.Cookie(nil), p.CookieJar...), nil
}

// SetCookies implements browser.Page.
func (p *Page) SetCookies(_ context.Context, cookies []browser.Cookie) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Injected = append(p.Injected, cookies)
	p.CookieJar = append(p.CookieJar, cookies...)
	return nil
}

// Screenshot implements browser.Page.
func (p *Page) Screenshot(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

// Close implements browser.Page.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CloseCount++
	return nil
}

// Surface is the element set visible at one URL.
type Surface struct {
	elements map[browser.Intent][]*Element
}

// Add attaches an element under an intent and returns it for further
// scripting.
func (s *Surface) Add(intent browser.Intent, el *Element) *Element {
	s.elements[intent] = append(s.elements[intent], el)
	return el
}

// SetText is shorthand for adding a text-bearing element.
func (s *Surface) SetText(intent browser.Intent, text string) *Element {
	return s.Add(intent, &Element{TextValue: text})
}

// AddLink adds a listing link element carrying an href attribute.
func (s *Surface) AddLink(intent browser.Intent, href string) *Element {
	return s.Add(intent, &Element{Attrs: map[string]string{"href": href}})
}

// Element is a scriptable browser.Element.
type Element struct {
	mu        sync.Mutex
	TextValue string
	Attrs     map[string]string

	Clicks   int
	Filled   []string
	ClickErr error
	FillErr  error
	// OnClick runs after a successful click, letting tests mutate the
	// page (e.g. flip the home surface to its authenticated variant).
	OnClick func()
}

// Click implements browser.Element.
func (e *Element) Click(context.Context) error {
	e.mu.Lock()
	if e.ClickErr != nil {
		defer e.mu.Unlock()
		return e.ClickErr
	}
	e.Clicks++
	hook := e.OnClick
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// Fill implements browser.Element.
func (e *Element) Fill(_ context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FillErr != nil {
		return e.FillErr
	}
	e.Filled = append(e.Filled, text)
	return nil
}

// Text implements browser.Element.
func (e *Element) Text(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.TextValue, nil
}

// Attr implements browser.Element.
func (e *Element) Attr(_ context.Context, name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.Attrs[name]
	return v, ok, nil
}
