package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// selectorCatalog maps each locator intent to the selector variants the
// target forum is known to use, tried in order. This catalog is the
// only place selectors appear.
var selectorCatalog = map[Intent][]string{
	IntentLoginUsername: {
		`input[name="username"]`, `input[name="email"]`, `#username`, `input[type="email"]`, `input[type="text"]`,
	},
	IntentLoginPassword: {
		`input[name="password"]`, `#password`, `input[type="password"]`,
	},
	IntentLoginSubmit: {
		`button[type="submit"]`, `.btn-primary`,
	},
	IntentAuthMarker: {
		`a[href*="post/create"]`, `button.new-post`, `.user-menu`,
	},
	IntentPostLink: {
		`a[href*="/post/"]:not([href*="/comment"])`,
	},
	IntentPostTitle: {
		`h1`, `[class*="title"]`, `[class*="header"]`,
	},
	IntentPostBody: {
		`[class*="content"]`, `[class*="body"]`, `article`, `.post-content`,
	},
	IntentPostCategory: {
		`[class*="category"]`, `[class*="tag"]`, `[class*="board"]`,
	},
	IntentUpvote: {
		`button[aria-label*="upvote"]`, `button[title*="upvote"]`, `.upvote`, `[class*="upvote"]`,
	},
	IntentCommentOpen: {
		`button[class*="comment"]`, `a[class*="comment"]`,
	},
	IntentCommentInput: {
		`textarea[name="comment"]`, `input[placeholder*="comment"]`, `textarea`, `[contenteditable="true"]`,
	},
	IntentCommentSubmit: {
		`button[type="submit"]`, `.submit`,
	},
	IntentComposeTitle: {
		`input[name="title"]`, `#title`, `input[placeholder*="title"]`,
	},
	IntentComposeBody: {
		`textarea[name="content"]`, `#content`, `textarea[placeholder*="content"]`, `textarea`,
	},
	IntentComposeSubmit: {
		`button[type="submit"]`, `.submit-btn`,
	},
}

// ChromeOptions configure the chromedp-backed engine.
type ChromeOptions struct {
	Headless bool
	// SlowMo inserts a pause after every click and fill so the traffic
	// pattern stays human-paced.
	SlowMo            time.Duration
	NavigationTimeout time.Duration
	UserAgent         string
}

// Chrome is the chromedp implementation of Browser.
type Chrome struct {
	opts        ChromeOptions
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewChrome launches a Chrome allocator. Pages are created lazily per
// NewPage call.
func NewChrome(opts ChromeOptions) *Chrome {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.UserAgent(opts.UserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return &Chrome{opts: opts, allocCtx: allocCtx, cancelAlloc: cancel}
}

// NewPage opens a new browser tab.
func (c *Chrome) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.allocCtx)
	// Start the browser process now so failures surface here, not on
	// the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	go func() {
		// Release the tab if the caller's context ends first.
		select {
		case <-ctx.Done():
			cancel()
		case <-tabCtx.Done():
		}
	}()
	return &chromePage{ctx: tabCtx, cancel: cancel, opts: c.opts}, nil
}

// Close releases the allocator and any remaining tabs.
func (c *Chrome) Close() error {
	c.cancelAlloc()
	return nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   ChromeOptions
}

func (p *chromePage) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.run(p.opts.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

func (p *chromePage) Locate(ctx context.Context, intent Intent) (Element, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	for _, sel := range selectorCatalog[intent] {
		var nodes []*cdp.Node
		err := p.run(2*time.Second,
			chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		)
		if err != nil {
			return nil, false, fmt.Errorf("browser: locate %s: %w", intent, err)
		}
		if len(nodes) > 0 {
			return &chromeElement{page: p, sel: sel, node: nodes[0]}, true, nil
		}
	}
	return nil, false, nil
}

func (p *chromePage) LocateAll(ctx context.Context, intent Intent) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var els []Element
	for _, sel := range selectorCatalog[intent] {
		var nodes []*cdp.Node
		err := p.run(2*time.Second,
			chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		)
		if err != nil {
			return nil, fmt.Errorf("browser: locate all %s: %w", intent, err)
		}
		if len(nodes) == 0 {
			continue
		}
		for _, n := range nodes {
			els = append(els, &chromeElement{page: p, sel: sel, node: n})
		}
		break
	}
	return els, nil
}

func (p *chromePage) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var url string
	if err := p.run(5*time.Second, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("browser: current url: %w", err)
	}
	return url, nil
}

func (p *chromePage) Cookies(ctx context.Context) ([]Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Cookie
	err := p.run(5*time.Second, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			ck := Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			}
			if c.Expires > 0 {
				ck.Expires = time.Unix(int64(c.Expires), 0)
			}
			out = append(out, ck)
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("browser: capture cookies: %w", err)
	}
	return out, nil
}

func (p *chromePage) SetCookies(ctx context.Context, cookies []Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if !c.Expires.IsZero() {
			expires := cdp.TimeSinceEpoch(c.Expires)
			param.Expires = &expires
		}
		params = append(params, param)
	}
	err := p.run(5*time.Second, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("browser: inject cookies: %w", err)
	}
	return nil
}

func (p *chromePage) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf []byte
	if err := p.run(10*time.Second, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("browser: screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("browser: write screenshot: %w", err)
	}
	return nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

type chromeElement struct {
	page *chromePage
	sel  string
	node *cdp.Node
}

func (e *chromeElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.page.run(5*time.Second, chromedp.MouseClickNode(e.node)); err != nil {
		return fmt.Errorf("browser: click %s: %w", e.sel, err)
	}
	e.pause()
	return nil
}

func (e *chromeElement) Fill(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.page.run(5*time.Second, chromedp.SetValue(e.sel, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("browser: fill %s: %w", e.sel, err)
	}
	e.pause()
	return nil
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var s string
	err := e.page.run(5*time.Second,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &s, chromedp.ByNodeID),
	)
	if err != nil {
		return "", fmt.Errorf("browser: read text %s: %w", e.sel, err)
	}
	return s, nil
}

func (e *chromeElement) Attr(_ context.Context, name string) (string, bool, error) {
	value := e.node.AttributeValue(name)
	return value, value != "", nil
}

func (e *chromeElement) pause() {
	if e.page.opts.SlowMo > 0 {
		time.Sleep(e.page.opts.SlowMo)
	}
}
