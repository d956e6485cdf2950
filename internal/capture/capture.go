// Package capture drives a headless browser through an X profile page and
// records the timeline JSON the page fetches while scrolling.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/xtop/internal/browser"
)

// ErrNoTimeline means the page loaded but no timeline JSON was seen,
// typically because X served a login wall or rate limited the session
var ErrNoTimeline = errors.New("no timeline JSON captured")

// Options controls how a profile page is driven
type Options struct {
	Headless    bool
	Scrolls     int
	ScrollBy    int // pixels per scroll step
	ScrollPause time.Duration
	InitialWait time.Duration
	Timeout     time.Duration
	BaseURL     string
}

// DefaultOptions mirrors the defaults of the config file
func DefaultOptions() Options {
	return Options{
		Headless:    true,
		Scrolls:     25,
		ScrollBy:    2500,
		ScrollPause: 2 * time.Second,
		InitialWait: 5 * time.Second,
		Timeout:     3 * time.Minute,
		BaseURL:     "https://x.com",
	}
}

// Capturer records timeline payloads from X profile pages
type Capturer struct {
	opts Options
	log  *slog.Logger
}

// New creates a new capturer
func New(opts Options, log *slog.Logger) *Capturer {
	if opts.ScrollBy <= 0 {
		opts.ScrollBy = DefaultOptions().ScrollBy
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOptions().BaseURL
	}
	return &Capturer{opts: opts, log: log}
}

// ProfileURL returns the profile page of username
func (c *Capturer) ProfileURL(username string) string {
	return strings.TrimRight(c.opts.BaseURL, "/") + "/" + strings.TrimPrefix(username, "@")
}

// Profile opens the profile page of username, scrolls through it and
// returns every timeline payload the page loaded, in arrival order.
// Without cookies X serves the logged-out view, which is often empty.
func (c *Capturer) Profile(ctx context.Context, cookies []*network.CookieParam, username string) ([]json.RawMessage, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(c.opts.Headless)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, c.opts.Timeout)
	defer timeoutCancel()

	log := c.log.With("user", username)

	col := newCollector(func(id network.RequestID) ([]byte, error) {
		target := chromedp.FromContext(browserCtx).Target
		return network.GetResponseBody(id).Do(cdp.WithExecutor(browserCtx, target))
	}, log)
	chromedp.ListenTarget(browserCtx, col.handle)

	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if len(cookies) > 0 {
		if err := injectCookies(browserCtx, cookies); err != nil {
			return nil, fmt.Errorf("failed to inject cookies: %w", err)
		}
		log.Debug("Injected session cookies", "count", len(cookies))
	} else {
		log.Warn("No session cookies - continuing as guest")
	}

	url := c.ProfileURL(username)
	log.Info("Opening profile", "url", url)
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(c.opts.InitialWait),
	); err != nil {
		col.payloads() // drain in-flight reads
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	// Scrolling triggers the next timeline pages
	for i := 0; i < c.opts.Scrolls; i++ {
		err := chromedp.Run(browserCtx,
			chromedp.Evaluate(fmt.Sprintf(`window.scrollBy(0, %d)`, c.opts.ScrollBy), nil),
			chromedp.Sleep(c.opts.ScrollPause),
		)
		if err != nil {
			log.Warn("Stopped scrolling early", "scroll", i+1, "err", err)
			break
		}
		log.Debug("Scrolled", "scroll", i+1, "of", c.opts.Scrolls)
	}

	payloads := col.payloads()
	if len(payloads) == 0 {
		return nil, fmt.Errorf("%s: %w", username, ErrNoTimeline)
	}

	log.Info("Captured timeline payloads", "count", len(payloads))
	return payloads, nil
}

// injectCookies sets cookies in the browser context before navigation
func injectCookies(ctx context.Context, cookies []*network.CookieParam) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookies(cookies).Do(ctx)
		}),
	)
}
