package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/xtop/internal/browser"
)

const loginURL = "https://x.com/login"

// Manager handles X.com authentication
type Manager struct {
	cookieStore *CookieStore
	log         *slog.Logger
}

// NewManager creates a new auth manager
func NewManager(cookieStore *CookieStore, log *slog.Logger) *Manager {
	return &Manager{cookieStore: cookieStore, log: log}
}

// IsAuthenticated checks if we have valid stored credentials
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid(time.Now())
}

// Login opens a visible browser for the user to log in to X.com and
// saves the session cookies once the home timeline shows up.
func (m *Manager) Login(ctx context.Context) error {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, browser.Options(false)...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(loginURL)); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}
	m.log.Info("Waiting for login to complete in the browser window")

	cookies, err := m.waitForLogin(browserCtx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := m.cookieStore.Save(FromBrowser(cookies), time.Now()); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	m.log.Info("Login successful - cookies saved", "path", m.cookieStore.Path())

	return nil
}

// waitForLogin polls until the browser reaches the home page with an
// auth_token cookie set
func (m *Manager) waitForLogin(ctx context.Context) ([]*network.Cookie, error) {
	timeout := time.After(5 * time.Minute)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, fmt.Errorf("login timeout exceeded")
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var url string
			if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
				continue
			}
			if !isHomeURL(url) {
				continue
			}

			cookies, err := extractCookies(ctx)
			if err != nil {
				continue
			}
			for _, c := range cookies {
				if c.Name == "auth_token" && c.Value != "" {
					return cookies, nil
				}
			}
		}
	}
}

func isHomeURL(url string) bool {
	url = strings.TrimSuffix(url, "/")
	return url == "https://x.com/home" || url == "https://twitter.com/home"
}

// extractCookies gets all cookies from the browser
func extractCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	return m.cookieStore.Clear()
}

// Cookies returns the stored X.com cookies, ready for the capture browser
func (m *Manager) Cookies() ([]*network.CookieParam, error) {
	cookies, err := m.cookieStore.XCookies()
	if err != nil {
		return nil, err
	}
	return Params(cookies), nil
}
