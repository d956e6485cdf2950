package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

// ErrNoCookies means no session has been saved yet
var ErrNoCookies = errors.New("no stored cookies")

// Cookie is a browser session cookie in the shape the capture browser accepts
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	HTTPOnly bool   `json:"httpOnly"`
	Secure   bool   `json:"secure"`
	SameSite string `json:"sameSite"`
	Expires  int64  `json:"expires,omitempty"` // unix seconds, 0 for session cookies
}

// exportedCookie is one entry of a browser-extension (EditThisCookie) export.
// Pointers distinguish absent fields from zero values.
type exportedCookie struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           *string  `json:"path"`
	HTTPOnly       *bool    `json:"httpOnly"`
	Secure         *bool    `json:"secure"`
	SameSite       *string  `json:"sameSite"`
	ExpirationDate *float64 `json:"expirationDate"`
}

// ConvertExport converts a browser-extension cookie export into session
// cookies. Entries without a name or value are dropped.
func ConvertExport(data []byte) ([]Cookie, error) {
	var raw []exportedCookie
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse cookie export: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		if c.Name == "" || c.Value == "" {
			continue
		}

		domain := c.Domain
		if domain != "" && !strings.HasPrefix(domain, ".") {
			domain = "." + domain
		}

		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   domain,
			Path:     "/",
			Secure:   true,
			SameSite: mapSameSite(""),
		}
		if c.Path != nil {
			cookie.Path = *c.Path
		}
		if c.HTTPOnly != nil {
			cookie.HTTPOnly = *c.HTTPOnly
		}
		if c.Secure != nil {
			cookie.Secure = *c.Secure
		}
		if c.SameSite != nil {
			cookie.SameSite = mapSameSite(*c.SameSite)
		}
		if c.ExpirationDate != nil && *c.ExpirationDate > 0 {
			cookie.Expires = int64(*c.ExpirationDate)
		}

		cookies = append(cookies, cookie)
	}

	return cookies, nil
}

// mapSameSite normalizes a SameSite value. Extension-specific values such
// as "no_restriction" or "unspecified" fall back to Lax.
func mapSameSite(v string) string {
	switch strings.ToLower(v) {
	case "strict":
		return string(network.CookieSameSiteStrict)
	case "none":
		return string(network.CookieSameSiteNone)
	default:
		return string(network.CookieSameSiteLax)
	}
}

// FromBrowser converts cookies read from a live browser
func FromBrowser(cookies []*network.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: mapSameSite(string(c.SameSite)),
		}
		if !c.Session && c.Expires > 0 {
			cookie.Expires = int64(c.Expires)
		}
		out = append(out, cookie)
	}
	return out
}

// Param converts the cookie for network.SetCookies
func (c Cookie) Param() *network.CookieParam {
	p := &network.CookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: network.CookieSameSite(c.SameSite),
	}
	if c.Expires > 0 {
		exp := cdp.TimeSinceEpoch(time.Unix(c.Expires, 0))
		p.Expires = &exp
	}
	return p
}

// Params converts a cookie list for network.SetCookies
func Params(cookies []Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, len(cookies))
	for i, c := range cookies {
		params[i] = c.Param()
	}
	return params
}

// CookieStore handles storage of X.com session cookies
type CookieStore struct {
	path string
}

// StoredCookies represents the persisted cookie data
type StoredCookies struct {
	Cookies    []Cookie  `json:"cookies"`
	CapturedAt time.Time `json:"captured_at"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

// NewCookieStore creates a cookie store at the given path
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// CookieStorePath returns the cookie file that sits next to the config file
func CookieStorePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "cookies.json")
}

// Path returns the file the store reads and writes
func (cs *CookieStore) Path() string {
	return cs.path
}

// Save persists cookies to disk
func (cs *CookieStore) Save(cookies []Cookie, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return err
	}

	// The session ends when the first auth cookie expires
	var earliestExpiry time.Time
	for _, c := range cookies {
		if !isAuthCookie(c.Name) || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(c.Expires, 0).UTC()
		if earliestExpiry.IsZero() || exp.Before(earliestExpiry) {
			earliestExpiry = exp
		}
	}

	stored := StoredCookies{
		Cookies:    cookies,
		CapturedAt: now.UTC(),
		ExpiresAt:  earliestExpiry,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0600)
}

// Load retrieves cookies from disk
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCookies
		}
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cs.path, err)
	}

	return &stored, nil
}

// IsValid checks if stored cookies carry a live login session
func (cs *CookieStore) IsValid(now time.Time) bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}

	if !stored.ExpiresAt.IsZero() && now.After(stored.ExpiresAt) {
		return false
	}

	hasAuthToken := false
	hasCT0 := false
	for _, c := range stored.Cookies {
		switch c.Name {
		case "auth_token":
			hasAuthToken = c.Value != ""
		case "ct0":
			hasCT0 = c.Value != ""
		}
	}

	return hasAuthToken && hasCT0
}

// Clear removes stored cookies
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// XCookies returns only the x.com and twitter.com cookies
func (cs *CookieStore) XCookies() ([]Cookie, error) {
	stored, err := cs.Load()
	if err != nil {
		return nil, err
	}

	var xCookies []Cookie
	for _, c := range stored.Cookies {
		switch strings.TrimPrefix(c.Domain, ".") {
		case "x.com", "twitter.com":
			xCookies = append(xCookies, c)
		}
	}

	return xCookies, nil
}

func isAuthCookie(name string) bool {
	return name == "auth_token" || name == "ct0"
}
