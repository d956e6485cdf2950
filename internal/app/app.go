package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/xtop/internal/auth"
	"github.com/ibeckermayer/xtop/internal/config"
	"github.com/ibeckermayer/xtop/internal/ranking"
	"github.com/ibeckermayer/xtop/internal/store"
	"github.com/ibeckermayer/xtop/internal/timeline"
	"github.com/ibeckermayer/xtop/internal/types"
)

// ErrNoUsernames means there is nobody to rank
var ErrNoUsernames = errors.New("no usernames given")

// Capturer records the timeline payloads of a profile page
type Capturer interface {
	Profile(ctx context.Context, cookies []*network.CookieParam, username string) ([]json.RawMessage, error)
}

// CookieSource supplies the session cookies of the capture browser
type CookieSource interface {
	Cookies() ([]*network.CookieParam, error)
}

// App holds the application state.
type App struct {
	mu       sync.RWMutex
	capturer Capturer     // immutable after creation
	cookies  CookieSource // immutable after creation
	store    *store.Store // optional
	cfgPath  string       // empty: default location
	log      *slog.Logger
	now      func() time.Time

	// Mutable fields - use getSnapshot() for concurrent access.
	config *config.Config
}

// snapshot holds fields that may be replaced by ReloadConfig.
type snapshot struct {
	config  *config.Config
	opts    ranking.Options
	dataDir string
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := snapshot{config: a.config, opts: a.config.RankingOptions()}
	if a.config.Storage.Debug {
		dir, err := a.config.DataDir()
		if err != nil {
			a.log.Warn("No data dir for debug dumps", "err", err)
		}
		s.dataDir = dir
	}
	return s
}

// Option configures an App
type Option func(*App)

// WithStore records every ranking in st
func WithStore(st *store.Store) Option {
	return func(a *App) { a.store = st }
}

// WithConfigPath makes ReloadConfig read path
func WithConfigPath(path string) Option {
	return func(a *App) { a.cfgPath = path }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New creates a new App instance.
func New(cfg *config.Config, capturer Capturer, cookies CookieSource, log *slog.Logger, opts ...Option) *App {
	a := &App{
		config:   cfg,
		capturer: capturer,
		cookies:  cookies,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the current configuration
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}

// Top captures and ranks every account. Accounts run concurrently up to
// the configured limit and a failing account does not stop the others;
// results come back in input order.
func (a *App) Top(ctx context.Context, usernames []string) ([]types.Result, error) {
	usernames = NormalizeUsernames(usernames)
	if len(usernames) == 0 {
		return nil, ErrNoUsernames
	}

	s := a.getSnapshot()
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}

	cookies, err := a.sessionCookies()
	if err != nil {
		return nil, err
	}

	results := make([]types.Result, len(usernames))

	var g errgroup.Group
	g.SetLimit(max(1, s.config.Capture.Concurrency))
	for i, username := range usernames {
		g.Go(func() error {
			top, err := a.rankUser(ctx, s, cookies, username)
			if err != nil {
				a.log.Error("Ranking failed", "user", username, "err", err)
			}
			results[i] = types.Result{Username: username, Top: top, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// sessionCookies loads the stored session. A missing session is not an
// error: X is then browsed as a guest.
func (a *App) sessionCookies() ([]*network.CookieParam, error) {
	if a.cookies == nil {
		return nil, nil
	}
	cookies, err := a.cookies.Cookies()
	if errors.Is(err, auth.ErrNoCookies) {
		a.log.Warn("Not logged in - run `xtop login` or `xtop cookies convert` for better results")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}
	return cookies, nil
}

func (a *App) rankUser(ctx context.Context, s snapshot, cookies []*network.CookieParam, username string) (*types.UserTop, error) {
	raw, err := a.capturer.Profile(ctx, cookies, username)
	if err != nil {
		return nil, err
	}

	if s.dataDir != "" {
		if path, err := store.SaveDump(s.dataDir, username, store.StepRaw, raw); err != nil {
			a.log.Warn("Failed to dump payloads", "user", username, "err", err)
		} else {
			a.log.Debug("Dumped payloads", "user", username, "path", path)
		}
	}

	return a.rank(s, raw, username)
}

// RankPayloads ranks previously captured payloads of username without
// opening a browser
func (a *App) RankPayloads(raw []json.RawMessage, username string) (*types.UserTop, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, ErrNoUsernames
	}
	return a.rank(a.getSnapshot(), raw, username)
}

// rank decodes payloads, runs the ranking pipeline and records the outcome
func (a *App) rank(s snapshot, raw []json.RawMessage, username string) (*types.UserTop, error) {
	log := a.log.With("user", username)

	payloads := make([]any, 0, len(raw))
	for i, r := range raw {
		p, err := timeline.Decode(r)
		if err != nil {
			log.Warn("Skipping undecodable payload", "index", i, "err", err)
			continue
		}
		payloads = append(payloads, p)
	}

	top, err := ranking.Run(payloads, username, a.now(), s.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", username, err)
	}
	log.Info("Ranked posts", "posts", len(top.Posts), "top", len(top.Top))

	if s.dataDir != "" {
		if _, err := store.SaveDump(s.dataDir, username, store.StepTweets, top.Posts); err != nil {
			log.Warn("Failed to dump posts", "err", err)
		}
		if _, err := store.SaveDump(s.dataDir, username, store.StepTop, top.Top); err != nil {
			log.Warn("Failed to dump ranking", "err", err)
		}
	}

	if a.store != nil {
		fresh := 0
		for _, p := range top.Posts {
			if seen, err := a.store.PostExists(p.ID); err == nil && !seen {
				fresh++
			}
		}
		if err := a.store.SaveRanking(top); err != nil {
			log.Warn("Failed to record ranking", "err", err)
		} else {
			log.Debug("Recorded ranking", "new_posts", fresh)
		}
	}

	return top, nil
}

// ReloadConfig reloads the configuration from disk.
func (a *App) ReloadConfig() error {
	var cfg *config.Config
	var err error
	if a.cfgPath != "" {
		cfg, err = config.LoadFrom(a.cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.RankingOptions().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a.mu.Lock()
	a.config = cfg
	a.mu.Unlock()

	a.log.Info("Configuration reloaded")
	return nil
}

// NormalizeUsernames strips "@" and whitespace and drops blanks and
// repeats, keeping the first occurrence
func NormalizeUsernames(usernames []string) []string {
	seen := make(map[string]bool, len(usernames))
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		u = strings.TrimPrefix(strings.TrimSpace(u), "@")
		key := strings.ToLower(u)
		if u == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
	}
	return out
}
