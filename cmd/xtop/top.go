package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	pkgbrowser "github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xtop/internal/app"
	"github.com/ibeckermayer/xtop/internal/auth"
	"github.com/ibeckermayer/xtop/internal/capture"
	"github.com/ibeckermayer/xtop/internal/config"
	"github.com/ibeckermayer/xtop/internal/notifier"
	"github.com/ibeckermayer/xtop/internal/report"
	"github.com/ibeckermayer/xtop/internal/store"
	"github.com/ibeckermayer/xtop/internal/types"
)

// errAllFailed is returned when not a single account could be ranked
var errAllFailed = errors.New("no account could be ranked")

// rankingFlags override the ranking section of the config for one run
type rankingFlags struct {
	top      int
	window   time.Duration
	lastOnly bool
	baseURL  string
}

func (f *rankingFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.top, "top", "n", 0, "number of posts to keep per account (default from config)")
	cmd.Flags().DurationVarP(&f.window, "window", "w", 0, "how far back to look, e.g. 24h (default from config)")
	cmd.Flags().BoolVar(&f.lastOnly, "last-only", false, "rank only the last captured payload instead of merging all")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "permalink base URL (default from config)")
}

func (f *rankingFlags) apply(cfg *config.Config) {
	if f.top != 0 {
		cfg.Ranking.TopN = f.top
	}
	if f.window != 0 {
		cfg.Ranking.Window = config.Duration{Duration: f.window}
	}
	if f.lastOnly {
		cfg.Capture.LastOnly = true
	}
	if f.baseURL != "" {
		cfg.Ranking.BaseURL = f.baseURL
	}
}

// openStore opens the ranking history database
func (e *env) openStore() (*store.Store, error) {
	dbPath, err := e.cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

// newApp wires the capture browser, the session cookies and optionally
// the history database into an App. The returned func releases the database.
func (e *env) newApp(withStore bool) (*app.App, func(), error) {
	opts := []app.Option{app.WithConfigPath(e.cfgPath)}
	closeFn := func() {}

	if withStore {
		st, err := e.openStore()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, app.WithStore(st))
		closeFn = func() {
			if err := st.Close(); err != nil {
				e.log.Warn("Failed to close database", "err", err)
			}
		}
	}

	capturer := capture.New(e.captureOptions(), e.log)
	manager := auth.NewManager(e.cookieStore(), e.log)
	return app.New(e.cfg, capturer, manager, e.log, opts...), closeFn, nil
}

// printResults writes every account's ranking, or its error, to w
func printResults(w io.Writer, results []types.Result, topN int, window time.Duration) error {
	failed, err := report.WriteResults(w, results, topN, window)
	if err != nil {
		return err
	}
	if failed > 0 && failed == len(results) {
		return errAllFailed
	}
	return nil
}

// writeHTML renders results into path and optionally opens it
func writeHTML(path string, results []types.Result, window time.Duration, open bool) error {
	b, err := report.New()
	if err != nil {
		return err
	}
	html, err := b.BuildHTML(results, window, time.Now())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if open {
		return pkgbrowser.OpenFile(path)
	}
	return nil
}

// emailResults mails the results using the email section of cfg
func emailResults(cfg *config.Config, results []types.Result) error {
	n, err := notifier.NewFromConfig(cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to set up email: %w", err)
	}
	return n.SendReport(results, cfg.Ranking.TopN, cfg.Ranking.Window.Duration, time.Now())
}

func newTopCmd(e *env) *cobra.Command {
	var (
		rf       rankingFlags
		headed   bool
		noStore  bool
		htmlPath string
		openHTML bool
		sendMail bool
	)

	cmd := &cobra.Command{
		Use:   "top [username...]",
		Short: "Capture profiles and print their most liked recent posts",
		Long:  "Open each profile page, capture the timeline JSON it loads and print the most liked posts of the window. Without arguments the usernames from the config are used.",
		Example: `  xtop top jack nasa
  xtop top @jack --top 5 --window 12h --html report.html --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rf.apply(e.cfg)
			if headed {
				e.cfg.Capture.Headless = false
			}

			usernames := args
			if len(usernames) == 0 {
				usernames = e.cfg.Usernames
			}

			a, closeApp, err := e.newApp(!noStore)
			if err != nil {
				return err
			}
			defer closeApp()

			results, err := a.Top(cmd.Context(), usernames)
			if err != nil {
				return err
			}

			window := e.cfg.Ranking.Window.Duration
			if htmlPath != "" {
				if err := writeHTML(htmlPath, results, window, openHTML); err != nil {
					return err
				}
				e.log.Info("Report saved", "path", htmlPath)
			}
			if sendMail {
				if err := emailResults(e.cfg, results); err != nil {
					return err
				}
				e.log.Info("Report emailed", "to", e.cfg.Email.To)
			}

			return printResults(cmd.OutOrStdout(), results, e.cfg.Ranking.TopN, window)
		},
	}

	rf.register(cmd)
	cmd.Flags().BoolVar(&headed, "headed", false, "show the browser window")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the ranking in the history database")
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write an HTML report to this file")
	cmd.Flags().BoolVar(&openHTML, "open", false, "open the HTML report in the default browser")
	cmd.Flags().BoolVar(&sendMail, "email", false, "email the report using the [email] config section")

	return cmd
}
