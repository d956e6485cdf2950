// Command xtop ranks the most liked recent posts of X accounts by reading
// the timeline JSON their profile pages load.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xtop/internal/auth"
	"github.com/ibeckermayer/xtop/internal/capture"
	"github.com/ibeckermayer/xtop/internal/config"
	"github.com/ibeckermayer/xtop/internal/logging"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is the state shared by every subcommand, filled in before they run
type env struct {
	cfgPath  string
	logLevel string
	noColor  bool

	cfg *config.Config
	log *slog.Logger
}

// newRootCmd creates the root command for the xtop CLI.
func newRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "xtop",
		Short:         "Top liked posts of X accounts",
		Long:          "xtop opens X profile pages in a headless browser, captures the timeline JSON they load and ranks the most liked posts of the last 24 hours.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd)
		},
	}

	rootCmd.SetVersionTemplate("xtop version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&e.cfgPath, "config", "", "config file (default is <user config dir>/xtop/config.toml, or $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&e.noColor, "no-color", false, "disable colored log output")

	rootCmd.AddCommand(newTopCmd(e))
	rootCmd.AddCommand(newRankCmd(e))
	rootCmd.AddCommand(newHistoryCmd(e))
	rootCmd.AddCommand(newWatchCmd(e))
	rootCmd.AddCommand(newLoginCmd(e))
	rootCmd.AddCommand(newLogoutCmd(e))
	rootCmd.AddCommand(newCookiesCmd(e))
	rootCmd.AddCommand(newOpenCmd(e))
	rootCmd.AddCommand(newBotTestCmd(e))

	return rootCmd
}

func (e *env) init(cmd *cobra.Command) error {
	// Bootstrap logger for .env and config loading
	e.log = logging.New(cmd.ErrOrStderr(), slog.LevelInfo, e.noColor)
	config.LoadEnv(e.log)

	if e.cfgPath == "" {
		path, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to locate config: %w", err)
		}
		e.cfgPath = path
	}

	cfg, err := config.LoadFrom(e.cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run - create default config
		cfg = config.Default()
		if err := cfg.SaveTo(e.cfgPath); err != nil {
			e.log.Warn("Could not save default config", "err", err)
		} else {
			e.log.Info("Created default config", "path", e.cfgPath)
		}
	case err != nil:
		return fmt.Errorf("failed to load config %s: %w", e.cfgPath, err)
	}
	e.cfg = cfg

	levelName := cfg.Log.Level
	if e.logLevel != "" {
		levelName = e.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	e.log = logging.New(cmd.ErrOrStderr(), level, e.noColor || cfg.Log.NoColor)

	return nil
}

// cookieStore opens the session cookie store kept next to the config file
func (e *env) cookieStore() *auth.CookieStore {
	return auth.NewCookieStore(auth.CookieStorePath(e.cfgPath))
}

// captureOptions converts the capture section of the config
func (e *env) captureOptions() capture.Options {
	opts := capture.DefaultOptions()
	opts.Headless = e.cfg.Capture.Headless
	opts.Scrolls = e.cfg.Capture.Scrolls
	opts.ScrollPause = e.cfg.Capture.ScrollPause.Duration
	opts.InitialWait = e.cfg.Capture.InitialWait.Duration
	opts.Timeout = e.cfg.Capture.Timeout.Duration
	opts.BaseURL = e.cfg.Ranking.BaseURL
	return opts
}
