package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/chromedp/chromedp"
	pkgbrowser "github.com/pkg/browser"
	"github.com/spf13/cobra"

	browseropts "github.com/ibeckermayer/xtop/internal/browser"
	"github.com/ibeckermayer/xtop/internal/config"
)

func newOpenCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "open <config|cache>",
		Short:     "Open the config file or the cache directory",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"config", "cache"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			var err error

			switch args[0] {
			case "config":
				path = e.cfgPath
			case "cache":
				path, err = config.CacheDir()
				if err == nil {
					err = os.MkdirAll(path, 0755)
				}
			default:
				return fmt.Errorf("unknown target %q: must be 'config' or 'cache'", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to get path: %w", err)
			}

			return pkgbrowser.OpenFile(path)
		},
	}
}

func newBotTestCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "bot-test",
		Short: "Open bot.sannysoft.com to audit the browser fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			e.log.Info("Opening bot.sannysoft.com with stealth browser options")

			allocCtx, cancel := chromedp.NewExecAllocator(cmd.Context(), browseropts.Options(false)...)
			defer cancel()

			ctx, cancel := chromedp.NewContext(allocCtx)
			defer cancel()

			if err := chromedp.Run(ctx, chromedp.Navigate("https://bot.sannysoft.com")); err != nil {
				return fmt.Errorf("failed to navigate: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Press Enter to end program...")
			_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			return nil
		},
	}
}
