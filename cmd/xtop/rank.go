package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xtop/internal/app"
	"github.com/ibeckermayer/xtop/internal/report"
	"github.com/ibeckermayer/xtop/internal/store"
)

func newRankCmd(e *env) *cobra.Command {
	var (
		rf       rankingFlags
		username string
		at       string
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "rank <payload.json...>",
		Short: "Rank previously captured payloads without opening a browser",
		Long:  "Rank timeline payloads saved earlier, such as a <user>_raw.json dump or single payload files. Files are merged in the order given.",
		Example: `  xtop rank --user jack jack_raw.json
  xtop rank --user jack --now 2024-05-01T12:00:00Z page1.json page2.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf.apply(e.cfg)
			// Offline runs must not overwrite the dumps of live runs
			e.cfg.Storage.Debug = false

			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --now %q: %w", at, err)
				}
				now = t
			}

			raw, err := store.LoadPayloads(args...)
			if err != nil {
				return err
			}

			opts := []app.Option{app.WithClock(func() time.Time { return now })}
			if save {
				st, err := e.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				opts = append(opts, app.WithStore(st))
			}

			a := app.New(e.cfg, nil, nil, e.log, opts...)
			top, err := a.RankPayloads(raw, username)
			if err != nil {
				return err
			}

			return report.WriteText(cmd.OutOrStdout(), top, e.cfg.Ranking.TopN, e.cfg.Ranking.Window.Duration)
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVarP(&username, "user", "u", "", "account the payloads belong to (required)")
	cmd.Flags().StringVar(&at, "now", "", "reference time in RFC 3339 (default: current time)")
	cmd.Flags().BoolVar(&save, "save", false, "record the ranking in the history database")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
