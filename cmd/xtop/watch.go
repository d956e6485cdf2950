package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xtop/internal/scheduler"
)

const watchJob = "top"

func newWatchCmd(e *env) *cobra.Command {
	var (
		runNow   bool
		htmlPath string
	)

	cmd := &cobra.Command{
		Use:   "watch [username...]",
		Short: "Rank accounts on the configured cron schedule",
		Long:  "Run the ranking on schedule.cron until interrupted. The config file is re-read before every run and the report is emailed when [email] is enabled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, closeApp, err := e.newApp(true)
			if err != nil {
				return err
			}
			defer closeApp()

			job := func(ctx context.Context) error {
				if err := a.ReloadConfig(); err != nil {
					e.log.Warn("Keeping previous config", "err", err)
				}
				cfg := a.Config()

				usernames := args
				if len(usernames) == 0 {
					usernames = cfg.Usernames
				}

				results, err := a.Top(ctx, usernames)
				if err != nil {
					return err
				}
				window := cfg.Ranking.Window.Duration
				if htmlPath != "" {
					if err := writeHTML(htmlPath, results, window, false); err != nil {
						e.log.Warn("Failed to write report", "err", err)
					}
				}
				if cfg.Email.Enabled {
					if err := emailResults(cfg, results); err != nil {
						e.log.Warn("Failed to email report", "err", err)
					}
				}
				return printResults(cmd.OutOrStdout(), results, cfg.Ranking.TopN, window)
			}

			// Every account gets its own capture timeout, plus slack
			users := max(len(args), len(e.cfg.Usernames), 1)
			jobTimeout := time.Duration(users)*e.cfg.Capture.Timeout.Duration + time.Minute

			s, err := scheduler.New(ctx, e.cfg.Schedule.Timezone, jobTimeout, e.log)
			if err != nil {
				return err
			}
			if err := s.AddJob(watchJob, e.cfg.Schedule.Cron, job); err != nil {
				return err
			}

			if runNow {
				if err := s.RunNow(ctx, watchJob, job); err != nil {
					e.log.Error("Job failed", "job", watchJob, "err", err)
				}
			}

			s.Start()
			for _, info := range s.ListJobs() {
				e.log.Info("Next run", "job", info.Name, "at", info.NextRun.Format(time.DateTime))
			}

			<-ctx.Done()
			<-s.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "now", false, "also run once immediately")
	cmd.Flags().StringVar(&htmlPath, "html", "", "rewrite this HTML report after every run")

	return cmd
}
