package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(e *env) *cobra.Command {
	var (
		limit int
		posts bool
	)

	cmd := &cobra.Command{
		Use:   "history <username>",
		Short: "Show past rankings of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimPrefix(args[0], "@")

			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

			if posts {
				stored, err := st.Posts(username, limit)
				if err != nil {
					return fmt.Errorf("failed to read posts: %w", err)
				}
				if len(stored) == 0 {
					fmt.Fprintf(out, "No posts recorded for @%s.\n", username)
					return nil
				}
				fmt.Fprintln(tw, "CREATED\tLIKES\tID\tTEXT")
				for _, p := range stored {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.CreatedAt.Format("2006-01-02 15:04"), p.Likes, p.ID, oneLine(p.Text, 60))
				}
				return tw.Flush()
			}

			entries, err := st.History(username, limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "No rankings recorded for @%s.\n", username)
				return nil
			}

			fmt.Fprintln(tw, "RANKED AT\tRANK\tLIKES\tLINK")
			for _, entry := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", entry.RankedAt.Format("2006-01-02 15:04"), entry.Rank, entry.Likes, entry.Permalink)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 30, "maximum number of rows")
	cmd.Flags().BoolVar(&posts, "posts", false, "list stored posts instead of rankings")

	return cmd
}

// oneLine flattens text to a single line of at most maxLen runes
func oneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
