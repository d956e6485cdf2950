package ranking

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ibeckermayer/xtop/internal/types"
)

// TopInWindow keeps posts created within opts.Window before now, orders
// them by likes and returns the first opts.TopN with their permalinks.
//
// The sort is stable, so on equal likes the order of the input wins. Fed
// with Sanitize output that means the newer post ranks first.
func TopInWindow(posts []types.Post, username string, now time.Time, opts Options) []types.RankedPost {
	cutoff := now.Add(-opts.Window)

	var recent []types.Post
	for _, p := range posts {
		if !p.CreatedAt.Before(cutoff) {
			recent = append(recent, p)
		}
	}

	slices.SortStableFunc(recent, func(a, b types.Post) int {
		return cmp.Compare(b.Likes, a.Likes)
	})

	if opts.TopN >= 0 && len(recent) > opts.TopN {
		recent = recent[:opts.TopN]
	}

	ranked := make([]types.RankedPost, len(recent))
	for i, p := range recent {
		ranked[i] = types.RankedPost{
			Post:      p,
			Permalink: Permalink(opts.BaseURL, username, p.ID),
		}
	}

	return ranked
}

// Permalink builds "<baseURL>/<username>/status/<id>".
func Permalink(baseURL, username, id string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	username = strings.TrimPrefix(username, "@")
	return fmt.Sprintf("%s/%s/status/%s", baseURL, username, id)
}
