package ranking

import (
	"errors"
	"fmt"
	"time"

	"github.com/ibeckermayer/xtop/internal/timeline"
	"github.com/ibeckermayer/xtop/internal/types"
)

// ErrNoPayloads means the capture produced nothing to process. It is
// distinct from a run that processed payloads and ranked zero posts.
var ErrNoPayloads = errors.New("no timeline payloads to process")

// Run extracts, merges, cleans and ranks the posts of one account's
// captured payloads.
func Run(payloads []any, username string, now time.Time, opts Options) (*types.UserTop, error) {
	if len(payloads) == 0 {
		return nil, ErrNoPayloads
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking options: %w", err)
	}

	if opts.LastOnly {
		payloads = payloads[len(payloads)-1:]
	}

	batches := make([][]types.Post, len(payloads))
	for i, p := range payloads {
		batches[i] = timeline.ExtractPosts(p)
	}

	posts := Sanitize(Dedupe(batches...), now, opts)

	return &types.UserTop{
		Username: username,
		Posts:    posts,
		Top:      TopInWindow(posts, username, now, opts),
		RankedAt: now,
	}, nil
}
