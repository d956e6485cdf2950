package ranking

import (
	"slices"
	"time"

	"github.com/ibeckermayer/xtop/internal/types"
)

// Sanitize drops posts dated before opts.MinYear or more than
// opts.FutureSkew after now, and returns the rest newest first.
// Posts with equal timestamps keep their input order.
func Sanitize(posts []types.Post, now time.Time, opts Options) []types.Post {
	latest := now.Add(opts.FutureSkew)

	cleaned := make([]types.Post, 0, len(posts))
	for _, p := range posts {
		if p.CreatedAt.UTC().Year() < opts.MinYear {
			continue
		}
		if p.CreatedAt.After(latest) {
			continue
		}
		cleaned = append(cleaned, p)
	}

	slices.SortStableFunc(cleaned, func(a, b types.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return cleaned
}
