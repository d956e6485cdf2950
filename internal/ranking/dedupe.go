package ranking

import "github.com/ibeckermayer/xtop/internal/types"

// Dedupe merges batches of posts, keeping the first post seen for each id.
// Later duplicates are dropped whole; their fields are never merged in.
func Dedupe(batches ...[]types.Post) []types.Post {
	var merged []types.Post
	seen := make(map[string]bool)

	for _, batch := range batches {
		for _, p := range batch {
			if p.ID == "" || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}

	return merged
}
