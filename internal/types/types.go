package types

import "time"

// Post represents a post extracted from a captured X timeline payload
type Post struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	RawCreatedAt string    `json:"raw_created_at,omitempty"`
	Likes        int       `json:"like_count"`
	Text         string    `json:"text"`
}

// RankedPost pairs a post with its public permalink
type RankedPost struct {
	Post      Post   `json:"post"`
	Permalink string `json:"permalink"`
}

// UserTop is the ranking result for one account
type UserTop struct {
	Username string       `json:"username"`
	Posts    []Post       `json:"posts"` // cleaned, newest first
	Top      []RankedPost `json:"top"`
	RankedAt time.Time    `json:"ranked_at"`
}

// Result is the outcome of ranking one account. Top is nil when Err is set.
type Result struct {
	Username string
	Top      *UserTop
	Err      error
}
