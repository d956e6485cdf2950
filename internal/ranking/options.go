// Package ranking merges extracted posts, drops implausible ones and picks
// the most liked posts of a trailing time window.
//
// Nothing here reads the clock: callers pass the reference time.
package ranking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTopN       = 3
	DefaultWindow     = 24 * time.Hour
	DefaultFutureSkew = time.Hour
	DefaultMinYear    = 2007 // X launched in 2006; anything earlier is bogus
	DefaultBaseURL    = "https://x.com"
)

// Options holds the ranking thresholds
type Options struct {
	TopN       int
	Window     time.Duration
	FutureSkew time.Duration
	MinYear    int
	BaseURL    string

	// LastOnly ranks only the final captured payload instead of merging all.
	LastOnly bool
}

// DefaultOptions returns the thresholds used when nothing is configured
func DefaultOptions() Options {
	return Options{
		TopN:       DefaultTopN,
		Window:     DefaultWindow,
		FutureSkew: DefaultFutureSkew,
		MinYear:    DefaultMinYear,
		BaseURL:    DefaultBaseURL,
	}
}

// Validate reports thresholds that cannot produce a ranking
func (o Options) Validate() error {
	var errs []error
	if o.TopN < 1 {
		errs = append(errs, fmt.Errorf("top_n must be at least 1, got %d", o.TopN))
	}
	if o.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %s", o.Window))
	}
	if o.FutureSkew < 0 {
		errs = append(errs, fmt.Errorf("future_skew must not be negative, got %s", o.FutureSkew))
	}
	if strings.TrimSpace(o.BaseURL) == "" {
		errs = append(errs, errors.New("base_url must not be empty"))
	}
	return errors.Join(errs...)
}
