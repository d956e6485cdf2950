package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xtop/internal/timeline"
)

func entry(id, createdAt string, likes float64) map[string]any {
	return map[string]any{
		"content": map[string]any{"itemContent": map[string]any{"tweet_results": map[string]any{
			"result": map[string]any{
				"rest_id": id,
				"legacy": map[string]any{
					"created_at":     createdAt,
					"favorite_count": likes,
					"full_text":      "post " + id,
				},
			},
		}}},
	}
}

func payload(entries ...any) any {
	return map[string]any{"data": map[string]any{"user": map[string]any{"result": map[string]any{
		"timeline_v2": map[string]any{"timeline": map[string]any{"instructions": []any{
			map[string]any{"type": "TimelineAddEntries", "entries": entries},
		}}},
	}}}}
}

func legacy(age time.Duration) string {
	return now.Add(-age).Format(timeline.LegacyLayout)
}

func TestRunMergesPayloads(t *testing.T) {
	first := payload(entry("42", legacy(time.Hour), 5), entry("7", legacy(2*time.Hour), 1))
	second := payload(entry("42", legacy(time.Hour), 500), entry("8", legacy(3*time.Hour), 2))

	res, err := Run([]any{first, second}, "jack", now, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"42", "7", "8"}, postIDs(res.Posts))
	count := 0
	for _, p := range res.Posts {
		if p.ID == "42" {
			count++
			assert.Equal(t, 5, p.Likes, "first capture wins")
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "jack", res.Username)
	assert.True(t, now.Equal(res.RankedAt))
}

func TestRunDropsUnparseableDates(t *testing.T) {
	res, err := Run([]any{payload(entry("bad", "not-a-date", 1000), entry("ok", legacy(time.Hour), 1))}, "u", now, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, postIDs(res.Posts))
	require.Len(t, res.Top, 1)
	assert.Equal(t, "ok", res.Top[0].Post.ID)
}

func TestRunRanksWithinWindow(t *testing.T) {
	p := payload(
		entry("h30", legacy(30*time.Hour), 1000),
		entry("h20", legacy(20*time.Hour), 5),
		entry("h1", legacy(time.Hour), 50),
		entry("h5", legacy(5*time.Hour), 10),
	)

	res, err := Run([]any{p}, "u", now, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Top, 3)
	assert.Equal(t, 50, res.Top[0].Post.Likes)
	assert.Equal(t, 10, res.Top[1].Post.Likes)
	assert.Equal(t, 5, res.Top[2].Post.Likes)
	assert.Len(t, res.Posts, 4, "cleaned posts keep out-of-window records")
}

func TestRunLastOnly(t *testing.T) {
	first := payload(entry("1", legacy(time.Hour), 100))
	second := payload(entry("2", legacy(time.Hour), 1))

	opts := DefaultOptions()
	opts.LastOnly = true
	res, err := Run([]any{first, second}, "u", now, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"2"}, postIDs(res.Posts))
}

func TestRunNoPayloads(t *testing.T) {
	_, err := Run(nil, "u", now, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoPayloads)
}

func TestRunZeroRecordsIsNotAnError(t *testing.T) {
	res, err := Run([]any{map[string]any{"unexpected": true}}, "u", now, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
	assert.Empty(t, res.Top)
}

func TestRunInvalidOptions(t *testing.T) {
	_, err := Run([]any{payload()}, "u", now, Options{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoPayloads)
}
