package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGraphQLNode(t *testing.T) {
	node := map[string]any{
		"__typename": "Tweet",
		"rest_id":    "1790000000000000001",
		"legacy": map[string]any{
			"created_at":     "Wed May 01 12:00:00 +0000 2024",
			"favorite_count": json.Number("128"),
			"full_text":      "hello world",
			"text":           "ignored",
		},
	}

	p, ok := Normalize(node)
	require.True(t, ok)
	assert.Equal(t, "1790000000000000001", p.ID)
	assert.True(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Equal(p.CreatedAt))
	assert.Equal(t, "Wed May 01 12:00:00 +0000 2024", p.RawCreatedAt)
	assert.Equal(t, 128, p.Likes)
	assert.Equal(t, "hello world", p.Text)
}

func TestNormalizeFlatNode(t *testing.T) {
	node := map[string]any{
		"id":         "77",
		"created_at": "2024-05-01T12:00:00Z",
		"like_count": 9.0,
		"text":       "flat",
	}

	p, ok := Normalize(node)
	require.True(t, ok)
	assert.Equal(t, "77", p.ID)
	assert.Equal(t, 9, p.Likes)
	assert.Equal(t, "flat", p.Text)
	assert.Equal(t, 2024, p.CreatedAt.Year())
}

func TestNormalizeWithoutIdentifier(t *testing.T) {
	nodes := []map[string]any{
		{},
		{"legacy": map[string]any{"full_text": "orphan"}},
		{"id_str": "", "rest_id": nil, "id": ""},
		{"id_str": true},
	}

	for _, node := range nodes {
		_, ok := Normalize(node)
		assert.False(t, ok, "node %v should not be mappable", node)

		// Repeating the call changes nothing.
		_, ok = Normalize(node)
		assert.False(t, ok)
	}
}

func TestNormalizeIDOrder(t *testing.T) {
	tests := []struct {
		name string
		node map[string]any
		want string
	}{
		{"id_str wins", map[string]any{"id_str": "1", "rest_id": "2", "id": "3"}, "1"},
		{"rest_id next", map[string]any{"rest_id": "2", "id": "3"}, "2"},
		{"empty id_str skipped", map[string]any{"id_str": "", "rest_id": "2"}, "2"},
		{"null id_str skipped", map[string]any{"id_str": nil, "id": "3"}, "3"},
		{"numeric id", map[string]any{"id": json.Number("1790000000000000001")}, "1790000000000000001"},
		{"float id", map[string]any{"id": 42.0}, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Normalize(tt.node)
			require.True(t, ok)
			assert.Equal(t, tt.want, p.ID)
		})
	}
}

func TestNormalizeCreatedAtFallback(t *testing.T) {
	p, ok := Normalize(map[string]any{
		"rest_id": "1",
		"legacy":  map[string]any{"created_at": "Wed May 01 12:00:00 +0000 2024"},
	})
	require.True(t, ok)
	assert.Equal(t, 2024, p.CreatedAt.Year())

	p, ok = Normalize(map[string]any{
		"rest_id":    "1",
		"created_at": "2023-01-01T00:00:00Z",
		"legacy":     map[string]any{"created_at": "Wed May 01 12:00:00 +0000 2024"},
	})
	require.True(t, ok)
	assert.Equal(t, 2023, p.CreatedAt.Year())

	p, ok = Normalize(map[string]any{"rest_id": "1", "created_at": "not-a-date"})
	require.True(t, ok)
	assert.True(t, SentinelEpoch.Equal(p.CreatedAt))

	p, ok = Normalize(map[string]any{"rest_id": "1"})
	require.True(t, ok)
	assert.True(t, SentinelEpoch.Equal(p.CreatedAt))
	assert.Equal(t, 0, p.Likes)
	assert.Equal(t, "", p.Text)
}

func TestNormalizeLikeCount(t *testing.T) {
	tests := []struct {
		name   string
		legacy map[string]any
		want   int
	}{
		{"favorite_count", map[string]any{"favorite_count": 5.0, "like_count": 7.0}, 5},
		{"like_count fallback", map[string]any{"like_count": 7.0}, 7},
		{"null favorite_count falls through", map[string]any{"favorite_count": nil, "like_count": 7.0}, 7},
		{"explicit zero is kept", map[string]any{"favorite_count": 0.0, "like_count": 7.0}, 0},
		{"numeric string", map[string]any{"favorite_count": "17"}, 17},
		{"garbage string", map[string]any{"favorite_count": "lots"}, 0},
		{"negative", map[string]any{"favorite_count": -3.0}, 0},
		{"fraction truncated", map[string]any{"favorite_count": 3.7}, 3},
		{"bool", map[string]any{"favorite_count": true}, 0},
		{"object", map[string]any{"favorite_count": map[string]any{}}, 0},
		{"absent", map[string]any{}, 0},
		{"decoded integer", map[string]any{"favorite_count": json.Number("42")}, 42},
		{"decoded fraction truncated", map[string]any{"favorite_count": json.Number("4.9")}, 4},
		{"decoded huge float", map[string]any{"favorite_count": json.Number("1e30")}, 0},
		{"decoded huge negative float", map[string]any{"favorite_count": json.Number("-1e30")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Normalize(map[string]any{"rest_id": "1", "legacy": tt.legacy})
			require.True(t, ok)
			assert.Equal(t, tt.want, p.Likes)
		})
	}
}

func TestNormalizeText(t *testing.T) {
	p, _ := Normalize(map[string]any{"rest_id": "1", "legacy": map[string]any{"text": "short"}})
	assert.Equal(t, "short", p.Text)

	p, _ = Normalize(map[string]any{"rest_id": "1", "legacy": map[string]any{"full_text": nil, "text": "short"}})
	assert.Equal(t, "short", p.Text)

	p, _ = Normalize(map[string]any{"rest_id": "1", "legacy": map[string]any{"full_text": ""}})
	assert.Equal(t, "", p.Text)
}
