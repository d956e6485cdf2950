package timeline

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ibeckermayer/xtop/internal/types"
)

const createdAtKey = "created_at"

var (
	idKeys   = []string{"id_str", "rest_id", "id"}
	likeKeys = []string{"favorite_count", "like_count"}
	textKeys = []string{"full_text", "text"}
)

// Normalize maps one raw tweet node onto a Post.
// It returns false when the node carries no usable identifier.
func Normalize(node map[string]any) (types.Post, bool) {
	id, ok := resolveID(node)
	if !ok {
		return types.Post{}, false
	}

	// The flat globalObjects shape has no legacy wrapper.
	legacy, ok := Map(node, "legacy")
	if !ok {
		legacy = node
	}

	raw, ok := String(node, createdAtKey)
	if !ok {
		raw, _ = String(node, "legacy", createdAtKey)
	}

	likes := 0
	for _, key := range likeKeys {
		if v, ok := Lookup(legacy, key); ok {
			likes = toCount(v)
			break
		}
	}

	text := ""
	for _, key := range textKeys {
		if s, ok := String(legacy, key); ok {
			text = s
			break
		}
	}

	return types.Post{
		ID:           id,
		CreatedAt:    ParseCreatedAt(raw),
		RawCreatedAt: raw,
		Likes:        likes,
		Text:         text,
	}, true
}

func resolveID(node map[string]any) (string, bool) {
	for _, key := range idKeys {
		v, ok := Lookup(node, key)
		if !ok {
			continue
		}
		if id := idString(v); id != "" {
			return id, true
		}
	}
	return "", false
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) {
			return ""
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	}
	return ""
}

// toCount coerces an engagement counter to a non-negative int.
// Anything that is not an integer-like number is 0.
func toCount(v any) int {
	var n int64
	switch c := v.(type) {
	case json.Number:
		if i, err := c.Int64(); err == nil {
			n = i
		} else if f, err := c.Float64(); err == nil && !math.IsInf(f, 0) && f >= 0 && f < math.MaxInt64 {
			n = int64(f)
		}
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) || c >= math.MaxInt64 {
			return 0
		}
		n = int64(c)
	case int:
		n = int64(c)
	case int64:
		n = c
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return 0
		}
		n = i
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return int(n)
}
