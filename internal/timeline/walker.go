package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ibeckermayer/xtop/internal/types"
)

// Known locations of the instruction list, tried in order.
var instructionPaths = [][]any{
	{"data", "user", "result", "timeline_v2", "timeline", "instructions"},
	{"data", "user", "result", "timeline", "timeline", "instructions"},
}

var (
	tweetResultPath  = []any{"itemContent", "tweet_results", "result"}
	globalTweetsPath = []any{"globalObjects", "tweets"}
)

// Decode parses a captured response body. Numbers are kept as json.Number
// so that numeric tweet ids survive without float rounding.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return v, nil
}

// WalkPayload returns the raw tweet nodes of one timeline document in
// document order. Unknown or broken structure contributes no nodes.
func WalkPayload(payload any) []map[string]any {
	var nodes []map[string]any

	for _, inst := range instructions(payload) {
		// TimelineAddEntries carries a list, TimelinePinEntry a single entry.
		if entries, ok := Slice(inst, "entries"); ok {
			for _, entry := range entries {
				nodes = appendEntry(nodes, entry)
			}
		}
		if entry, ok := Map(inst, "entry"); ok {
			nodes = appendEntry(nodes, entry)
		}
	}

	if len(nodes) > 0 {
		return nodes
	}
	return globalTweets(payload)
}

// ExtractPosts walks and normalizes one payload, keeping the first
// occurrence of each id.
func ExtractPosts(payload any) []types.Post {
	var posts []types.Post
	seen := make(map[string]bool)

	for _, node := range WalkPayload(payload) {
		p, ok := Normalize(node)
		if !ok || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		posts = append(posts, p)
	}

	return posts
}

func instructions(payload any) []any {
	for _, path := range instructionPaths {
		if list, ok := Slice(payload, path...); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

func appendEntry(nodes []map[string]any, entry any) []map[string]any {
	content, ok := Map(entry, "content")
	if !ok {
		return nodes
	}

	if node, ok := tweetResult(content); ok {
		nodes = append(nodes, node)
	}

	// Conversation modules nest their tweets one level deeper.
	items, _ := Slice(content, "items")
	for _, item := range items {
		if node, ok := tweetResult(Get(item, nil, "item")); ok {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

func tweetResult(container any) (map[string]any, bool) {
	node, ok := Map(container, tweetResultPath...)
	if !ok {
		return nil, false
	}
	if typename, _ := String(node, "__typename"); typename == "TweetWithVisibilityResults" {
		if inner, ok := Map(node, "tweet"); ok {
			return inner, true
		}
	}
	return node, true
}

// globalTweets reads the legacy globalObjects.tweets map. Its tweets omit
// their id inline, so the map key is injected into a copy of each node.
func globalTweets(payload any) []map[string]any {
	tweets, ok := Map(payload, globalTweetsPath...)
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(tweets))
	for id := range tweets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		t, ok := tweets[id].(map[string]any)
		if !ok {
			continue
		}
		node := make(map[string]any, len(t)+1)
		for k, v := range t {
			node[k] = v
		}
		node["id"] = id
		nodes = append(nodes, node)
	}

	return nodes
}
