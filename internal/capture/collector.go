package capture

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
)

// Endpoints whose responses may carry a user timeline
var timelineEndpoints = []string{"UserTweets", "UserTweetsAndReplies", "UserMedia", "graphql"}

// IsTimelineURL reports whether a response URL may carry timeline JSON
func IsTimelineURL(url string) bool {
	for _, endpoint := range timelineEndpoints {
		if strings.Contains(url, endpoint) {
			return true
		}
	}
	return false
}

// IsTimelinePayload reports whether a response body is JSON that looks
// like a timeline page
func IsTimelinePayload(body []byte) bool {
	if !json.Valid(body) {
		return false
	}
	return bytes.Contains(body, []byte("timeline")) && bytes.Contains(body, []byte("instructions"))
}

// fetchFunc reads the body of a finished response
type fetchFunc func(id network.RequestID) ([]byte, error)

type capturedBody struct {
	seq  int
	body json.RawMessage
}

// collector turns network events into timeline payloads. Bodies are
// fetched asynchronously since event handlers must not block.
type collector struct {
	fetch fetchFunc
	log   *slog.Logger

	mu      sync.Mutex
	pending map[network.RequestID]pendingResponse
	next    int
	bodies  []capturedBody
	closed  bool // set by payloads; no reads start afterwards

	wg sync.WaitGroup
}

type pendingResponse struct {
	seq int
	url string
}

func newCollector(fetch fetchFunc, log *slog.Logger) *collector {
	return &collector{
		fetch:   fetch,
		log:     log,
		pending: make(map[network.RequestID]pendingResponse),
	}
}

func (c *collector) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if e.Response == nil || !IsTimelineURL(e.Response.URL) {
			return
		}
		c.mu.Lock()
		c.pending[e.RequestID] = pendingResponse{seq: c.next, url: e.Response.URL}
		c.next++
		c.mu.Unlock()

	case *network.EventLoadingFinished:
		c.mu.Lock()
		p, ok := c.pending[e.RequestID]
		delete(c.pending, e.RequestID)
		if !ok || c.closed {
			c.mu.Unlock()
			return
		}
		c.wg.Add(1)
		c.mu.Unlock()

		go func() {
			defer c.wg.Done()
			c.read(e.RequestID, p)
		}()

	case *network.EventLoadingFailed:
		c.mu.Lock()
		delete(c.pending, e.RequestID)
		c.mu.Unlock()
	}
}

func (c *collector) read(id network.RequestID, p pendingResponse) {
	body, err := c.fetch(id)
	if err != nil {
		c.log.Debug("Failed to read response body", "url", p.url, "err", err)
		return
	}
	if !IsTimelinePayload(body) {
		return
	}

	c.mu.Lock()
	c.bodies = append(c.bodies, capturedBody{seq: p.seq, body: json.RawMessage(body)})
	c.mu.Unlock()
	c.log.Debug("Captured timeline payload", "url", p.url, "bytes", len(body))
}

// payloads waits for in-flight reads and returns the captured bodies in
// the order their responses arrived. Responses finishing later are ignored.
func (c *collector) payloads() []json.RawMessage {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	sort.Slice(c.bodies, func(i, j int) bool {
		return c.bodies[i].seq < c.bodies[j].seq
	})

	out := make([]json.RawMessage, len(c.bodies))
	for i, b := range c.bodies {
		out[i] = b.body
	}
	return out
}
