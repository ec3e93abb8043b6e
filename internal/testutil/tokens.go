package testutil

import (
	"fmt"
	"sync"
	"time"
)

// FixedTokens returns predetermined pass tokens for deterministic test
// and golden-file output.
//
// Once the fixed tokens are exhausted, further calls return "pass-N"
// with N continuing to count up, so long scenarios never panic.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedTokens struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokens creates a generator that returns tokens in order.
func NewFixedTokens(tokens ...string) *FixedTokens {
	return &FixedTokens{tokens: tokens}
}

// Generate implements engine.TokenGenerator.
func (g *FixedTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.tokens) {
		return g.tokens[g.idx-1]
	}
	return fmt.Sprintf("pass-%d", g.idx)
}

// TimeSource is a controllable replacement for time.Now.
//
// Thread-safety: safe for concurrent use via internal mutex.
type TimeSource struct {
	mu  sync.Mutex
	now time.Time
}

// NewTimeSource creates a time source pinned at the given unix
// millisecond timestamp.
func NewTimeSource(unixMilli int64) *TimeSource {
	return &TimeSource{now: time.UnixMilli(unixMilli)}
}

// Now returns the current pinned time. Pass the method value as a
// time source: engine.WithTimeSource(ts.Now).
func (t *TimeSource) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// Advance moves the pinned time forward.
func (t *TimeSource) Advance(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = t.now.Add(d)
}
