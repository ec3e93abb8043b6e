package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
)

// Call records one remote call made by the engine, in order.
type Call struct {
	Kind     string // "mood", "memory" or "request"
	ID       int64
	Method   string
	Endpoint string
}

func (c Call) String() string {
	if c.Kind == "request" {
		return fmt.Sprintf("request %s %s", c.Method, c.Endpoint)
	}
	return fmt.Sprintf("%s %d", c.Kind, c.ID)
}

// ScriptedRemote is an engine.Remote double with scripted outcomes.
//
// Outcomes are stubbed per entry ID and consumed in order; once a stub's
// outcomes are exhausted the last one repeats, so a single stubbed error
// means "always fails" and (err, nil) means "fails once, then succeeds".
// Unstubbed entries always succeed. Every call is recorded for ordering
// assertions.
//
// Thread-safety: safe for concurrent use, though engine passes are
// sequential by design.
type ScriptedRemote struct {
	// OnCall, when set, runs synchronously before each call's outcome is
	// resolved. Tests use it to mutate the store mid-pass.
	OnCall func(Call)

	mu       sync.Mutex
	calls    []Call
	moods    map[int64][]error
	memories map[int64][]error
	requests map[string][]error // keyed by endpoint
	allErr   error
}

// NewScriptedRemote creates a remote where every call succeeds.
func NewScriptedRemote() *ScriptedRemote {
	return &ScriptedRemote{
		moods:    make(map[int64][]error),
		memories: make(map[int64][]error),
		requests: make(map[string][]error),
	}
}

// StubMood scripts outcomes for the mood entry with the given ID.
func (r *ScriptedRemote) StubMood(id int64, outcomes ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moods[id] = outcomes
}

// StubMemory scripts outcomes for the memory entry with the given ID.
func (r *ScriptedRemote) StubMemory(id int64, outcomes ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memories[id] = outcomes
}

// StubRequest scripts outcomes for queued requests hitting the given
// endpoint. Requests reach the remote as bare method/endpoint/payload
// calls, so they are stubbed by endpoint rather than by queue ID.
func (r *ScriptedRemote) StubRequest(endpoint string, outcomes ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[endpoint] = outcomes
}

// FailAll makes every call fail with err until cleared with FailAll(nil).
// Simulates total unreachability regardless of stubs.
func (r *ScriptedRemote) FailAll(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allErr = err
}

// Calls returns a copy of all recorded calls in order.
func (r *ScriptedRemote) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// PushMood implements engine.Remote.
func (r *ScriptedRemote) PushMood(ctx context.Context, m queue.MoodEntry) error {
	return r.record(Call{Kind: "mood", ID: m.ID}, r.moods, m.ID)
}

// PushMemory implements engine.Remote.
func (r *ScriptedRemote) PushMemory(ctx context.Context, m queue.MemoryEntry) error {
	return r.record(Call{Kind: "memory", ID: m.ID}, r.memories, m.ID)
}

// Do implements engine.Remote.
func (r *ScriptedRemote) Do(ctx context.Context, method, endpoint string, payload json.RawMessage) error {
	if r.OnCall != nil {
		r.OnCall(Call{Kind: "request", Method: method, Endpoint: endpoint})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Kind: "request", Method: method, Endpoint: endpoint})
	if r.allErr != nil {
		return r.allErr
	}
	return popOutcome(r.requests, endpoint)
}

// record logs the call and pops the next scripted outcome.
func (r *ScriptedRemote) record(c Call, stubs map[int64][]error, id int64) error {
	if r.OnCall != nil {
		r.OnCall(c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, c)
	if r.allErr != nil {
		return r.allErr
	}
	return popOutcome(stubs, id)
}

// popOutcome consumes the next scripted outcome for key; the last
// outcome repeats once the script is exhausted.
func popOutcome[K comparable](stubs map[K][]error, key K) error {
	outcomes, ok := stubs[key]
	if !ok || len(outcomes) == 0 {
		return nil
	}
	err := outcomes[0]
	if len(outcomes) > 1 {
		stubs[key] = outcomes[1:]
	}
	return err
}
