package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/api"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/store"
)

// Remote is the slice of the API client the engine drains against.
// Implemented by *api.Client (production) and testutil.ScriptedRemote.
type Remote interface {
	PushMood(ctx context.Context, m queue.MoodEntry) error
	PushMemory(ctx context.Context, m queue.MemoryEntry) error
	Do(ctx context.Context, method, endpoint string, payload json.RawMessage) error
}

// State is the controller's externally visible state.
type State int

const (
	// StateIdle: no pass active, last pass (if any) drained cleanly.
	StateIdle State = iota
	// StateSyncing: a pass is active.
	StateSyncing
	// StateIdleWithError: no pass active, and the previous pass either
	// had failed entries or aborted with a pass-level error. The report
	// and error stay available for display until the next pass.
	StateIdleWithError
)

// String returns the state name for log output.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateIdleWithError:
		return "idle-with-error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultCallTimeout bounds each remote call within a pass so one stalled
// request cannot stall the whole pass.
const DefaultCallTimeout = 10 * time.Second

// Engine is the sync controller. It owns no goroutines of its own except
// the Start loop; RunPass executes on the caller's goroutine.
type Engine struct {
	store       *store.Store
	remote      Remote
	sink        Sink
	tokens      TokenGenerator
	callTimeout time.Duration
	now         func() time.Time

	mu         sync.Mutex
	syncing    bool
	lastReport *Report
	lastErr    error

	// triggers coalesces automatic triggers for the Start loop: a trigger
	// arriving while one is already pending folds into it.
	triggers chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets the completion sink. Default: none.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callTimeout = d }
}

// WithTokenGenerator replaces the pass token generator. Used by tests for
// deterministic tokens.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithTimeSource replaces the wall clock. Used by tests to pin
// lastSyncTime.
func WithTimeSource(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine draining s against r.
func New(s *store.Store, r Remote, opts ...Option) *Engine {
	e := &Engine{
		store:       s,
		remote:      r,
		tokens:      UUIDv7Generator{},
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
		triggers:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the controller's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.syncing {
		return StateSyncing
	}
	if e.lastErr != nil || (e.lastReport != nil && !e.lastReport.Clean()) {
		return StateIdleWithError
	}
	return StateIdle
}

// LastResult returns the report and pass-level error of the most recent
// pass. The report is nil until a pass has completed.
func (e *Engine) LastResult() (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastReport == nil {
		return nil, e.lastErr
	}
	r := *e.lastReport
	return &r, e.lastErr
}

// Trigger requests an automatic pass from the Start loop. A trigger
// received while a pass is active, or while one is already pending, is a
// no-op. Safe from any goroutine; never blocks.
func (e *Engine) Trigger() {
	e.mu.Lock()
	syncing := e.syncing
	e.mu.Unlock()
	if syncing {
		slog.Debug("sync trigger ignored, pass in progress")
		return
	}
	select {
	case e.triggers <- struct{}{}:
	default:
	}
}

// Start runs the trigger loop until ctx is canceled. Passes execute
// sequentially on this goroutine; pass-level errors are logged and the
// loop continues. Used by watch mode; one-shot callers use RunPass
// directly.
func (e *Engine) Start(ctx context.Context) {
	slog.Info("sync engine starting")
	for {
		select {
		case <-ctx.Done():
			slog.Info("sync engine stopping: context cancelled")
			return
		case <-e.triggers:
			if _, err := e.RunPass(ctx); err != nil && ctx.Err() == nil {
				slog.Error("sync pass aborted", "error", err)
			}
		}
	}
}

// RunPass executes one sync pass and returns its report.
//
// Returns ErrPassInProgress if a pass is already active (single-flight).
// Any other error is pass-level - the store snapshot could not be read -
// and no entries were attempted. Per-entry remote failures never surface
// as an error; they are rolled into the report's failure count.
func (e *Engine) RunPass(ctx context.Context) (Report, error) {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return Report{}, ErrPassInProgress
	}
	e.syncing = true
	e.mu.Unlock()

	report, err := e.pass(ctx)

	e.mu.Lock()
	e.syncing = false
	e.lastErr = err
	if err == nil {
		e.lastReport = &report
	}
	e.mu.Unlock()

	if err == nil && e.sink != nil {
		e.sink.PassCompleted(report)
	}
	return report, err
}

// pass drains one snapshot. Caller holds the single-flight guard.
func (e *Engine) pass(ctx context.Context) (Report, error) {
	report := Report{
		PassToken: e.tokens.Generate(),
		StartedAt: e.now(),
	}

	snapshot, err := e.store.State(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("snapshot queue: %w", err)
	}

	moods := snapshot.UnsyncedMoods()
	memories := snapshot.UnsyncedMemories()
	requests := snapshot.PendingRequests()
	report.Total = len(moods) + len(memories) + len(requests)

	slog.Info("sync pass starting",
		"pass", report.PassToken,
		"moods", len(moods),
		"memories", len(memories),
		"requests", len(requests))

	e.drainMoods(ctx, &report, moods)
	e.drainMemories(ctx, &report, memories)
	e.drainRequests(ctx, &report, requests)

	report.FinishedAt = e.now()
	if err := e.store.SetLastSync(ctx, report.FinishedAt.UnixMilli()); err != nil {
		// The pass itself completed; a lost timestamp only skews the
		// "last synced" display.
		slog.Error("failed to record last sync time", "pass", report.PassToken, "error", err)
	}

	slog.Info("sync pass finished",
		"pass", report.PassToken,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"total", report.Total)
	return report, nil
}

func (e *Engine) drainMoods(ctx context.Context, report *Report, moods []queue.MoodEntry) {
	for _, m := range moods {
		if err := e.call(ctx, func(callCtx context.Context) error {
			return e.remote.PushMood(callCtx, m)
		}); err != nil {
			// No retry counter for moods: the entry stays unsynced and
			// waits for the next pass.
			report.Failed++
			slog.Warn("mood push failed", "pass", report.PassToken, "id", m.ID, "error", err)
			continue
		}
		report.Succeeded++
		if err := e.store.MarkMoodSynced(ctx, m.ID); err != nil {
			// Remote accepted the entry but the local mark was lost; the
			// entry will be re-sent next pass (at-least-once).
			slog.Error("mood synced remotely but local mark failed", "pass", report.PassToken, "id", m.ID, "error", err)
		}
	}
}

func (e *Engine) drainMemories(ctx context.Context, report *Report, memories []queue.MemoryEntry) {
	for _, m := range memories {
		if err := e.call(ctx, func(callCtx context.Context) error {
			return e.remote.PushMemory(callCtx, m)
		}); err != nil {
			report.Failed++
			slog.Warn("memory push failed", "pass", report.PassToken, "id", m.ID, "error", err)
			continue
		}
		report.Succeeded++
		if err := e.store.MarkMemorySynced(ctx, m.ID); err != nil {
			slog.Error("memory synced remotely but local mark failed", "pass", report.PassToken, "id", m.ID, "error", err)
		}
	}
}

func (e *Engine) drainRequests(ctx context.Context, report *Report, requests []queue.QueuedRequest) {
	for _, r := range requests {
		err := e.call(ctx, func(callCtx context.Context) error {
			return e.remote.Do(callCtx, r.Method, r.Endpoint, r.Payload)
		})
		if err == nil {
			report.Succeeded++
			if rmErr := e.store.RemoveRequest(ctx, r.ID); rmErr != nil {
				slog.Error("request delivered but local removal failed", "pass", report.PassToken, "id", r.ID, "error", rmErr)
			}
			continue
		}

		report.Failed++
		switch {
		case api.IsPermanent(err):
			// Retrying cannot fix a permanent rejection; drop now rather
			// than burning the remaining budget across passes.
			slog.Warn("queued request permanently rejected, dropping",
				"pass", report.PassToken, "id", r.ID, "method", r.Method, "endpoint", r.Endpoint, "error", err)
			e.dropRequest(ctx, report.PassToken, r.ID)
		case r.RetryCount+1 < queue.MaxRetries:
			slog.Warn("queued request failed, will retry",
				"pass", report.PassToken, "id", r.ID, "attempt", r.RetryCount+1, "error", err)
			if incErr := e.store.IncrementRetry(ctx, r.ID); incErr != nil {
				slog.Error("retry counter update failed", "pass", report.PassToken, "id", r.ID, "error", incErr)
			}
		default:
			slog.Warn("queued request failed on final attempt, dropping",
				"pass", report.PassToken, "id", r.ID, "attempts", queue.MaxRetries, "error", err)
			e.dropRequest(ctx, report.PassToken, r.ID)
		}
	}
}

func (e *Engine) dropRequest(ctx context.Context, pass string, id int64) {
	if err := e.store.RemoveRequest(ctx, id); err != nil {
		slog.Error("request removal failed", "pass", pass, "id", id, "error", err)
	}
}

// call runs one remote call under the per-call timeout.
func (e *Engine) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return fn(callCtx)
}
