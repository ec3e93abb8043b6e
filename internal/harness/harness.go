// Package harness provides a scenario harness for end-to-end sync engine
// tests.
//
// A harness wires a fully in-memory engine - MemKV store, scripted
// remote, pinned clocks, fixed pass tokens - so scenarios produce
// byte-identical queue documents on every run. Scenarios assert on pass
// reports directly and compare the final persisted document against
// golden files (go test ./internal/harness -update to regenerate).
package harness

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/engine"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/recorder"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/store"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/testutil"
)

// Base timestamps for the pinned clocks. Entry IDs count up from
// baseEntryID; pass completion times count up from basePassTime in
// one-minute steps.
const (
	baseEntryID  = 1700000000000
	basePassTime = 1700000100000
)

// Harness is one scenario execution environment.
type Harness struct {
	t *testing.T

	Store    *store.Store
	Remote   *testutil.ScriptedRemote
	Engine   *engine.Engine
	Recorder *recorder.Recorder

	// Reports collects every completed pass, in order, via the engine's
	// completion sink.
	Reports []engine.Report

	time *testutil.TimeSource
}

// New creates a deterministic in-memory harness.
func New(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		t:      t,
		Remote: testutil.NewScriptedRemote(),
		time:   testutil.NewTimeSource(basePassTime),
	}

	entryClock := queue.NewClockWithSource(func() time.Time {
		return time.UnixMilli(baseEntryID)
	})
	s, err := store.Open(context.Background(), store.NewMemKV(), entryClock)
	require.NoError(t, err)
	h.Store = s
	h.Recorder = recorder.New(s)

	h.Engine = engine.New(s, h.Remote,
		engine.WithTokenGenerator(testutil.NewFixedTokens()),
		engine.WithTimeSource(h.time.Now),
		engine.WithSink(engine.SinkFunc(func(r engine.Report) {
			h.Reports = append(h.Reports, r)
		})),
	)
	return h
}

// RecordMood appends a mood entry through the recorder.
func (h *Harness) RecordMood(mood string, intensity int, notes string) queue.MoodEntry {
	h.t.Helper()
	entry, err := h.Recorder.RecordMood(context.Background(), recorder.MoodInput{
		Mood:      mood,
		Intensity: intensity,
		Notes:     notes,
	})
	require.NoError(h.t, err)
	return entry
}

// RecordMemory appends a memory entry through the recorder.
func (h *Harness) RecordMemory(title, content string) queue.MemoryEntry {
	h.t.Helper()
	entry, err := h.Recorder.RecordMemory(context.Background(), recorder.MemoryInput{
		Title:   title,
		Content: content,
	})
	require.NoError(h.t, err)
	return entry
}

// QueueRequest appends a captured API call through the recorder.
func (h *Harness) QueueRequest(method, endpoint string, payload json.RawMessage) queue.QueuedRequest {
	h.t.Helper()
	entry, err := h.Recorder.QueueRequest(context.Background(), recorder.RequestInput{
		Method:   method,
		Endpoint: endpoint,
		Payload:  payload,
	})
	require.NoError(h.t, err)
	return entry
}

// RunPass executes one sync pass and advances the pinned clock by one
// minute, so consecutive passes get distinct lastSyncTime values.
func (h *Harness) RunPass() engine.Report {
	h.t.Helper()
	report, err := h.Engine.RunPass(context.Background())
	require.NoError(h.t, err)
	h.time.Advance(time.Minute)
	return report
}

// State returns the current queue document.
func (h *Harness) State() *queue.State {
	h.t.Helper()
	st, err := h.Store.State(context.Background())
	require.NoError(h.t, err)
	return st
}

// UnsyncedCount returns the pending-mutation count across collections.
func (h *Harness) UnsyncedCount() int {
	return h.State().UnsyncedCount()
}

// VerifyGolden compares the persisted queue document against
// testdata/{name}.golden.
func (h *Harness) VerifyGolden(name string) {
	h.t.Helper()

	data, err := json.MarshalIndent(h.State(), "", "  ")
	require.NoError(h.t, err)

	g := goldie.New(h.t)
	g.Assert(h.t, name, append(data, '\n'))
}
