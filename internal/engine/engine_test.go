package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/api"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/store"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/testutil"
)

var errRemote = &api.RemoteError{Kind: api.Transient, Status: 503, Method: "POST", Endpoint: "/api/moods"}

type fixture struct {
	store  *store.Store
	kv     *store.MemKV
	remote *testutil.ScriptedRemote
	engine *Engine
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	kv := store.NewMemKV()
	now := time.UnixMilli(1700000000000)
	clock := queue.NewClockWithSource(func() time.Time { return now })
	s, err := store.Open(context.Background(), kv, clock)
	require.NoError(t, err)

	remote := testutil.NewScriptedRemote()
	opts = append([]Option{
		WithTokenGenerator(testutil.NewFixedTokens()),
		WithTimeSource(testutil.NewTimeSource(1700000100000).Now),
	}, opts...)

	return &fixture{
		store:  s,
		kv:     kv,
		remote: remote,
		engine: New(s, remote, opts...),
	}
}

func TestEngine_CleanPassDrainsQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m1, err := f.store.AppendMood(ctx, "calm", 3, "")
	require.NoError(t, err)
	m2, err := f.store.AppendMood(ctx, "happy", 8, "")
	require.NoError(t, err)
	mem, err := f.store.AppendMemory(ctx, "walk", "evening walk")
	require.NoError(t, err)
	req, err := f.store.AppendRequest(ctx, "POST", "/api/streak", json.RawMessage(`{"days":3}`))
	require.NoError(t, err)

	report, err := f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 4, report.Total)
	assert.True(t, report.Clean())

	count, err := f.store.UnsyncedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "queue drains to empty on a clean pass")

	st, err := f.store.State(ctx)
	require.NoError(t, err)
	assert.True(t, st.Moods[0].Synced)
	assert.True(t, st.Moods[1].Synced)
	assert.True(t, st.Memories[0].Synced)
	assert.Empty(t, st.Requests, "delivered requests are removed, not marked")
	assert.Equal(t, int64(1700000100000), st.LastSyncTime)

	// Collections drain sequentially, each in insertion order.
	assert.Equal(t, []testutil.Call{
		{Kind: "mood", ID: m1.ID},
		{Kind: "mood", ID: m2.ID},
		{Kind: "memory", ID: mem.ID},
		{Kind: "request", Method: req.Method, Endpoint: req.Endpoint},
	}, f.remote.Calls())
}

func TestEngine_EmptyQueuePass(t *testing.T) {
	f := newFixture(t)

	report, err := f.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Empty(t, f.remote.Calls())
	assert.Equal(t, StateIdle, f.engine.State())
}

// Scenario: one mood appended while offline, connectivity returns, one
// pass drains it.
func TestEngine_OfflineMoodThenDrain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.store.AppendMood(ctx, "anxious", 7, "recorded offline")
	require.NoError(t, err)

	count, err := f.store.UnsyncedCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	report, err := f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	st, err := f.store.State(ctx)
	require.NoError(t, err)
	assert.True(t, st.Moods[0].Synced)
	assert.Equal(t, entry.ID, st.Moods[0].ID)
	assert.Equal(t, 0, st.UnsyncedCount())
}

// Scenario: 2 moods + 1 memory; the memory push fails, both moods
// succeed.
func TestEngine_PartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.AppendMood(ctx, "calm", 3, "")
	require.NoError(t, err)
	_, err = f.store.AppendMood(ctx, "happy", 8, "")
	require.NoError(t, err)
	mem, err := f.store.AppendMemory(ctx, "walk", "evening walk")
	require.NoError(t, err)

	f.remote.StubMemory(mem.ID, errRemote)

	report, err := f.engine.RunPass(ctx)
	require.NoError(t, err, "per-entry failures do not surface as pass errors")
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 3, report.Total)

	count, err := f.store.UnsyncedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed memory stays queued")
	assert.Equal(t, StateIdleWithError, f.engine.State())

	// Next pass picks the memory up again; no retry counter for
	// mood/memory entries.
	f.remote.StubMemory(mem.ID, nil)
	report, err = f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, StateIdle, f.engine.State())
}

func TestEngine_FailureDoesNotBlockLaterEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.store.AppendMood(ctx, "sad", 6, "")
	require.NoError(t, err)
	second, err := f.store.AppendMood(ctx, "calm", 2, "")
	require.NoError(t, err)

	f.remote.StubMood(first.ID, errRemote)

	report, err := f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	st, err := f.store.State(ctx)
	require.NoError(t, err)
	assert.False(t, st.Moods[0].Synced, "failed entry left as-is")
	assert.True(t, st.Moods[1].Synced, "later entry still attempted")
	_ = second
}

// Scenario: a request failing transiently on every attempt gains exactly
// one retry per pass and is dropped on the pass where the budget would be
// spent.
func TestEngine_RequestRetryBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.store.AppendRequest(ctx, "POST", "/api/streak", nil)
	require.NoError(t, err)
	f.remote.StubRequest("/api/streak", errRemote)

	// Pass 1: retryCount 0 -> 1.
	report, err := f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	st, err := f.store.State(ctx)
	require.NoError(t, err)
	require.Len(t, st.Requests, 1)
	assert.Equal(t, 1, st.Requests[0].RetryCount)

	// Pass 2: retryCount 1 -> 2.
	_, err = f.engine.RunPass(ctx)
	require.NoError(t, err)
	st, err = f.store.State(ctx)
	require.NoError(t, err)
	require.Len(t, st.Requests, 1)
	assert.Equal(t, 2, st.Requests[0].RetryCount)

	// Pass 3: final attempt fails, request dropped.
	report, err = f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	st, err = f.store.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Requests, "request removed once budget is spent")

	// Exactly one remote attempt per pass.
	attempts := 0
	for _, c := range f.remote.Calls() {
		if c.Kind == "request" {
			attempts++
		}
	}
	assert.Equal(t, queue.MaxRetries, attempts)
	_ = req
}

func TestEngine_PermanentFailureDropsRequestImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.AppendRequest(ctx, "POST", "/api/streak", nil)
	require.NoError(t, err)
	f.remote.StubRequest("/api/streak", &api.RemoteError{Kind: api.Permanent, Status: 400, Method: "POST", Endpoint: "/api/streak"})

	report, err := f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	st, err := f.store.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Requests, "a 4xx will not succeed by retrying")
}

func TestEngine_PermanentFailureNeverDropsMoods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.store.AppendMood(ctx, "calm", 3, "")
	require.NoError(t, err)
	f.remote.StubMood(entry.ID, &api.RemoteError{Kind: api.Permanent, Status: 422, Method: "POST", Endpoint: "/api/moods"})

	_, err = f.engine.RunPass(ctx)
	require.NoError(t, err)

	st, err := f.store.State(ctx)
	require.NoError(t, err)
	require.Len(t, st.Moods, 1)
	assert.False(t, st.Moods[0].Synced, "user data is never discarded by the engine")
}

func TestEngine_SingleFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.AppendMood(ctx, "calm", 3, "")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.remote.OnCall = func(testutil.Call) {
		close(entered)
		<-release
	}

	done := make(chan Report, 1)
	go func() {
		report, err := f.engine.RunPass(ctx)
		require.NoError(t, err)
		done <- report
	}()

	<-entered
	assert.Equal(t, StateSyncing, f.engine.State())

	// Second trigger while syncing is a no-op.
	_, err = f.engine.RunPass(ctx)
	assert.ErrorIs(t, err, ErrPassInProgress)

	close(release)
	report := <-done
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, StateIdle, f.engine.State())

	calls := f.remote.Calls()
	assert.Len(t, calls, 1, "exactly one active pass attempted the entry")
}

func TestEngine_TriggerIgnoredWhileSyncing(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := f.store.AppendMood(ctx, "calm", 3, "")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once bool
	f.remote.OnCall = func(testutil.Call) {
		if !once {
			once = true
			close(entered)
			<-release
		}
	}

	loopDone := make(chan struct{})
	go func() {
		f.engine.Start(ctx)
		close(loopDone)
	}()

	f.engine.Trigger()
	<-entered

	// Triggers during the pass are dropped, not queued.
	f.engine.Trigger()
	f.engine.Trigger()
	close(release)

	assert.Eventually(t, func() bool { return f.engine.State() != StateSyncing },
		time.Second, 5*time.Millisecond)

	cancel()
	<-loopDone

	calls := f.remote.Calls()
	assert.Len(t, calls, 1, "dropped triggers do not produce extra passes")
}

func TestEngine_MidPassAppendDeferredToNextPass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.store.AppendMood(ctx, "calm", 3, "")
	require.NoError(t, err)

	var appended int64
	f.remote.OnCall = func(c testutil.Call) {
		if c.Kind == "mood" && c.ID == first.ID {
			entry, err := f.store.AppendMood(ctx, "surprised", 5, "appended mid-pass")
			require.NoError(t, err)
			appended = entry.ID
		}
	}

	report, err := f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total, "mid-pass append is not in the snapshot")

	count, err := f.store.UnsyncedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	report, err = f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	st, err := f.store.State(ctx)
	require.NoError(t, err)
	for _, m := range st.Moods {
		if m.ID == appended {
			assert.True(t, m.Synced)
		}
	}
}

func TestEngine_PassLevelErrorPropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.kv.GetErr = errors.New("backend gone")

	_, err := f.engine.RunPass(ctx)
	require.Error(t, err, "an unreadable store aborts the pass")
	assert.Equal(t, StateIdleWithError, f.engine.State())

	_, lastErr := f.engine.LastResult()
	assert.Error(t, lastErr)

	f.kv.GetErr = nil
	_, err = f.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, f.engine.State())
}

func TestEngine_SinkReceivesReport(t *testing.T) {
	var got []Report
	f := newFixture(t, WithSink(SinkFunc(func(r Report) { got = append(got, r) })))
	ctx := context.Background()

	entry, err := f.store.AppendMood(ctx, "calm", 3, "")
	require.NoError(t, err)
	f.remote.StubMood(entry.ID, errRemote)
	_, err = f.store.AppendMemory(ctx, "walk", "x")
	require.NoError(t, err)

	_, err = f.engine.RunPass(ctx)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Succeeded)
	assert.Equal(t, 1, got[0].Failed)
	assert.Equal(t, 2, got[0].Total)
	assert.NotEmpty(t, got[0].PassToken)
}

func TestEngine_LastResultIsACopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.RunPass(ctx)
	require.NoError(t, err)

	first, _ := f.engine.LastResult()
	require.NotNil(t, first)
	first.Succeeded = 99

	second, _ := f.engine.LastResult()
	assert.Zero(t, second.Succeeded)
}
