package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_UnsyncedSubsets(t *testing.T) {
	s := NewState()
	s.Moods = []MoodEntry{
		{ID: 1, Mood: "calm", Synced: true},
		{ID: 2, Mood: "anxious"},
		{ID: 3, Mood: "happy"},
	}
	s.Memories = []MemoryEntry{
		{ID: 1, Title: "walk", Synced: true},
		{ID: 2, Title: "call"},
	}
	s.Requests = []QueuedRequest{
		{ID: 1, Method: "POST", Endpoint: "/api/streak", RetryCount: 0},
		{ID: 2, Method: "DELETE", Endpoint: "/api/memory/7", RetryCount: MaxRetries},
	}

	moods := s.UnsyncedMoods()
	require.Len(t, moods, 2)
	assert.Equal(t, int64(2), moods[0].ID, "insertion order preserved")
	assert.Equal(t, int64(3), moods[1].ID)

	require.Len(t, s.UnsyncedMemories(), 1)

	reqs := s.PendingRequests()
	require.Len(t, reqs, 1, "requests at MaxRetries are excluded")
	assert.Equal(t, int64(1), reqs[0].ID)

	assert.Equal(t, 4, s.UnsyncedCount())
}

func TestState_UnsyncedCount_Empty(t *testing.T) {
	assert.Equal(t, 0, NewState().UnsyncedCount())
}

func TestState_Clone_DoesNotAlias(t *testing.T) {
	s := NewState()
	s.Moods = []MoodEntry{{ID: 1, Mood: "calm"}}
	s.Requests = []QueuedRequest{{ID: 2, Method: "POST", Payload: json.RawMessage(`{"a":1}`)}}
	s.LastSyncTime = 42

	c := s.Clone()
	c.Moods[0].Synced = true
	c.Requests[0].Payload[2] = 'b'
	c.LastSyncTime = 0

	assert.False(t, s.Moods[0].Synced, "clone must not alias mood slice")
	assert.Equal(t, json.RawMessage(`{"a":1}`), s.Requests[0].Payload, "clone must not alias payload bytes")
	assert.Equal(t, int64(42), s.LastSyncTime)
}

func TestState_PersistedShape(t *testing.T) {
	// The persisted document must carry all three arrays and the
	// lastSyncTime key even when empty.
	data, err := json.Marshal(NewState())
	require.NoError(t, err)
	assert.JSONEq(t, `{"moods":[],"memories":[],"queuedRequests":[],"lastSyncTime":0}`, string(data))
}
