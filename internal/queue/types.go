package queue

import "encoding/json"

// MaxRetries is the upper bound on failed delivery attempts for a queued
// request before it is discarded as a permanent failure.
const MaxRetries = 3

// MoodEntry is a pending mood log awaiting remote confirmation.
type MoodEntry struct {
	ID        int64  `json:"id"`
	Mood      string `json:"mood"`
	Intensity int    `json:"intensity"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	Synced    bool   `json:"synced"`
}

// MemoryEntry is a pending memory/journal record awaiting remote
// confirmation.
type MemoryEntry struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	Synced    bool   `json:"synced"`
}

// QueuedRequest is an arbitrary captured API call with a bounded retry
// budget. Unlike mood and memory entries it is removed (not marked) on
// success, and dropped once RetryCount reaches MaxRetries.
type QueuedRequest struct {
	ID         int64           `json:"id"`
	Method     string          `json:"method"`
	Endpoint   string          `json:"endpoint"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  int64           `json:"createdAt"`
	RetryCount int             `json:"retryCount"`
}

// State is the full queue document as persisted: three collections plus
// the timestamp of the last completed sync pass (unix milliseconds, zero
// if no pass has completed).
type State struct {
	Moods        []MoodEntry     `json:"moods"`
	Memories     []MemoryEntry   `json:"memories"`
	Requests     []QueuedRequest `json:"queuedRequests"`
	LastSyncTime int64           `json:"lastSyncTime"`
}

// NewState returns an empty queue state with non-nil collections, so the
// persisted document always carries all three arrays.
func NewState() *State {
	return &State{
		Moods:    []MoodEntry{},
		Memories: []MemoryEntry{},
		Requests: []QueuedRequest{},
	}
}

// UnsyncedMoods returns the mood entries still awaiting confirmation, in
// insertion order.
func (s *State) UnsyncedMoods() []MoodEntry {
	var out []MoodEntry
	for _, m := range s.Moods {
		if !m.Synced {
			out = append(out, m)
		}
	}
	return out
}

// UnsyncedMemories returns the memory entries still awaiting confirmation,
// in insertion order.
func (s *State) UnsyncedMemories() []MemoryEntry {
	var out []MemoryEntry
	for _, m := range s.Memories {
		if !m.Synced {
			out = append(out, m)
		}
	}
	return out
}

// PendingRequests returns the queued requests that still have retry budget
// left, in insertion order. Requests at or past MaxRetries should not
// exist in a well-formed state, but are excluded defensively.
func (s *State) PendingRequests() []QueuedRequest {
	var out []QueuedRequest
	for _, r := range s.Requests {
		if r.RetryCount < MaxRetries {
			out = append(out, r)
		}
	}
	return out
}

// UnsyncedCount is the number of pending mutations across all three
// collections. This is the count surfaced to the UI.
func (s *State) UnsyncedCount() int {
	return len(s.UnsyncedMoods()) + len(s.UnsyncedMemories()) + len(s.PendingRequests())
}

// Clone returns a deep copy of the state. Payloads are copied so a
// snapshot cannot alias the live document.
func (s *State) Clone() *State {
	out := &State{
		Moods:        make([]MoodEntry, len(s.Moods)),
		Memories:     make([]MemoryEntry, len(s.Memories)),
		Requests:     make([]QueuedRequest, len(s.Requests)),
		LastSyncTime: s.LastSyncTime,
	}
	copy(out.Moods, s.Moods)
	copy(out.Memories, s.Memories)
	copy(out.Requests, s.Requests)
	for i, r := range s.Requests {
		if r.Payload != nil {
			p := make(json.RawMessage, len(r.Payload))
			copy(p, r.Payload)
			out.Requests[i].Payload = p
		}
	}
	return out
}
