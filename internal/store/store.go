package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
)

// DocumentKey is the fixed key the queue document is stored under.
const DocumentKey = "lugn_trygg_offline_queue"

// PersistenceError reports a failed read or write of the queue document.
// The previously persisted document is unchanged; the attempted mutation
// is lost.
type PersistenceError struct {
	Op  string // the store operation that failed
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store is the durable mutation queue. It owns the JSON queue document
// under DocumentKey and is the only writer to it.
//
// All mutating calls are full read-modify-write cycles against the KV
// backend, serialized by an internal mutex. Entry IDs are issued by the
// clock; Open seeds the clock past every ID already in the document so
// restarts never reissue an ID.
type Store struct {
	mu    sync.Mutex
	kv    KV
	clock *queue.Clock
}

// Open creates a Store over the given backend. It reads the existing
// document (if any) to verify it parses and to seed the ID clock.
func Open(ctx context.Context, kv KV, clock *queue.Clock) (*Store, error) {
	s := &Store{kv: kv, clock: clock}

	st, err := s.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	for _, m := range st.Moods {
		clock.Observe(m.ID)
	}
	for _, m := range st.Memories {
		clock.Observe(m.ID)
	}
	for _, r := range st.Requests {
		clock.Observe(r.ID)
	}
	return s, nil
}

// State returns a snapshot of the queue document. The snapshot is a deep
// copy; mutating it does not affect the store.
func (s *Store) State(ctx context.Context) (*queue.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// UnsyncedCount returns the number of pending mutations across all three
// collections. Surfaced to the UI next to the sync status.
func (s *Store) UnsyncedCount(ctx context.Context) (int, error) {
	st, err := s.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.UnsyncedCount(), nil
}

// AppendMood appends a pending mood entry and returns it with its
// assigned ID.
func (s *Store) AppendMood(ctx context.Context, mood string, intensity int, notes string) (queue.MoodEntry, error) {
	id := s.clock.Next()
	entry := queue.MoodEntry{
		ID:        id,
		Mood:      mood,
		Intensity: intensity,
		Notes:     notes,
		CreatedAt: id,
	}
	err := s.mutate(ctx, "append mood", func(st *queue.State) {
		st.Moods = append(st.Moods, entry)
	})
	if err != nil {
		return queue.MoodEntry{}, err
	}
	return entry, nil
}

// AppendMemory appends a pending memory entry and returns it with its
// assigned ID.
func (s *Store) AppendMemory(ctx context.Context, title, content string) (queue.MemoryEntry, error) {
	id := s.clock.Next()
	entry := queue.MemoryEntry{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: id,
	}
	err := s.mutate(ctx, "append memory", func(st *queue.State) {
		st.Memories = append(st.Memories, entry)
	})
	if err != nil {
		return queue.MemoryEntry{}, err
	}
	return entry, nil
}

// AppendRequest appends a captured API request and returns it with its
// assigned ID. The payload bytes are copied.
func (s *Store) AppendRequest(ctx context.Context, method, endpoint string, payload json.RawMessage) (queue.QueuedRequest, error) {
	id := s.clock.Next()
	entry := queue.QueuedRequest{
		ID:        id,
		Method:    method,
		Endpoint:  endpoint,
		CreatedAt: id,
	}
	if payload != nil {
		entry.Payload = make(json.RawMessage, len(payload))
		copy(entry.Payload, payload)
	}
	err := s.mutate(ctx, "append request", func(st *queue.State) {
		st.Requests = append(st.Requests, entry)
	})
	if err != nil {
		return queue.QueuedRequest{}, err
	}
	return entry, nil
}

// MarkMoodSynced marks the mood entry with the given ID as delivered.
// Idempotent: marking an already-synced or unknown ID is a no-op.
func (s *Store) MarkMoodSynced(ctx context.Context, id int64) error {
	return s.mutate(ctx, "mark mood synced", func(st *queue.State) {
		for i := range st.Moods {
			if st.Moods[i].ID == id {
				st.Moods[i].Synced = true
				return
			}
		}
	})
}

// MarkMemorySynced marks the memory entry with the given ID as delivered.
// Idempotent: marking an already-synced or unknown ID is a no-op.
func (s *Store) MarkMemorySynced(ctx context.Context, id int64) error {
	return s.mutate(ctx, "mark memory synced", func(st *queue.State) {
		for i := range st.Memories {
			if st.Memories[i].ID == id {
				st.Memories[i].Synced = true
				return
			}
		}
	})
}

// RemoveRequest removes the queued request with the given ID, either
// because it was delivered or because its retry budget is spent.
// Idempotent: removing an unknown ID is a no-op.
func (s *Store) RemoveRequest(ctx context.Context, id int64) error {
	return s.mutate(ctx, "remove request", func(st *queue.State) {
		for i := range st.Requests {
			if st.Requests[i].ID == id {
				st.Requests = append(st.Requests[:i], st.Requests[i+1:]...)
				return
			}
		}
	})
}

// IncrementRetry bumps the retry counter of the queued request with the
// given ID. Unknown IDs are a no-op.
func (s *Store) IncrementRetry(ctx context.Context, id int64) error {
	return s.mutate(ctx, "increment retry", func(st *queue.State) {
		for i := range st.Requests {
			if st.Requests[i].ID == id {
				st.Requests[i].RetryCount++
				return
			}
		}
	})
}

// SetLastSync records the completion time of a sync pass in unix
// milliseconds.
func (s *Store) SetLastSync(ctx context.Context, ts int64) error {
	return s.mutate(ctx, "set last sync", func(st *queue.State) {
		st.LastSyncTime = ts
	})
}

// read loads and parses the document. Callers must hold s.mu (or be Open,
// which runs before the store is shared).
func (s *Store) read(ctx context.Context) (*queue.State, error) {
	data, ok, err := s.kv.Get(ctx, DocumentKey)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	if !ok {
		return queue.NewState(), nil
	}

	st := queue.NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, &PersistenceError{Op: "read", Err: fmt.Errorf("corrupt queue document: %w", err)}
	}
	return st, nil
}

// mutate runs one read-modify-write cycle: load the document, apply fn,
// write the document back. On write failure the previously persisted
// document is untouched and the mutation is lost; the error is logged
// here and returned as a *PersistenceError.
func (s *Store) mutate(ctx context.Context, op string, fn func(*queue.State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read(ctx)
	if err != nil {
		slog.Error("queue document read failed", "op", op, "error", err)
		return err
	}

	fn(st)

	data, err := json.Marshal(st)
	if err != nil {
		slog.Error("queue document serialization failed", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	if err := s.kv.Set(ctx, DocumentKey, data); err != nil {
		slog.Error("queue document write failed, mutation lost", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}
