// Package recorder is the entry point application code uses to append
// pending mutations to the offline queue. It validates input and
// normalizes user text before anything reaches the durable store, so the
// queue only ever holds entries the remote API could accept.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/store"
)

// MoodInput is a mood log as captured from the user.
type MoodInput struct {
	Mood      string `validate:"required,max=100"`
	Intensity int    `validate:"min=1,max=10"`
	Notes     string `validate:"max=2000"`
}

// MemoryInput is a memory/journal record as captured from the user.
type MemoryInput struct {
	Title   string `validate:"required,max=200"`
	Content string `validate:"required,max=10000"`
}

// RequestInput is an arbitrary API call to capture for later replay.
type RequestInput struct {
	Method   string          `validate:"required,oneof=GET POST PUT PATCH DELETE"`
	Endpoint string          `validate:"required,startswith=/"`
	Payload  json.RawMessage `validate:"omitempty,json"`
}

// Recorder validates and appends pending mutations.
type Recorder struct {
	store    *store.Store
	validate *validator.Validate
}

// New creates a Recorder over the given store.
func New(s *store.Store) *Recorder {
	return &Recorder{
		store:    s,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RecordMood validates and appends a mood entry. User text is NFC
// normalized so the same input always produces the same stored bytes.
func (r *Recorder) RecordMood(ctx context.Context, in MoodInput) (queue.MoodEntry, error) {
	if err := r.validate.Struct(in); err != nil {
		return queue.MoodEntry{}, fmt.Errorf("invalid mood entry: %w", err)
	}
	return r.store.AppendMood(ctx, norm.NFC.String(in.Mood), in.Intensity, norm.NFC.String(in.Notes))
}

// RecordMemory validates and appends a memory entry.
func (r *Recorder) RecordMemory(ctx context.Context, in MemoryInput) (queue.MemoryEntry, error) {
	if err := r.validate.Struct(in); err != nil {
		return queue.MemoryEntry{}, fmt.Errorf("invalid memory entry: %w", err)
	}
	return r.store.AppendMemory(ctx, norm.NFC.String(in.Title), norm.NFC.String(in.Content))
}

// QueueRequest validates and appends a captured API request.
func (r *Recorder) QueueRequest(ctx context.Context, in RequestInput) (queue.QueuedRequest, error) {
	if err := r.validate.Struct(in); err != nil {
		return queue.QueuedRequest{}, fmt.Errorf("invalid queued request: %w", err)
	}
	return r.store.AppendRequest(ctx, in.Method, in.Endpoint, in.Payload)
}
