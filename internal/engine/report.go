package engine

import "time"

// Report is the outcome of one completed sync pass, as emitted to the
// completion sink and surfaced in the UI next to the pending count.
type Report struct {
	// PassToken correlates this report with the pass's log lines.
	PassToken string `json:"passToken"`

	// Succeeded is the number of entries confirmed by the remote API.
	Succeeded int `json:"successCount"`

	// Failed is the number of entries whose remote call failed, including
	// requests dropped with their retry budget spent.
	Failed int `json:"failureCount"`

	// Total is the number of entries the pass attempted.
	Total int `json:"totalCount"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Clean reports whether every attempted entry was delivered.
func (r Report) Clean() bool {
	return r.Failed == 0
}

// Sink receives completion events for finished passes. Implementations
// must not block; the engine calls the sink synchronously at the end of
// each pass.
//
// The analytics forwarder in the application layer implements this; tests
// use SinkFunc to capture reports.
type Sink interface {
	PassCompleted(Report)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Report)

// PassCompleted implements Sink.
func (f SinkFunc) PassCompleted(r Report) { f(r) }
