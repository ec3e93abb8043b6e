// Package queue defines the pending-mutation data model for the offline
// sync engine.
//
// The queue holds three collections of pending mutations awaiting remote
// confirmation:
//   - Mood entries: mood logs recorded while offline (or online, if the
//     immediate write failed)
//   - Memory entries: journal/memory records
//   - Queued requests: arbitrary captured API calls with a bounded retry
//     budget
//
// ORDERING:
//
// Entry IDs are issued by a monotonic millisecond clock (Clock). IDs are
// unique within a collection and strictly increasing, so insertion order
// and ID order coincide. The sync engine drains each collection in
// insertion order; all ordering decisions use IDs, never re-read wall
// time.
//
// LIFECYCLE:
//
// Entries are created by the recorder and mutated only by the sync engine:
// synced flips false->true exactly once (mood/memory), retryCount only
// increases (requests), and requests are removed once their retry budget
// is spent. Synced mood/memory entries are retained for audit until an
// external collaborator clears them.
package queue
