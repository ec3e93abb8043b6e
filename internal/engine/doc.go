// Package engine implements the sync controller that drains the offline
// mutation queue against the remote API.
//
// ARCHITECTURE:
//
// Single-Flight Passes:
// At most one sync pass is active at any time. A trigger received while a
// pass is running is a no-op; there is no pass queueing and no concurrent
// draining. This keeps partial-failure accounting simple and means the
// store is only ever mutated by one pass.
//
// Per-Pass Algorithm:
//  1. Snapshot the unsynced subset of the store (unsynced moods and
//     memories, requests with retry budget left).
//  2. Drain moods in insertion order: one remote call per entry, mark
//     synced on success, leave in place on failure.
//  3. Drain memories the same way.
//  4. Drain requests in insertion order: remove on success; on transient
//     failure bump the retry counter, removing once the budget is spent;
//     on permanent failure remove immediately.
//  5. Record the last-sync timestamp, report success/failure counts to
//     the completion sink, return to idle.
//
// Remote calls are sequential, never fanned out: this bounds load on the
// API and makes one pass's counts trivially attributable. One entry's
// failure never blocks or skips later entries ("continue on error").
//
// Appends that land between remote calls are simply not in the snapshot
// and wait for the next pass; entries are addressed by ID, so a mid-pass
// append can never corrupt the drain.
//
// RETRY POLICY:
//
// Mood and memory entries are user data and are never discarded by the
// engine: a failed push just waits for the next pass. Generic queued
// requests are disposable side effects and get MaxRetries attempts before
// being dropped as permanent failures. Delivery is at-least-once for
// mood/memory and at-most-MaxRetries for requests; the remote API is
// expected to treat pushes idempotently.
//
// Every pass gets a UUIDv7 pass token correlating its log lines and its
// completion report.
package engine
