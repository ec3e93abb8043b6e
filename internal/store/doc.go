// Package store provides durable storage for the offline mutation queue.
//
// The whole queue lives in one JSON document under a single fixed key in a
// key-value store. Every mutating call performs a full read-modify-write
// of that document: read the current document, apply the mutation, write
// the document back. There is no transactional isolation across calls;
// safety relies on all mutation happening through one Store value, which
// serializes calls with an internal mutex.
//
// The key-value backend is an injected port (KV), so tests substitute an
// in-memory double (MemKV) for the production SQLite backend (SQLiteKV).
//
// # Failure semantics
//
// If the backend write fails (disk full, serialization error), the call
// logs the error and returns a *PersistenceError; the previously persisted
// document is unchanged and the attempted mutation is lost. The store does
// not buffer or replay failed writes. This is a documented limitation
// carried over from the platform the engine replaces, not an oversight.
//
// # Database configuration (SQLite backend)
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single connection: SQLite allows one writer at a time
package store
