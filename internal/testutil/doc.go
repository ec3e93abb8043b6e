// Package testutil provides deterministic doubles for sync engine tests:
// a scripted remote API, fixed pass tokens, and a controllable time
// source. Tests combine these with store.MemKV to run fully in memory
// with reproducible IDs, tokens, and outcomes.
package testutil
