// Package api is the thin client for the remote Lugn & Trygg API that the
// sync engine drains the offline queue against.
//
// Any 2xx response is success. Everything else is a *RemoteError,
// classified by retry-worthiness:
//
//   - Transient: transport failures, 5xx, and 429. Worth retrying on a
//     later pass.
//   - Permanent: every other status. The request is malformed or rejected
//     and will not succeed by retrying.
//
// The classification only drives the retry budget of generic queued
// requests; the server's own semantics are out of scope here.
package api
