package engine

import "github.com/google/uuid"

// TokenGenerator generates pass tokens for log/report correlation.
// Implemented by UUIDv7Generator (production) and testutil.FixedTokens.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 pass tokens, so tokens
// sort by pass start time in logs and dashboards.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
