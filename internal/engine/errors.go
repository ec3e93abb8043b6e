package engine

import "errors"

// ErrPassInProgress is returned by RunPass when a pass is already active.
// The caller's trigger is a no-op; the active pass's report covers it.
var ErrPassInProgress = errors.New("sync pass already in progress")
