package api

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a failed remote call by retry-worthiness.
type ErrorKind int

const (
	// Transient failures (network, 5xx, 429) may succeed on a later pass.
	Transient ErrorKind = iota + 1
	// Permanent failures (other non-2xx) will not succeed by retrying.
	Permanent
)

// String returns "transient" or "permanent" for log output.
func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// RemoteError reports a failed remote call. Status is zero when the
// failure happened before a response arrived (transport error).
type RemoteError struct {
	Kind     ErrorKind
	Status   int // HTTP status, 0 for transport failures
	Method   string
	Endpoint string
	Err      error // underlying transport error, nil for status failures
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Endpoint, e.Status)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err is a remote failure that retrying
// cannot fix. Unknown errors are treated as transient, which errs on the
// side of retrying.
func IsPermanent(err error) bool {
	var rerr *RemoteError
	if errors.As(err, &rerr) {
		return rerr.Kind == Permanent
	}
	return false
}
