package invoke

import "errors"

var (
	// ErrTimeout indicates the tier deadline elapsed before the backend produced a result.
	ErrTimeout = errors.New("invocation timed out")

	// ErrInvocationFailed indicates the backend reported a failure. The message
	// carries the backend's diagnostic output.
	ErrInvocationFailed = errors.New("invocation failed")

	// ErrBackendExited indicates the backend ended without producing a result:
	// a process killed before exiting, or a transport that dropped mid-call.
	ErrBackendExited = errors.New("backend ended without a result")

	// ErrMalformedOutput indicates the backend returned content that could not
	// be parsed into the requested shape. The message carries the raw text.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrUnknownTier indicates a request named a tier with no configured timeout.
	ErrUnknownTier = errors.New("unknown invocation tier")
)

// Transient reports whether err warrants a retry under the invocation policy.
// Timeouts and backends that ended without a result are transient; explicit
// backend failures and malformed output are not.
func Transient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrBackendExited)
}
