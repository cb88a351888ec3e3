package capability

import "errors"

var (
	// ErrCancelled is returned by [Provider.Pick] when the user dismissed
	// the selection prompt. It is not a failure; callers treat it as a
	// no-op and return to their prior state.
	ErrCancelled = errors.New("storage selection cancelled")

	// ErrNotSupported is returned when the host platform cannot grant
	// scoped storage handles.
	ErrNotSupported = errors.New("scoped storage handles not supported on this platform")

	// ErrNoScope is returned by handle reads and writes when the currently
	// granted scope does not allow the operation.
	ErrNoScope = errors.New("storage scope does not permit this operation")
)
