package service

import "errors"

// The sync error taxonomy. Each class has a distinct recovery path:
// permission errors need a fresh user gesture, password errors a re-prompt,
// format errors a different file, transient errors just the next debounce
// cycle. Callers match with [errors.Is].
var (
	// ErrPermissionDenied is returned when the user declined a permission
	// request or the storage scope was revoked externally. Recoverable via
	// a new grant.
	ErrPermissionDenied = errors.New("storage permission denied")

	// ErrTransientIO wraps storage failures that are expected to clear on
	// their own (device busy, file temporarily unavailable). The next
	// debounced save or an explicit retry picks them up; configured state
	// is never cleared in response.
	ErrTransientIO = errors.New("transient storage error")

	// ErrNotReady is returned when an operation requires the Ready state
	// (e.g. save with no configured storage).
	ErrNotReady = errors.New("sync storage is not ready")

	// ErrNoUserGesture is returned when RequestPermission is invoked
	// programmatically. Permission prompts may only follow a user action.
	ErrNoUserGesture = errors.New("permission request requires a user gesture")

	// ErrPasswordRequired is returned when the sync file is encrypted, no
	// password was supplied, and none is cached for the session.
	ErrPasswordRequired = errors.New("password required for encrypted sync file")
)
