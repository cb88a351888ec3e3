package service

// State is the sync orchestrator's position in its lifecycle state machine.
//
//	Uninitialized → NotConfigured | NeedsPermission | Ready
//	Ready ⇄ Saving / Loading (transient)
//	any → Error (recoverable, never fatal)
type State string

const (
	// StateUninitialized is the state before Initialize has run.
	StateUninitialized State = "uninitialized"

	// StateNotConfigured means no storage capability exists; the local
	// cache is the only data source.
	StateNotConfigured State = "not_configured"

	// StateNeedsPermission means a capability exists but its scope needs
	// reconfirmation by a user gesture.
	StateNeedsPermission State = "needs_permission"

	// StateReady means the capability is usable and no operation is in
	// flight.
	StateReady State = "ready"

	// StateSaving and StateLoading are transient; they return to Ready on
	// success.
	StateSaving  State = "saving"
	StateLoading State = "loading"

	// StateError is entered on failures worth showing the user. It is
	// always recoverable back to a stable state, never fatal.
	StateError State = "error"
)

// StateSnapshot is the externally visible state of the orchestrator,
// delivered to subscribers on every transition and via the polling accessor.
type StateSnapshot struct {
	// State is the current machine state.
	State State

	// Reason is a short human-readable explanation for Error and
	// NeedsPermission states, or the most recent save failure while the
	// session stays Ready; empty otherwise.
	Reason string

	// CapabilityName is the display name of the configured storage
	// location, when one exists.
	CapabilityName string

	// EncryptionEnabled reports whether the configured location expects a
	// password, as recorded on the capability descriptor. Known before any
	// file read, so the UI can prompt up front.
	EncryptionEnabled bool

	// ReadOnlyPendingPermission is set when the session fell back to the
	// local cache because the capability's scope needs reconfirmation;
	// writes to the file are withheld until the user re-grants.
	ReadOnlyPendingPermission bool

	// OfferCacheFallback is set after the wrong-password retry budget is
	// exhausted on load; the UI should offer continuing from the local
	// cache instead of re-prompting.
	OfferCacheFallback bool
}
