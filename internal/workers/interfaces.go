// Package workers provides the background save machinery of the sync
// engine: a debounced, coalescing scheduler that turns bursts of entity
// mutations into single file writes.
package workers

import "context"

// SaveFunc performs one save of the current application snapshot. The
// scheduler guarantees at most one invocation is running at a time.
type SaveFunc func(ctx context.Context) error

// SaveScheduler is the debounced save scheduler consumed by the sync
// orchestrator.
type SaveScheduler interface {
	// Schedule (re)arms the quiet-period timer. A call while the timer is
	// already armed resets it rather than queueing a second save; a call
	// while a save is in flight coalesces into one follow-up save.
	Schedule()

	// Flush issues a save immediately, bypassing the quiet period. If a
	// save is already in flight, Flush waits for it to finish and then
	// runs its own save, so the data is durable when Flush returns.
	Flush(ctx context.Context) error

	// Cancel disarms any pending timer and drops the follow-up request.
	// If a save is in flight, Cancel blocks until it finishes; a write
	// that has started is never torn down mid-file. The scheduler remains
	// usable after Cancel.
	Cancel()
}
