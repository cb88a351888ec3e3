package workers

import (
	"context"
	"sync"
	"time"

	"famledger/internal/logger"
)

type debouncedSaver struct {
	save  SaveFunc
	quiet time.Duration
	log   *logger.Logger

	mu       sync.Mutex
	timer    *time.Timer
	armed    bool
	inFlight bool
	pending  bool
	wg       sync.WaitGroup
}

// NewDebouncedSaver creates a [SaveScheduler] that invokes save after quiet
// has elapsed with no further Schedule calls. If quiet is zero or negative it
// defaults to 2 seconds.
func NewDebouncedSaver(save SaveFunc, quiet time.Duration, log *logger.Logger) SaveScheduler {
	if quiet <= 0 {
		quiet = 2 * time.Second
	}
	return &debouncedSaver{save: save, quiet: quiet, log: log}
}

func (d *debouncedSaver) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = true
	d.timer = time.AfterFunc(d.quiet, d.fire)
}

// Flush consumes the pending timer and saves synchronously. If a save is
// already writing, Flush waits for it to finish and then issues its own save,
// so a caller on the shutdown path knows the last write is durable when Flush
// returns.
func (d *debouncedSaver) Flush(ctx context.Context) error {
	for {
		d.mu.Lock()
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		d.armed = false
		if !d.inFlight {
			d.inFlight = true
			d.wg.Add(1)
			d.mu.Unlock()
			break
		}
		// the flush save below covers whatever the follow-up would have
		d.pending = false
		d.mu.Unlock()
		d.wg.Wait()
	}

	err := d.save(ctx)
	d.finish()
	return err
}

func (d *debouncedSaver) Cancel() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// disarm so a timer callback that already fired but has not taken the
	// lock yet bails out instead of starting a save
	d.armed = false
	d.pending = false
	d.mu.Unlock()

	// an in-flight save is allowed to finish; only the not-yet-started one
	// is cancelled
	d.wg.Wait()
}

// fire runs on timer expiry.
func (d *debouncedSaver) fire() {
	d.mu.Lock()
	if !d.armed {
		// cancelled or flushed between the timer firing and this callback
		// acquiring the lock
		d.mu.Unlock()
		return
	}
	d.armed = false
	d.timer = nil
	if d.inFlight {
		d.pending = true
		d.mu.Unlock()
		return
	}
	d.inFlight = true
	d.wg.Add(1)
	d.mu.Unlock()

	if err := d.save(context.Background()); err != nil {
		// surfaced to the orchestrator's subscribers by the save func
		// itself; the next debounce cycle is the retry
		d.log.Warn().Err(err).Msg("debounced save failed")
	}
	d.finish()
}

// finish clears the in-flight mark and issues the coalesced follow-up save,
// if one was requested while the save ran.
func (d *debouncedSaver) finish() {
	d.mu.Lock()
	d.inFlight = false
	again := d.pending
	d.pending = false
	d.mu.Unlock()
	d.wg.Done()

	if again {
		d.Schedule()
	}
}
