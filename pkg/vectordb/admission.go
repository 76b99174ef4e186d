package vectordb

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// AdmissionController bounds the number of in-flight searches, modelling
// contention on a fixed-size connection pool.
type AdmissionController struct {
	sem      *semaphore.Weighted
	capacity int
	timeout  time.Duration
	clock    Clock

	inFlight atomic.Int64
	waits    atomic.Int64
}

// NewAdmissionController creates a controller with capacity slots. A timeout
// <= 0 makes Acquire a single non-blocking attempt.
func NewAdmissionController(capacity int, timeout time.Duration, clock Clock) *AdmissionController {
	return &AdmissionController{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
		timeout:  timeout,
		clock:    clock,
	}
}

// Acquire takes one slot. It returns an *AdmissionError when the wait bound
// elapses first, or ctx.Err() when the caller gives up. Every successful
// Acquire must be paired with exactly one Release.
func (a *AdmissionController) Acquire(ctx context.Context) error {
	if a.timeout <= 0 {
		if a.sem.TryAcquire(1) {
			a.inFlight.Add(1)
			return nil
		}
		return a.timedOut(0)
	}

	start := a.clock.Now()
	waitCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.sem.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return a.timedOut(a.clock.Now().Sub(start))
		}
		return err
	}
	a.inFlight.Add(1)
	return nil
}

// Release frees a slot taken by Acquire.
func (a *AdmissionController) Release() {
	a.inFlight.Add(-1)
	a.sem.Release(1)
}

// InFlight returns the number of slots currently held.
func (a *AdmissionController) InFlight() int {
	return int(a.inFlight.Load())
}

// Waits returns how many acquisitions have timed out.
func (a *AdmissionController) Waits() int64 {
	return a.waits.Load()
}

// Capacity returns the fixed slot count.
func (a *AdmissionController) Capacity() int {
	return a.capacity
}

func (a *AdmissionController) timedOut(waited time.Duration) error {
	a.waits.Add(1)
	return &AdmissionError{
		Capacity: a.capacity,
		InFlight: a.InFlight(),
		Waited:   waited,
	}
}
