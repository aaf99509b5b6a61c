package tiler

import (
	"sync"
	"time"
)

// jobQueue holds the set of tile coordinates that currently need fetching.
// The set is replaced wholesale on every reconciliation, never patched, so
// a coordinate that stopped being needed is never handed to a worker even
// if it was queued earlier. Safe for one replacer and many takers.
type jobQueue struct {
	mu   sync.Mutex
	jobs []TileCoord
	wake chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{wake: make(chan struct{})}
}

// replace swaps in a new job list and wakes every blocked taker so each can
// re-check for work.
func (q *jobQueue) replace(jobs []TileCoord) {
	q.mu.Lock()
	q.jobs = jobs
	close(q.wake)
	q.wake = make(chan struct{})
	q.mu.Unlock()
}

// take removes and returns one pending coordinate. Each coordinate is
// delivered to exactly one taker. If no job is pending, take blocks up to
// timeout (indefinitely when timeout <= 0) and returns ErrEmpty when the
// timeout elapses with nothing produced.
func (q *jobQueue) take(timeout time.Duration) (TileCoord, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		q.mu.Lock()
		if n := len(q.jobs); n > 0 {
			c := q.jobs[n-1]
			q.jobs = q.jobs[:n-1]
			q.mu.Unlock()
			return c, nil
		}
		// Capture the wake channel under the lock: a replace after this
		// point closes exactly this channel, so the signal cannot be lost.
		wake := q.wake
		q.mu.Unlock()

		if timeout <= 0 {
			<-wake
			continue
		}
		remain := time.Until(deadline)
		if remain <= 0 {
			return TileCoord{}, ErrEmpty
		}
		timer := time.NewTimer(remain)
		select {
		case <-wake:
			timer.Stop()
		case <-timer.C:
			return TileCoord{}, ErrEmpty
		}
	}
}
