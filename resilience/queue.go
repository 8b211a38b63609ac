package resilience

import (
	"context"
	"sync"
)

// QueueConfig configures the request queue.
type QueueConfig struct {
	// Concurrency is the maximum number of tasks executing simultaneously.
	// The downstream API serializes requests, so the default matches that.
	// Default: 1
	Concurrency int
}

// Queue serializes access to the downstream API's concurrency budget with
// fairness across callers. When multiple callers have pending work, slots
// are granted round-robin across distinct caller IDs and FIFO within each
// caller's own backlog, so one caller's large backlog cannot starve
// another's single request. A waiter that has not been granted a slot can
// abandon the queue with no side effects; a granted slot is never revoked.
type Queue struct {
	mu          sync.Mutex
	concurrency int
	running     int
	closed      bool

	waiting map[string][]*waiter // FIFO backlog per caller
	ring    []string             // callers with pending work, round-robin order
	cursor  int                  // next ring position to serve
}

type waiter struct {
	ready   chan struct{}
	granted bool
}

// NewQueue creates a request queue.
func NewQueue(config QueueConfig) *Queue {
	// Apply defaults
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	return &Queue{
		concurrency: config.Concurrency,
		waiting:     make(map[string][]*waiter),
	}
}

// Acquire blocks until the caller is granted an execution slot or ctx
// expires. On success it returns a release function that must be called
// exactly once when the task finishes, on every exit path. On expiry the
// entry is removed from the queue without side effects.
func (q *Queue) Acquire(ctx context.Context, callerID string) (release func(), err error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}

	// Fast path: a free slot and nobody ahead of us.
	if q.running < q.concurrency && len(q.waiting) == 0 {
		q.running++
		q.mu.Unlock()
		return q.releaseFunc(), nil
	}

	w := &waiter{ready: make(chan struct{})}
	q.enqueueLocked(callerID, w)
	q.mu.Unlock()

	select {
	case <-w.ready:
		if !w.granted {
			// Woken by Close rather than a grant.
			return nil, ErrQueueClosed
		}
		return q.releaseFunc(), nil
	case <-ctx.Done():
		q.mu.Lock()
		if w.granted {
			// The grant raced with the expiry. Hand the slot straight
			// back so the next waiter is not stalled.
			q.running--
			q.dispatchLocked()
			q.mu.Unlock()
			return nil, mapContextErr(ctx.Err())
		}
		q.removeLocked(callerID, w)
		q.mu.Unlock()
		return nil, mapContextErr(ctx.Err())
	}
}

// Execute runs task within an acquired slot.
func (q *Queue) Execute(ctx context.Context, callerID string, task func(context.Context) error) error {
	release, err := q.Acquire(ctx, callerID)
	if err != nil {
		return err
	}
	defer release()

	return task(ctx)
}

// Close rejects all pending and future waiters with ErrQueueClosed.
// Tasks already executing are unaffected.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	for _, backlog := range q.waiting {
		for _, w := range backlog {
			close(w.ready)
		}
	}
	q.waiting = make(map[string][]*waiter)
	q.ring = nil
	q.cursor = 0
}

// Depth returns the number of queued (not yet executing) entries.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, ws := range q.waiting {
		n += len(ws)
	}
	return n
}

// Running returns the number of currently executing tasks.
func (q *Queue) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

func (q *Queue) releaseFunc() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			q.running--
			q.dispatchLocked()
			q.mu.Unlock()
		})
	}
}

// enqueueLocked appends w to the caller's backlog, adding the caller to the
// round-robin ring on its first pending entry. Must be called with q.mu held.
func (q *Queue) enqueueLocked(callerID string, w *waiter) {
	if _, ok := q.waiting[callerID]; !ok {
		// New callers join the ring just before the cursor so they are
		// served after everyone currently waiting has had a turn.
		q.ring = append(q.ring, "")
		copy(q.ring[q.cursor+1:], q.ring[q.cursor:])
		q.ring[q.cursor] = callerID
		q.cursor++
		if q.cursor >= len(q.ring) {
			q.cursor = 0
		}
	}
	q.waiting[callerID] = append(q.waiting[callerID], w)
}

// dispatchLocked grants free slots to waiters, round-robin across callers,
// FIFO within a caller. Must be called with q.mu held.
func (q *Queue) dispatchLocked() {
	if q.closed {
		return
	}
	for q.running < q.concurrency && len(q.ring) > 0 {
		if q.cursor >= len(q.ring) {
			q.cursor = 0
		}
		callerID := q.ring[q.cursor]
		backlog := q.waiting[callerID]

		w := backlog[0]
		backlog = backlog[1:]
		if len(backlog) == 0 {
			delete(q.waiting, callerID)
			q.ring = append(q.ring[:q.cursor], q.ring[q.cursor+1:]...)
			// cursor now points at the next caller already.
		} else {
			q.waiting[callerID] = backlog
			q.cursor++
		}

		q.running++
		w.granted = true
		close(w.ready)
	}
}

// removeLocked drops a cancelled waiter from the caller's backlog. Must be
// called with q.mu held.
func (q *Queue) removeLocked(callerID string, target *waiter) {
	backlog := q.waiting[callerID]
	for i, w := range backlog {
		if w == target {
			backlog = append(backlog[:i], backlog[i+1:]...)
			break
		}
	}
	if len(backlog) == 0 {
		delete(q.waiting, callerID)
		for i, id := range q.ring {
			if id == callerID {
				q.ring = append(q.ring[:i], q.ring[i+1:]...)
				if i < q.cursor {
					q.cursor--
				}
				if q.cursor >= len(q.ring) {
					q.cursor = 0
				}
				break
			}
		}
	} else {
		q.waiting[callerID] = backlog
	}
}
