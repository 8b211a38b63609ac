package resilience

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewQueue_Defaults(t *testing.T) {
	q := NewQueue(QueueConfig{})

	if q.concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", q.concurrency)
	}
}

func TestQueue_GrantsUpToConcurrency(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 2})
	ctx := context.Background()

	r1, err := q.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("Acquire 1 error = %v", err)
	}
	r2, err := q.Acquire(ctx, "b")
	if err != nil {
		t.Fatalf("Acquire 2 error = %v", err)
	}

	if got := q.Running(); got != 2 {
		t.Errorf("Running = %d, want 2", got)
	}

	// Third caller must wait until a slot frees.
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := q.Acquire(waitCtx, "c"); err != ErrTimeout {
		t.Errorf("Acquire 3 error = %v, want ErrTimeout while slots are full", err)
	}

	r1()
	r2()

	if got := q.Running(); got != 0 {
		t.Errorf("Running after release = %d, want 0", got)
	}
}

func TestQueue_ReleaseUnblocksNextWaiter(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 1})
	ctx := context.Background()

	release, err := q.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("Acquire error = %v", err)
	}

	granted := make(chan struct{})
	go func() {
		r, err := q.Acquire(ctx, "b")
		if err != nil {
			t.Errorf("Waiter acquire error = %v", err)
			close(granted)
			return
		}
		close(granted)
		r()
	}()

	// The waiter must not be granted while the slot is held.
	select {
	case <-granted:
		t.Fatal("Waiter granted while slot was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()

	select {
	case <-granted:
	case <-time.After(time.Second):
		t.Fatal("Waiter not granted after release")
	}
}

func TestQueue_RoundRobinAcrossCallers(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 1})
	ctx := context.Background()

	// Hold the only slot while both backlogs build up.
	hold, err := q.Acquire(ctx, "warmup")
	if err != nil {
		t.Fatalf("Acquire error = %v", err)
	}

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup

	submit := func(caller string, n int) {
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := q.Acquire(ctx, caller)
				if err != nil {
					t.Errorf("Acquire(%s) error = %v", caller, err)
					return
				}
				mu.Lock()
				order = append(order, caller)
				mu.Unlock()
				release()
			}()
			// Serialize enqueue order within the caller.
			time.Sleep(2 * time.Millisecond)
		}
	}

	submit("sessionA", 10)
	submit("sessionB", 10)

	// Give the last waiters time to enqueue, then start draining.
	time.Sleep(10 * time.Millisecond)
	hold()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	if len(order) != 20 {
		t.Fatalf("Served %d tasks, want 20", len(order))
	}

	// Neither caller completes its full backlog before the other is served
	// at all: with round-robin the first two grants cover both callers.
	seen := map[string]int{}
	for i, caller := range order[:4] {
		seen[caller]++
		if i == 1 && len(seen) < 2 {
			t.Errorf("First two grants went to one caller: %v", order[:4])
		}
	}

	// FIFO within a caller is implied by the serialized submission above
	// combined with interleaved service; spot-check the interleave.
	aDone := 0
	for _, caller := range order {
		if caller == "sessionA" {
			aDone++
		} else if aDone == 10 {
			t.Fatal("sessionA completed all 10 before sessionB was served once")
		}
	}
}

func TestQueue_CancelledWaiterIsRemoved(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 1})
	ctx := context.Background()

	release, err := q.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("Acquire error = %v", err)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		_, err := q.Acquire(waitCtx, "b")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if got := q.Depth(); got != 1 {
		t.Fatalf("Depth = %d, want 1", got)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Cancelled acquire error = %v, want context.Canceled", err)
	}

	if got := q.Depth(); got != 0 {
		t.Errorf("Depth after cancellation = %d, want 0 (no side effects)", got)
	}

	// The slot is unaffected and still grants normally after release.
	release()
	r2, err := q.Acquire(ctx, "c")
	if err != nil {
		t.Fatalf("Acquire after cancellation error = %v", err)
	}
	r2()
}

func TestQueue_ExecuteReleasesOnPanicFreeError(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 1})
	ctx := context.Background()

	wantErr := &downstreamErr{msg: "boom"}
	if err := q.Execute(ctx, "a", func(ctx context.Context) error {
		return wantErr
	}); err != wantErr {
		t.Errorf("Execute error = %v, want task error", err)
	}

	// Slot was released despite the failure.
	release, err := q.Acquire(ctx, "b")
	if err != nil {
		t.Fatalf("Acquire after failed task error = %v", err)
	}
	release()
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 1})
	ctx := context.Background()

	release, err := q.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("Acquire error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := q.Acquire(ctx, "b")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	if err := <-done; err != ErrQueueClosed {
		t.Errorf("Pending acquire error = %v, want ErrQueueClosed", err)
	}
	if _, err := q.Acquire(ctx, "c"); err != ErrQueueClosed {
		t.Errorf("Acquire after close error = %v, want ErrQueueClosed", err)
	}

	// Releasing a pre-close slot must not panic.
	release()
}

func TestQueue_ConcurrencyNeverExceeded(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 2})
	ctx := context.Background()

	var mu sync.Mutex
	active, peak := 0, 0
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		caller := string(rune('a' + i%4))
		go func() {
			defer wg.Done()
			release, err := q.Acquire(ctx, caller)
			if err != nil {
				t.Errorf("Acquire error = %v", err)
				return
			}
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("Peak concurrency = %d, want <= 2", peak)
	}
}
