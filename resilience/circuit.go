package resilience

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing recovery with a single probe.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive downstream failures
	// before the circuit opens.
	// Default: 5
	FailureThreshold int

	// Cooldown is how long the circuit stays open before a probe is allowed.
	// Default: 30 seconds
	Cooldown time.Duration

	// IsDownstream decides whether an error counts toward the threshold.
	// Client-caused errors (validation, auth, not-found) must not move the
	// breaker. Default: Downstream.
	IsDownstream func(err error) bool

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)
}

// Breaker is a consecutive-failure circuit breaker guarding the downstream
// API. While half-open, at most one probe request is in flight; concurrent
// callers are rejected with ErrCircuitHalfOpenBusy without touching the
// network. Allow and Record must be paired: every successful Allow is
// followed by exactly one Record with the attempt's outcome.
type Breaker struct {
	config BreakerConfig

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
	probeInFlight       bool
}

// NewBreaker creates a circuit breaker in the closed state.
func NewBreaker(config BreakerConfig) *Breaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}
	if config.IsDownstream == nil {
		config.IsDownstream = Downstream
	}

	return &Breaker{
		config: config,
		state:  StateClosed,
	}
}

// Allow reports whether a request may proceed. It returns ErrCircuitOpen
// while the circuit is open, and ErrCircuitHalfOpenBusy when a recovery
// probe is already in flight. The first call after the cooldown elapses
// transitions the circuit to half-open and becomes the probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.openedAt) < b.config.Cooldown {
			return ErrCircuitOpen
		}
		b.transitionLocked(StateHalfOpen)
		b.probeInFlight = true
		return nil
	case StateHalfOpen:
		if b.probeInFlight {
			return ErrCircuitHalfOpenBusy
		}
		b.probeInFlight = true
		return nil
	default:
		return nil
	}
}

// Record reports the outcome of an attempt admitted by Allow. A nil error
// resets the consecutive failure count; a downstream failure increments it
// and opens the circuit at the threshold. Client-caused errors neither
// increment nor reset. A failed probe reopens the circuit and restarts the
// cooldown; any probe outcome that is not a downstream failure closes it,
// since the API demonstrably responded.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && b.config.IsDownstream(err)

	switch b.state {
	case StateClosed:
		if failed {
			b.consecutiveFailures++
			if b.consecutiveFailures >= b.config.FailureThreshold {
				b.transitionLocked(StateOpen)
			}
		} else if err == nil {
			b.consecutiveFailures = 0
		}

	case StateHalfOpen:
		b.probeInFlight = false
		if failed {
			b.transitionLocked(StateOpen)
		} else {
			b.consecutiveFailures = 0
			b.transitionLocked(StateClosed)
		}
	}
}

// State returns the current circuit state. An open circuit whose cooldown
// has elapsed still reports open until the next Allow claims the probe.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the circuit back to closed. Intended for test isolation.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.probeInFlight = false
	b.transitionLocked(StateClosed)
}

// Snapshot reports the breaker's current counters.
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerSnapshot{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		OpenedAt:            b.openedAt,
		ProbeInFlight:       b.probeInFlight,
	}
}

// transitionLocked changes state and fires the hook. Must be called with
// b.mu held.
func (b *Breaker) transitionLocked(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to

	if to == StateOpen {
		b.openedAt = time.Now()
		b.probeInFlight = false
	}

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}

// BreakerSnapshot contains circuit breaker statistics.
type BreakerSnapshot struct {
	State               State
	ConsecutiveFailures int
	OpenedAt            time.Time
	ProbeInFlight       bool
}
