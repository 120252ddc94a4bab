// Package circuitbreaker implements a three-state circuit breaker used to
// shield the service from a chat-completion provider that is hard down:
// after repeated failures, calls fail fast instead of each waiting out a
// full provider timeout.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State of the breaker.
type State int

const (
	// Closed admits all calls.
	Closed State = iota
	// Open rejects all calls until the cooldown elapses.
	Open
	// HalfOpen admits trial calls to probe recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned for calls rejected while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker trips open after failureThreshold consecutive failures, waits out
// the cooldown, then requires successThreshold consecutive successes in the
// half-open state before closing again.
type Breaker struct {
	failureThreshold uint32
	successThreshold uint32
	cooldown         time.Duration

	mutex     sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a closed Breaker.
func New(failureThreshold, successThreshold uint32, cooldown time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
		state:            Closed,
		now:              time.Now,
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// Do runs fn under the breaker. While open it returns ErrOpen without
// calling fn; otherwise it returns fn's error and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if !b.admit() {
		return ErrOpen
	}

	err := fn()
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

func (b *Breaker) admit() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.state == Open && b.now().Sub(b.openedAt) > b.cooldown {
		b.state = HalfOpen
		b.successes = 0
	}
	return b.state != Open
}

func (b *Breaker) recordSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = Closed
			b.failures = 0
			b.successes = 0
		}
	case Closed:
		b.failures = 0
	}
}

func (b *Breaker) recordFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

// trip opens the circuit. Caller holds the mutex.
func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures = 0
	b.successes = 0
}
