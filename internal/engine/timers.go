package engine

import (
	"sync"
	"time"
)

// Named timers the engine schedules. Per-participant disconnect timers
// derive their names from these prefixes.
const (
	TimerRoleDisplay     = "role_display"
	TimerRound           = "round"
	TimerVote            = "vote"
	TimerRevealDelay     = "reveal_delay"
	TimerDisconnectGrace = "disconnect_grace"
	TimerReconnectWindow = "reconnect_window"
)

const (
	roleDisplayDuration     = 5 * time.Second
	voteDuration            = 60 * time.Second
	revealDelayDuration     = 3 * time.Second
	disconnectGraceDuration = 30 * time.Second
	reconnectWindowDuration = 300 * time.Second
)

type timer struct {
	start  time.Time
	d      time.Duration
	cancel chan struct{}
	done   chan struct{}
}

// TimerRegistry maps timer names to cancellable delayed callbacks. At
// most one timer exists per name: starting a name already in use first
// cancels the prior timer and waits for its goroutine to terminate, so
// two same-named timers can never fire concurrently. Remaining time is
// computed on demand from the recorded start and duration rather than
// decremented in place.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{timers: make(map[string]*timer)}
}

// Start schedules fire to run after d. fire runs on the timer's own
// goroutine; the engine routes it back into the command loop.
func (r *TimerRegistry) Start(name string, d time.Duration, fire func()) {
	r.Cancel(name)

	t := &timer{
		start:  time.Now(),
		d:      d,
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.timers[name] = t
	r.mu.Unlock()

	go func() {
		defer close(t.done)
		select {
		case <-time.After(d):
		case <-t.cancel:
			return
		}

		// Claim the slot before firing so a concurrent Start for the
		// same name observes this timer as finished.
		r.mu.Lock()
		if r.timers[name] == t {
			delete(r.timers, name)
		}
		r.mu.Unlock()

		select {
		case <-t.cancel:
			return
		default:
		}
		fire()
	}()
}

// Cancel stops the named timer and waits until its goroutine has
// terminated. Cancelling an absent name is a no-op.
func (r *TimerRegistry) Cancel(name string) {
	r.mu.Lock()
	t, ok := r.timers[name]
	if ok {
		delete(r.timers, name)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	close(t.cancel)
	<-t.done
}

// CancelAll stops every registered timer.
func (r *TimerRegistry) CancelAll() {
	r.mu.Lock()
	names := make([]string, 0, len(r.timers))
	for name := range r.timers {
		names = append(names, name)
	}
	r.mu.Unlock()
	for _, name := range names {
		r.Cancel(name)
	}
}

// Remaining returns the time left before the named timer fires. The
// second return is false if no such timer is registered.
func (r *TimerRegistry) Remaining(name string) (time.Duration, bool) {
	r.mu.Lock()
	t, ok := r.timers[name]
	r.mu.Unlock()
	if !ok {
		return 0, false
	}
	left := t.d - time.Since(t.start)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Active reports whether a timer with the given name is registered.
func (r *TimerRegistry) Active(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[name]
	return ok
}
