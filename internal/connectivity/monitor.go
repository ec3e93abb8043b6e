// Package connectivity tracks the platform's online/offline signal and
// turns it into sync triggers.
//
// The monitor consumes the signal, it does not probe reachability: a
// platform "online" can be a false positive (captive portal, dead uplink).
// The sync engine tolerates that - a pass against an unreachable API just
// fails and waits for the next trigger.
//
// On a transition to online the monitor arms a debounce task; if the
// signal flaps back offline before the window elapses the task is
// canceled, so a burst of flaps collapses into at most one automatic sync
// trigger. A transition to offline only updates local state (used for the
// UI's pending-count display) and never cancels an in-flight pass.
package connectivity

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is how long the signal must stay online before the
// automatic sync trigger fires. Long enough to absorb flapping, short
// enough to feel immediate.
const DefaultDebounce = 500 * time.Millisecond

// Transition is one online/offline edge, delivered to subscribers.
type Transition struct {
	Online bool
	At     time.Time
}

// Monitor holds the current connectivity state and fans transitions out
// to subscribers.
//
// Thread-safety: all methods are safe for concurrent use.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	debounce time.Duration
	trigger  func()
	timer    *time.Timer
	subs     map[int]chan Transition
	nextSub  int
	closed   bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) { m.debounce = d }
}

// NewMonitor creates a monitor that starts in the given state. The
// trigger is invoked (on its own goroutine) once the signal has been
// online for a full debounce window; pass nil for no automatic trigger.
func NewMonitor(online bool, trigger func(), opts ...Option) *Monitor {
	m := &Monitor{
		online:   online,
		debounce: DefaultDebounce,
		trigger:  trigger,
		subs:     make(map[int]chan Transition),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Online returns the last state reported by the platform signal.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline feeds one platform signal reading into the monitor.
// Readings that do not change the state are ignored.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || online == m.online {
		return
	}
	m.online = online

	tr := Transition{Online: online, At: time.Now()}
	for _, ch := range m.subs {
		// Non-blocking: a stalled subscriber drops transitions rather
		// than stalling the monitor. Subscribers only drive UI state.
		select {
		case ch <- tr:
		default:
		}
	}

	if online {
		slog.Debug("connectivity online, arming sync trigger", "debounce", m.debounce)
		m.armLocked()
	} else {
		slog.Debug("connectivity offline")
		m.disarmLocked()
	}
}

// armLocked (re)starts the debounce task. Caller holds m.mu.
func (m *Monitor) armLocked() {
	if m.trigger == nil {
		return
	}
	m.disarmLocked()
	m.timer = time.AfterFunc(m.debounce, func() {
		// Fire only if still online when the window elapses.
		m.mu.Lock()
		ok := m.online && !m.closed
		m.mu.Unlock()
		if ok {
			m.trigger()
		}
	})
}

// disarmLocked cancels a pending debounce task. Caller holds m.mu.
func (m *Monitor) disarmLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Subscription is a cancellable stream of connectivity transitions.
type Subscription struct {
	// C delivers transitions in order. Closed by Cancel.
	C <-chan Transition

	cancel sync.Once
	stop   func()
}

// Cancel removes the subscription and closes C. Safe to call more than
// once.
func (s *Subscription) Cancel() {
	s.cancel.Do(s.stop)
}

// Subscribe registers for connectivity transitions. The caller must
// Cancel the subscription when done.
func (m *Monitor) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Transition, 16)
	m.subs[id] = ch

	return &Subscription{
		C: ch,
		stop: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(ch)
			}
		},
	}
}

// Close cancels the debounce task and all subscriptions. Further
// SetOnline calls are ignored.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.disarmLocked()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}
