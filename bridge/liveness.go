package bridge

import (
	"sync"
	"time"

	"github.com/teranos/treesitter-ls/logger"
)

// LivenessTimer enforces a soft upper bound on how long a downstream
// connection may go without producing any message while requests are
// pending. It is armed when the pending-request count first becomes
// positive, reset by every incoming message (response or
// server-initiated request), and disarmed once pending returns to
// zero, rather than running a naive per-request deadline.
type LivenessTimer struct {
	mu       sync.Mutex
	timeout  time.Duration
	timer    *time.Timer
	armed    bool
	onExpire func()
	stopped  chan struct{}
}

// NewLivenessTimer creates a timer that calls onExpire once if no
// message arrives within timeout while pending > 0. A zero timeout
// disables the timer entirely (PendingArrived never arms it).
func NewLivenessTimer(timeout time.Duration, onExpire func()) *LivenessTimer {
	return &LivenessTimer{timeout: timeout, onExpire: onExpire, stopped: make(chan struct{})}
}

// PendingArrived arms the timer if it is not already armed. Call when a
// request transitions pending count from 0 to 1.
func (l *LivenessTimer) PendingArrived() {
	if l.timeout <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.armed {
		return
	}
	l.armed = true
	l.timer = time.AfterFunc(l.timeout, l.fire)
}

// MessageReceived resets the deadline on any message from the
// downstream process. It may be called armed or not; an unarmed timer is
// left untouched (a message that arrives exactly as pending drops to zero
// is a harmless no-op).
func (l *LivenessTimer) MessageReceived() {
	if l.timeout <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.armed && l.timer != nil {
		l.timer.Reset(l.timeout)
	}
}

// PendingDrained disarms the timer. Call when the pending-request count
// returns to zero.
func (l *LivenessTimer) PendingDrained() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disarmLocked()
}

// Stop disarms the timer permanently (shutdown or task cancel).
func (l *LivenessTimer) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disarmLocked()
}

func (l *LivenessTimer) disarmLocked() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.armed = false
}

func (l *LivenessTimer) fire() {
	l.mu.Lock()
	armed := l.armed
	l.armed = false
	l.mu.Unlock()

	if !armed {
		return
	}
	logger.ComponentLogger("bridge").Warnw("liveness timeout")
	if l.onExpire != nil {
		l.onExpire()
	}
}
