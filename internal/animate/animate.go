// Package animate interpolates a value over time on an injected frame
// scheduler, so counters can be driven by a real ticker in production and
// by a manual scheduler in tests.
package animate

import (
	"math"
	"sync"
	"time"
)

// Scheduler delivers frame callbacks.
type Scheduler interface {
	Now() time.Time
	// RequestFrame schedules fn for the next frame. The returned func
	// cancels the request if it has not fired yet.
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// EaseOutCubic decelerates toward the end.
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// Handle controls a running tween.
type Handle struct {
	mu        sync.Mutex
	cancel    func()
	done      chan struct{}
	finished  bool
	cancelled bool
}

// Cancel stops the tween. The pending frame is disposed and onUpdate is
// not called again. Cancelling a finished tween is a no-op.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	h.finished = true
	h.cancelled = true
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	close(h.done)
}

// Done is closed when the tween completes or is cancelled.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancelled reports whether the tween was cancelled before completing.
func (h *Handle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Tween calls onUpdate once per frame with the value between from and to,
// and exactly to on the last frame. A nil easing means Linear. onUpdate must
// not cancel its own handle.
func Tween(s Scheduler, from, to float64, d time.Duration, easing Easing, onUpdate func(v float64)) *Handle {
	if easing == nil {
		easing = Linear
	}
	h := &Handle{done: make(chan struct{})}

	if d <= 0 || from == to {
		onUpdate(to)
		h.finished = true
		close(h.done)
		return h
	}

	start := s.Now()
	var frame func(now time.Time)
	frame = func(now time.Time) {
		t := float64(now.Sub(start)) / float64(d)
		last := t >= 1
		v := to
		if !last {
			v = from + (to-from)*easing(math.Max(0, t))
		}

		// onUpdate runs under the lock so a returned Cancel never races a
		// frame already in flight.
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.finished {
			return
		}
		onUpdate(v)
		if last {
			h.finished = true
			h.cancel = nil
			close(h.done)
			return
		}
		h.cancel = s.RequestFrame(frame)
	}

	h.mu.Lock()
	h.cancel = s.RequestFrame(frame)
	h.mu.Unlock()
	return h
}
