package animate

import (
	"time"
)

// DefaultFrameInterval is roughly 60 frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

// TickerScheduler fires frames on real timers.
type TickerScheduler struct {
	interval time.Duration
}

// NewTickerScheduler creates a scheduler with the given frame interval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TickerScheduler{interval: interval}
}

// Now returns the wall clock time.
func (s *TickerScheduler) Now() time.Time { return time.Now() }

// RequestFrame runs fn after one frame interval on its own goroutine.
func (s *TickerScheduler) RequestFrame(fn func(now time.Time)) func() {
	t := time.AfterFunc(s.interval, func() { fn(time.Now()) })
	return func() { t.Stop() }
}
