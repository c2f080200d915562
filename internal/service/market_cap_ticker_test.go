package service

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

type stepScheduler struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	pending map[int]func(time.Time)
}

func newStepScheduler() *stepScheduler {
	return &stepScheduler{now: time.Unix(0, 0), pending: map[int]func(time.Time){}}
}

func (s *stepScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *stepScheduler) RequestFrame(fn func(time.Time)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.pending[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pending, id)
	}
}

func (s *stepScheduler) step(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	now := s.now
	ids := make([]int, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(time.Time), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.pending[id])
		delete(s.pending, id)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(now)
	}
}

type staticViews []domain.OpinionView

func (v staticViews) Views(context.Context) ([]domain.OpinionView, error) { return v, nil }

type frameLog struct {
	mu     sync.Mutex
	frames []TickerFrame
}

func (l *frameLog) add(f TickerFrame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, f)
}

func (l *frameLog) last() TickerFrame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames[len(l.frames)-1]
}

func TestMarketCapTicker_AnimatesToTotal(t *testing.T) {
	sched := newStepScheduler()
	log := &frameLog{}
	views := staticViews{
		{Opinion: domain.Opinion{ID: 1, TotalVolume: 60}},
		{Opinion: domain.Opinion{ID: 2, TotalVolume: 40}},
	}
	tk := NewMarketCapTicker(views, nil, sched, time.Second, log.add, quietLogger())

	tk.Refresh(context.Background())
	assert.Equal(t, 100.0, tk.Target())

	sched.step(500 * time.Millisecond)
	mid := tk.Value()
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 100.0)

	sched.step(time.Second)
	assert.Equal(t, 100.0, tk.Value())
	assert.True(t, log.last().Final)
}

func TestMarketCapTicker_RetargetContinuesFromShown(t *testing.T) {
	sched := newStepScheduler()
	log := &frameLog{}
	tk := NewMarketCapTicker(staticViews{}, nil, sched, time.Second, log.add, quietLogger())

	tk.Retarget(100)
	sched.step(500 * time.Millisecond)
	shown := tk.Value()

	tk.Retarget(50)
	require.Equal(t, shown, tk.Value())

	sched.step(2 * time.Second)
	assert.Equal(t, 50.0, tk.Value())
	for _, f := range log.frames {
		if f.Final {
			assert.Equal(t, 50.0, f.Value, "the cancelled tween never finishes")
		}
	}
}

func TestTotalMarketCap(t *testing.T) {
	assert.Zero(t, TotalMarketCap(nil))
	assert.Equal(t, 3.5, TotalMarketCap([]domain.OpinionView{
		{Opinion: domain.Opinion{TotalVolume: 1.5}},
		{Opinion: domain.Opinion{TotalVolume: 2}},
	}))
}
