package crisis

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancelable scheduled callback.
type Timer interface {
	// Stop cancels future firings. Safe to call multiple times.
	Stop()
}

// Scheduler fires callbacks on a periodic or one-shot basis.
type Scheduler interface {
	Every(d time.Duration, fn func()) Timer
	After(d time.Duration, fn func()) Timer
}

// RealScheduler schedules callbacks on wall-clock time.
type RealScheduler struct{}

type tickerTimer struct {
	stopCh   chan struct{}
	stopOnce sync.Once
}

// Every runs fn once per d on its own goroutine until stopped.
func (RealScheduler) Every(d time.Duration, fn func()) Timer {
	t := &tickerTimer{stopCh: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return t
}

func (t *tickerTimer) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

type afterTimer struct {
	t *time.Timer
}

// After runs fn once after d.
func (RealScheduler) After(d time.Duration, fn func()) Timer {
	return afterTimer{t: time.AfterFunc(d, fn)}
}

func (a afterTimer) Stop() {
	a.t.Stop()
}

// ManualScheduler is a Scheduler driven by Advance instead of wall-clock time.
// Callbacks run synchronously on the goroutine calling Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	s        *ManualScheduler
	id       int
	due      time.Duration
	interval time.Duration
	fn       func()
}

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[int]*manualTimer)}
}

func (s *ManualScheduler) add(d, interval time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &manualTimer{s: s, id: s.nextID, due: s.now + d, interval: interval, fn: fn}
	s.timers[t.id] = t
	return t
}

// Every implements Scheduler.
func (s *ManualScheduler) Every(d time.Duration, fn func()) Timer {
	return s.add(d, d, fn)
}

// After implements Scheduler.
func (s *ManualScheduler) After(d time.Duration, fn func()) Timer {
	return s.add(d, 0, fn)
}

func (t *manualTimer) Stop() {
	t.s.mu.Lock()
	delete(t.s.timers, t.id)
	t.s.mu.Unlock()
}

// Pending returns the number of timers that have not fired or been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Advance moves virtual time forward by d, firing due callbacks in deadline order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.due
		if next.interval > 0 {
			next.due += next.interval
		} else {
			delete(s.timers, next.id)
		}
		fn := next.fn
		s.mu.Unlock()

		fn()
	}
}

// nextDue returns the earliest timer due at or before target. Ties fire in
// creation order. Callers hold s.mu.
func (s *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	due := make([]*manualTimer, 0, len(s.timers))
	for _, t := range s.timers {
		if t.due <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})
	return due[0]
}
