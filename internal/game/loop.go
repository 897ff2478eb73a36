// Package game drives the simulated calendar: each tick settles a park day
// and then gives the crisis engine one chance to trigger.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xenopark/xenopark/internal/domain"
)

// Park is the day-settling side of the simulation.
type Park interface {
	AdvanceDay() domain.ParkSnapshot
}

// Crisis is the trigger side of the crisis engine.
type Crisis interface {
	CheckForCrisis() (domain.CrisisEvent, bool)
}

// StepResult describes one simulated day.
type StepResult struct {
	Park   domain.ParkSnapshot `json:"park"`
	Crisis *domain.CrisisEvent `json:"crisis,omitempty"`
}

// Loop advances the park on a fixed interval.
type Loop struct {
	park     Park
	crisis   Crisis
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	hooks    []func(context.Context, StepResult)
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewLoop creates a loop ticking every interval.
func NewLoop(park Park, crisis Crisis, interval time.Duration, logger zerolog.Logger) *Loop {
	return &Loop{
		park:     park,
		crisis:   crisis,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// OnDay registers fn to run after every step.
func (l *Loop) OnDay(fn func(context.Context, StepResult)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}

// Step settles one day and runs one crisis check synchronously.
func (l *Loop) Step(ctx context.Context) StepResult {
	res := StepResult{Park: l.park.AdvanceDay()}
	if ev, ok := l.crisis.CheckForCrisis(); ok {
		res.Crisis = &ev
	}

	l.mu.Lock()
	hooks := append([]func(context.Context, StepResult){}, l.hooks...)
	l.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx, res)
	}

	l.logger.Debug().
		Int("day", res.Park.Day).
		Bool("crisis", res.Crisis != nil).
		Msg("day advanced")
	return res
}

// Start spawns the ticking goroutine. Only the first call has an effect.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	ticker := time.NewTicker(l.interval)
	go func() {
		defer close(l.done)
		defer ticker.Stop()
		for {
			select {
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Step(ctx)
			}
		}
	}()
}

// Stop signals the ticking goroutine and waits for it to exit if it was
// started. Safe to call multiple times.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if started {
		<-l.done
	}
}
