package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xenopark/xenopark/internal/domain"
	xplog "github.com/xenopark/xenopark/internal/log"
)

type countingPark struct {
	mu  sync.Mutex
	day int
}

func (p *countingPark) AdvanceDay() domain.ParkSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.day++
	return domain.ParkSnapshot{Day: p.day}
}

func (p *countingPark) Day() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.day
}

// everyOther triggers on even checks.
type everyOther struct {
	mu     sync.Mutex
	checks int
}

func (c *everyOther) CheckForCrisis() (domain.CrisisEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks++
	if c.checks%2 == 0 {
		return domain.CrisisEvent{Name: "Visitor Panic"}, true
	}
	return domain.CrisisEvent{}, false
}

func TestLoop_StepAdvancesThenChecks(t *testing.T) {
	p := &countingPark{}
	c := &everyOther{}
	l := NewLoop(p, c, time.Hour, xplog.Nop())

	var seen []StepResult
	l.OnDay(func(_ context.Context, r StepResult) { seen = append(seen, r) })

	first := l.Step(context.Background())
	assert.Equal(t, 1, first.Park.Day)
	assert.Nil(t, first.Crisis)

	second := l.Step(context.Background())
	assert.Equal(t, 2, second.Park.Day)
	require.NotNil(t, second.Crisis)
	assert.Equal(t, "Visitor Panic", second.Crisis.Name)

	require.Len(t, seen, 2)
	assert.Equal(t, 2, c.checks)
}

func TestLoop_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &countingPark{}
	l := NewLoop(p, &everyOther{}, 5*time.Millisecond, xplog.Nop())
	l.Start(context.Background())
	l.Start(context.Background())

	require.Eventually(t, func() bool { return p.Day() >= 3 }, 2*time.Second, time.Millisecond)

	l.Stop()
	l.Stop()
	day := p.Day()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, day, p.Day(), "no ticks after Stop")
}

func TestLoop_StopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(&countingPark{}, &everyOther{}, time.Millisecond, xplog.Nop())
	l.Start(ctx)
	cancel()
	l.Stop()
}

func TestLoop_StopWithoutStart(t *testing.T) {
	l := NewLoop(&countingPark{}, &everyOther{}, time.Second, xplog.Nop())
	l.Stop()
}
