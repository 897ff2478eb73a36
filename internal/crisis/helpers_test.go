package crisis

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xenopark/xenopark/internal/domain"
	xplog "github.com/xenopark/xenopark/internal/log"
)

// scriptedRand returns queued values, then zeros.
type scriptedRand struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

type fakeEnv struct {
	mu       sync.Mutex
	res      domain.Resources
	entities int
	day      int
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		res: domain.Resources{
			Credits:  1000,
			Power:    100,
			MaxPower: 100,
			Visitors: 35,
			Security: domain.SecurityMedium,
		},
		day: 10,
	}
}

func (f *fakeEnv) Resources() domain.Resources {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res
}

func (f *fakeEnv) ActiveEntityCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entities
}

func (f *fakeEnv) CurrentDay() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.day
}

func (f *fakeEnv) MutateResources(fn func(*domain.Resources)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.res)
}

type notice struct {
	msg   string
	level domain.NotifyLevel
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(msg string, level domain.NotifyLevel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{msg, level})
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notices))
	for i, x := range n.notices {
		out[i] = x.msg
	}
	return out
}

const (
	optLockdown = "Security lockdown - Seal all exits (-20 visitors, +10 security)"
	optMercs    = "Call in mercenaries - Expensive but effective (-credits)"
	optReroute  = "Reroute power - Emergency protocols (-50% power)"
)

func testEvent(name string) domain.CrisisEvent {
	opts := []string{optLockdown, optMercs, optReroute}
	ev := domain.CrisisEvent{
		Name:          name,
		TriggerWeight: 0.1,
		Severity:      domain.SeverityHigh,
		Description:   "Something has gone wrong in " + name,
	}
	for _, o := range opts {
		ev.Responses = append(ev.Responses, domain.ResponseOption{Text: o, Effects: ParseEffects(o)})
	}
	return ev
}

func testCatalog(n int) []domain.CrisisEvent {
	out := make([]domain.CrisisEvent, n)
	for i := range out {
		out[i] = testEvent(fmt.Sprintf("Event %d", i+1))
	}
	return out
}

type harness struct {
	engine   *Engine
	env      *fakeEnv
	notifier *recordingNotifier
	sched    *ManualScheduler
	rng      *scriptedRand
}

func newHarness(t *testing.T, catalog []domain.CrisisEvent) *harness {
	t.Helper()
	h := &harness{
		env:      newFakeEnv(),
		notifier: &recordingNotifier{},
		sched:    NewManualScheduler(),
		rng:      &scriptedRand{},
	}
	eng, err := NewEngine(h.env, h.notifier, EngineConfig{
		Catalog:      catalog,
		Rand:         h.rng,
		Scheduler:    h.sched,
		CountdownSec: 30,
		Grace:        500 * time.Millisecond,
		Logger:       xplog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(eng.Close)
	h.engine = eng
	return h
}
