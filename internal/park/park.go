// Package park owns the simulated park's shared resource state.
package park

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/xenopark/xenopark/internal/domain"
	"github.com/xenopark/xenopark/internal/metrics"
)

// Config holds the economic tunables of the simulation.
type Config struct {
	Starting      domain.Resources
	TicketPrice   int
	PowerRegen    int
	VisitorGrowth int
}

// Park is the single writer of resource state. Every read-modify-write goes
// through its mutex, so daily ticks and crisis consequences never race.
type Park struct {
	mu         sync.Mutex
	cfg        Config
	res        domain.Resources
	xenomorphs int
	day        int
	logger     zerolog.Logger
}

// New creates a park on day zero with the configured starting resources.
func New(cfg Config, logger zerolog.Logger) *Park {
	return &Park{
		cfg:    cfg,
		res:    cfg.Starting,
		logger: logger,
	}
}

// Resources returns a copy of the resource pool.
func (p *Park) Resources() domain.Resources {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.res
}

// ActiveEntityCount returns the number of contained xenomorphs.
func (p *Park) ActiveEntityCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.xenomorphs
}

// CurrentDay returns the simulated day.
func (p *Park) CurrentDay() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.day
}

// MutateResources runs fn with exclusive access to the resource pool.
// fn must not call back into the Park.
func (p *Park) MutateResources(fn func(*domain.Resources)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.res)
}

// AdvanceDay settles one day of revenue and expenses and regenerates power.
func (p *Park) AdvanceDay() domain.ParkSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.day++
	revenue := p.res.Visitors * p.cfg.TicketPrice
	p.res.DailyRevenue = revenue
	p.res.Credits = max(0, p.res.Credits+revenue-p.res.DailyExpenses)
	p.res.Power = min(p.res.MaxPower, p.res.Power+p.cfg.PowerRegen)
	p.res.Visitors += p.cfg.VisitorGrowth

	metrics.SetParkDay(p.day)
	p.logger.Debug().
		Int("day", p.day).
		Int("revenue", revenue).
		Int("credits", p.res.Credits).
		Msg("day settled")
	return p.snapshotLocked()
}

// Contain adds n xenomorphs to the park.
func (p *Park) Contain(n int) error {
	if n <= 0 {
		return domain.ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.xenomorphs += n
	return nil
}

// Release removes up to n xenomorphs and returns how many were removed.
func (p *Park) Release(n int) (int, error) {
	if n <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := min(n, p.xenomorphs)
	p.xenomorphs -= removed
	return removed, nil
}

// SetSecurity changes the park's security posture.
func (p *Park) SetSecurity(level domain.SecurityLevel) error {
	if !level.Valid() {
		return domain.ErrInvalidSecurity
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.res.Security = level
	return nil
}

// Snapshot returns a copy of the full park state.
func (p *Park) Snapshot() domain.ParkSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Park) snapshotLocked() domain.ParkSnapshot {
	return domain.ParkSnapshot{
		Day:        p.day,
		Xenomorphs: p.xenomorphs,
		Resources:  p.res,
	}
}

// Restore replaces the park state with snap.
func (p *Park) Restore(snap domain.ParkSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.day = snap.Day
	p.xenomorphs = snap.Xenomorphs
	p.res = snap.Resources
	metrics.SetParkDay(p.day)
}
