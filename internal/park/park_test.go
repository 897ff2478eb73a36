package park

import (
	"errors"
	"sync"
	"testing"

	"github.com/xenopark/xenopark/internal/domain"
	xplog "github.com/xenopark/xenopark/internal/log"
)

func testConfig() Config {
	return Config{
		Starting: domain.Resources{
			Credits:       1000,
			Power:         50,
			MaxPower:      100,
			Visitors:      20,
			Security:      domain.SecurityMedium,
			DailyExpenses: 300,
		},
		TicketPrice:   10,
		PowerRegen:    10,
		VisitorGrowth: 5,
	}
}

func TestNew_StartingState(t *testing.T) {
	p := New(testConfig(), xplog.Nop())
	if p.CurrentDay() != 0 {
		t.Errorf("day = %d, want 0", p.CurrentDay())
	}
	if got := p.Resources(); got.Credits != 1000 || got.Visitors != 20 {
		t.Errorf("unexpected starting resources: %+v", got)
	}
}

func TestAdvanceDay(t *testing.T) {
	p := New(testConfig(), xplog.Nop())

	snap := p.AdvanceDay()
	if snap.Day != 1 {
		t.Errorf("Day = %d, want 1", snap.Day)
	}
	// 20 visitors * 10 - 300 expenses
	if snap.Resources.Credits != 900 {
		t.Errorf("Credits = %d, want 900", snap.Resources.Credits)
	}
	if snap.Resources.DailyRevenue != 200 {
		t.Errorf("DailyRevenue = %d, want 200", snap.Resources.DailyRevenue)
	}
	if snap.Resources.Power != 60 {
		t.Errorf("Power = %d, want 60", snap.Resources.Power)
	}
	if snap.Resources.Visitors != 25 {
		t.Errorf("Visitors = %d, want 25", snap.Resources.Visitors)
	}
}

func TestAdvanceDay_Floors(t *testing.T) {
	cfg := testConfig()
	cfg.Starting.Credits = 10
	cfg.Starting.Visitors = 0
	cfg.Starting.Power = 98
	p := New(cfg, xplog.Nop())

	snap := p.AdvanceDay()
	if snap.Resources.Credits != 0 {
		t.Errorf("Credits = %d, want 0", snap.Resources.Credits)
	}
	if snap.Resources.Power != 100 {
		t.Errorf("Power = %d, want capped at 100", snap.Resources.Power)
	}
}

func TestContainRelease(t *testing.T) {
	p := New(testConfig(), xplog.Nop())
	if err := p.Contain(3); err != nil {
		t.Fatalf("Contain: %v", err)
	}
	if err := p.Contain(0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("Contain(0) = %v, want ErrInvalidAmount", err)
	}
	removed, err := p.Release(5)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if removed != 3 || p.ActiveEntityCount() != 0 {
		t.Errorf("removed=%d remaining=%d, want 3 and 0", removed, p.ActiveEntityCount())
	}
}

func TestSetSecurity(t *testing.T) {
	p := New(testConfig(), xplog.Nop())
	if err := p.SetSecurity(domain.SecurityMaximum); err != nil {
		t.Fatalf("SetSecurity: %v", err)
	}
	if p.Resources().Security != domain.SecurityMaximum {
		t.Errorf("Security = %q", p.Resources().Security)
	}
	if err := p.SetSecurity("lax"); !errors.Is(err, domain.ErrInvalidSecurity) {
		t.Errorf("SetSecurity(lax) = %v, want ErrInvalidSecurity", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	p := New(testConfig(), xplog.Nop())
	_ = p.Contain(2)
	p.AdvanceDay()
	snap := p.Snapshot()

	p.AdvanceDay()
	_ = p.Contain(4)
	p.Restore(snap)

	if got := p.Snapshot(); got != snap {
		t.Errorf("Restore: got %+v, want %+v", got, snap)
	}
}

func TestMutateResources_SerializedWithDays(t *testing.T) {
	cfg := testConfig()
	cfg.Starting.DailyExpenses = 0
	cfg.TicketPrice = 0
	cfg.Starting.Credits = 0
	p := New(cfg, xplog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.MutateResources(func(r *domain.Resources) { r.Credits++ })
		}()
		go func() {
			defer wg.Done()
			p.AdvanceDay()
		}()
	}
	wg.Wait()

	if got := p.Resources().Credits; got != 50 {
		t.Errorf("Credits = %d, want 50", got)
	}
	if p.CurrentDay() != 50 {
		t.Errorf("day = %d, want 50", p.CurrentDay())
	}
}
