package crisis

import (
	"math"
	"testing"

	"github.com/xenopark/xenopark/internal/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeTriggerProbability(t *testing.T) {
	tests := []struct {
		name string
		in   ProbabilityInput
		want float64
	}{
		{
			name: "base only",
			in:   ProbabilityInput{Security: domain.SecurityHigh, Power: 100, MaxPower: 100, Day: 10, LastCrisisDay: 0},
			want: 0.10,
		},
		{
			name: "entities scale additively",
			in:   ProbabilityInput{ActiveEntities: 4, Security: domain.SecurityMaximum, Power: 100, MaxPower: 100, Day: 10},
			want: 0.30,
		},
		{
			name: "low security",
			in:   ProbabilityInput{Security: domain.SecurityLow, Power: 100, MaxPower: 100, Day: 10},
			want: 0.30,
		},
		{
			name: "medium security",
			in:   ProbabilityInput{Security: domain.SecurityMedium, Power: 100, MaxPower: 100, Day: 10},
			want: 0.20,
		},
		{
			name: "low power",
			in:   ProbabilityInput{Security: domain.SecurityHigh, Power: 29, MaxPower: 100, Day: 10},
			want: 0.40,
		},
		{
			name: "exactly thirty percent is not low",
			in:   ProbabilityInput{Security: domain.SecurityHigh, Power: 30, MaxPower: 100, Day: 10},
			want: 0.10,
		},
		{
			name: "cooldown halves accumulated sum",
			in:   ProbabilityInput{ActiveEntities: 2, Security: domain.SecurityLow, Power: 10, MaxPower: 100, Day: 5, LastCrisisDay: 3},
			want: (0.10 + 0.10 + 0.20 + 0.30) * 0.5,
		},
		{
			name: "clamped",
			in:   ProbabilityInput{ActiveEntities: 20, Security: domain.SecurityLow, Power: 0, MaxPower: 100, Day: 10},
			want: 0.8,
		},
		{
			name: "cooldown applied before clamp",
			in:   ProbabilityInput{ActiveEntities: 10, Security: domain.SecurityLow, Power: 0, MaxPower: 100, Day: 1, LastCrisisDay: 0},
			want: 0.55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTriggerProbability(tt.in)
			if !approx(got, tt.want) {
				t.Errorf("ComputeTriggerProbability() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeTriggerProbability_BoundsAndMonotonic(t *testing.T) {
	levels := []domain.SecurityLevel{domain.SecurityLow, domain.SecurityMedium, domain.SecurityHigh, domain.SecurityMaximum}
	for _, sec := range levels {
		for _, power := range []int{0, 29, 30, 100} {
			for _, gap := range []int{0, 2, 3, 50} {
				prev := -1.0
				for entities := 0; entities <= 30; entities++ {
					p := ComputeTriggerProbability(ProbabilityInput{
						ActiveEntities: entities,
						Security:       sec,
						Power:          power,
						MaxPower:       100,
						Day:            100,
						LastCrisisDay:  100 - gap,
					})
					if p < 0 || p > MaxTriggerProbability {
						t.Fatalf("probability %v out of bounds (sec=%s power=%d gap=%d entities=%d)", p, sec, power, gap, entities)
					}
					if p < prev {
						t.Fatalf("probability decreased with entities: %v -> %v", prev, p)
					}
					prev = p
				}
			}
		}
	}
}

func TestComputeTriggerProbability_LowPowerNeverLowers(t *testing.T) {
	for entities := 0; entities < 15; entities++ {
		healthy := ComputeTriggerProbability(ProbabilityInput{ActiveEntities: entities, Security: domain.SecurityMedium, Power: 90, MaxPower: 100, Day: 9})
		starved := ComputeTriggerProbability(ProbabilityInput{ActiveEntities: entities, Security: domain.SecurityMedium, Power: 10, MaxPower: 100, Day: 9})
		if starved < healthy {
			t.Fatalf("entities=%d: low power %v < healthy %v", entities, starved, healthy)
		}
	}
}

func TestComputeTriggerProbability_CooldownIsHalf(t *testing.T) {
	for entities := 0; entities <= 4; entities++ {
		in := ProbabilityInput{ActiveEntities: entities, Security: domain.SecurityMedium, Power: 50, MaxPower: 100, Day: 20}

		in.LastCrisisDay = 17
		full := ComputeTriggerProbability(in)
		in.LastCrisisDay = 18
		damped := ComputeTriggerProbability(in)

		if !approx(damped, full/2) {
			t.Errorf("entities=%d: damped=%v, want half of %v", entities, damped, full)
		}
	}
}
