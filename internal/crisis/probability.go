// Package crisis implements the park's crisis-event subsystem: the trigger
// probability model, event selection, the timed decision session and
// consequence resolution.
package crisis

import "github.com/xenopark/xenopark/internal/domain"

const (
	baseProbability      = 0.10
	perEntityProbability = 0.05
	lowSecurityBonus     = 0.20
	mediumSecurityBonus  = 0.10
	lowPowerBonus        = 0.30
	lowPowerRatio        = 0.30
	cooldownDays         = 3
	cooldownDamping      = 0.5

	// MaxTriggerProbability caps the per-tick chance of a crisis.
	MaxTriggerProbability = 0.8
)

// ProbabilityInput is the game state the trigger probability depends on.
type ProbabilityInput struct {
	ActiveEntities int
	Security       domain.SecurityLevel
	Power          int
	MaxPower       int
	Day            int
	LastCrisisDay  int
}

// ComputeTriggerProbability returns the chance in [0, MaxTriggerProbability]
// that a crisis fires on this tick. It has no side effects.
func ComputeTriggerProbability(in ProbabilityInput) float64 {
	p := baseProbability
	if in.ActiveEntities > 0 {
		p += perEntityProbability * float64(in.ActiveEntities)
	}

	switch in.Security {
	case domain.SecurityLow:
		p += lowSecurityBonus
	case domain.SecurityMedium:
		p += mediumSecurityBonus
	}

	if float64(in.Power) < float64(in.MaxPower)*lowPowerRatio {
		p += lowPowerBonus
	}

	// Damping applies to the accumulated sum, not the base.
	if in.Day-in.LastCrisisDay < cooldownDays {
		p *= cooldownDamping
	}

	return min(max(p, 0), MaxTriggerProbability)
}
