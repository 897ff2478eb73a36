package crisis

import (
	"fmt"

	"github.com/xenopark/xenopark/internal/domain"
)

// Rand is the uniform random source the selector draws from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Selector decides whether a crisis fires and which one.
type Selector struct {
	rng Rand
}

// NewSelector creates a selector over the given random source.
func NewSelector(rng Rand) *Selector {
	return &Selector{rng: rng}
}

// MaybeTrigger draws once against probability and, on a hit, picks an eligible
// event uniformly. It panics if no event is eligible, which can only happen
// with an empty catalog.
func (s *Selector) MaybeTrigger(probability float64, catalog []domain.CrisisEvent, history []string) (domain.CrisisEvent, bool) {
	if s.rng.Float64() >= probability {
		return domain.CrisisEvent{}, false
	}

	candidates := make([]domain.CrisisEvent, 0, len(catalog))
	for _, ev := range catalog {
		if IsEligible(ev.Name, history, len(catalog)) {
			candidates = append(candidates, ev)
		}
	}
	if len(candidates) == 0 {
		panic(fmt.Sprintf("crisis: no eligible events (catalog=%d history=%d)", len(catalog), len(history)))
	}
	return candidates[s.rng.IntN(len(candidates))], true
}
