package crisis

import (
	"fmt"
	"math"
	"strings"

	"github.com/xenopark/xenopark/internal/domain"
)

// consequenceTokens maps the recognised substrings of free-text response
// options to structured effects. Order is the order log lines are produced in.
var consequenceTokens = []struct {
	token  string
	effect domain.Effect
}{
	{"-20 visitors", domain.Effect{Kind: domain.EffectResourceDelta, Field: domain.FieldVisitors, Amount: -20}},
	{"+10 security", domain.Effect{Kind: domain.EffectSecurityBoost}},
	{"-50% visitors", domain.Effect{Kind: domain.EffectResourceScale, Field: domain.FieldVisitors, Factor: 0.5}},
	{"-50% power", domain.Effect{Kind: domain.EffectResourceScale, Field: domain.FieldPower, Factor: 0.5}},
	{"-credits", domain.Effect{Kind: domain.EffectCreditsCost, Field: domain.FieldCredits, Factor: 0.2}},
}

// ParseEffects scans response text for the recognised consequence tokens.
// Tokens are matched independently; text with no tokens yields no effects.
func ParseEffects(text string) []domain.Effect {
	var effects []domain.Effect
	for _, t := range consequenceTokens {
		if strings.Contains(text, t.token) {
			effects = append(effects, t.effect)
		}
	}
	return effects
}

// ApplyConsequences parses text for consequence tokens and applies them to res.
func ApplyConsequences(text string, res *domain.Resources) []string {
	return ApplyEffects(ParseEffects(text), res)
}

// ApplyEffects mutates res for each effect in order and returns one log line per effect.
// Credits, power and visitors never drop below zero.
func ApplyEffects(effects []domain.Effect, res *domain.Resources) []string {
	var lines []string
	for _, e := range effects {
		if line, ok := applyEffect(e, res); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func applyEffect(e domain.Effect, res *domain.Resources) (string, bool) {
	switch e.Kind {
	case domain.EffectSecurityBoost:
		return "Security level increased", true

	case domain.EffectCreditsCost:
		cost := int(math.Floor(float64(res.Credits) * e.Factor))
		res.Credits = max(0, res.Credits-cost)
		return fmt.Sprintf("Emergency response cost: %d credits", cost), true

	case domain.EffectResourceDelta:
		v := field(res, e.Field)
		if v == nil {
			return "", false
		}
		*v = max(0, *v+e.Amount)
		if e.Field == domain.FieldPower && res.MaxPower > 0 {
			*v = min(*v, res.MaxPower)
		}
		return describeDelta(e.Field, e.Amount), true

	case domain.EffectResourceScale:
		v := field(res, e.Field)
		if v == nil {
			return "", false
		}
		*v = max(0, int(math.Floor(float64(*v)*e.Factor)))
		return describeScale(e.Field, e.Factor), true
	}
	return "", false
}

func field(res *domain.Resources, f domain.ResourceField) *int {
	switch f {
	case domain.FieldCredits:
		return &res.Credits
	case domain.FieldPower:
		return &res.Power
	case domain.FieldVisitors:
		return &res.Visitors
	}
	return nil
}

func fieldLabel(f domain.ResourceField) string {
	switch f {
	case domain.FieldVisitors:
		return "Visitor count"
	case domain.FieldPower:
		return "Power"
	default:
		return "Credits"
	}
}

func describeDelta(f domain.ResourceField, amount int) string {
	if amount < 0 {
		return fmt.Sprintf("%s decreased by %d", fieldLabel(f), -amount)
	}
	return fmt.Sprintf("%s increased by %d", fieldLabel(f), amount)
}

func describeScale(f domain.ResourceField, factor float64) string {
	pct := int(math.Round((1 - factor) * 100))
	line := fmt.Sprintf("%s reduced by %d%%", fieldLabel(f), pct)
	if f == domain.FieldPower {
		line += " for emergency protocols"
	}
	return line
}

// ValidateEffect checks that an effect only touches the documented resource fields.
func ValidateEffect(e domain.Effect) error {
	switch e.Kind {
	case domain.EffectSecurityBoost:
		return nil
	case domain.EffectCreditsCost:
		if e.Field != "" && e.Field != domain.FieldCredits {
			return fmt.Errorf("credits_cost cannot target %q", e.Field)
		}
		if e.Factor <= 0 || e.Factor > 1 {
			return fmt.Errorf("credits_cost factor %v out of (0,1]", e.Factor)
		}
		return nil
	case domain.EffectResourceDelta, domain.EffectResourceScale:
		switch e.Field {
		case domain.FieldCredits, domain.FieldPower, domain.FieldVisitors:
		default:
			return fmt.Errorf("%s cannot target %q", e.Kind, e.Field)
		}
		if e.Kind == domain.EffectResourceDelta && e.Amount == 0 {
			return fmt.Errorf("resource_delta on %s has zero amount", e.Field)
		}
		if e.Kind == domain.EffectResourceScale && (e.Factor < 0 || e.Factor >= 1) {
			return fmt.Errorf("resource_scale factor %v out of [0,1)", e.Factor)
		}
		return nil
	}
	return fmt.Errorf("unknown effect kind %q", e.Kind)
}
