package crisis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenopark/xenopark/internal/domain"
)

func TestApplyConsequences_LockdownExample(t *testing.T) {
	res := domain.Resources{Visitors: 35, Credits: 1000, Power: 80, MaxPower: 100}

	lines := ApplyConsequences("Security lockdown - Seal all exits (-20 visitors, +10 security)", &res)

	assert.Equal(t, 15, res.Visitors)
	assert.Equal(t, []string{"Visitor count decreased by 20", "Security level increased"}, lines)
	assert.Equal(t, 1000, res.Credits)
	assert.Equal(t, 80, res.Power)
}

func TestApplyConsequences_CreditsCost(t *testing.T) {
	res := domain.Resources{Credits: 1000}

	lines := ApplyConsequences("Call in mercenaries - Expensive but effective (-credits)", &res)

	assert.Equal(t, 800, res.Credits)
	assert.Equal(t, []string{"Emergency response cost: 200 credits"}, lines)
}

func TestApplyConsequences_Table(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		start    domain.Resources
		want     domain.Resources
		wantLogs []string
	}{
		{
			name:     "no tokens",
			text:     "Ignore it - Hope for the best",
			start:    domain.Resources{Visitors: 10, Power: 10, Credits: 10},
			want:     domain.Resources{Visitors: 10, Power: 10, Credits: 10},
			wantLogs: nil,
		},
		{
			name:     "visitors floor at zero",
			text:     "Evacuate - Clear the area (-20 visitors)",
			start:    domain.Resources{Visitors: 7},
			want:     domain.Resources{Visitors: 0},
			wantLogs: []string{"Visitor count decreased by 20"},
		},
		{
			name:     "halve visitors rounds down",
			text:     "Close the park - (-50% visitors)",
			start:    domain.Resources{Visitors: 35},
			want:     domain.Resources{Visitors: 17},
			wantLogs: []string{"Visitor count reduced by 50%"},
		},
		{
			name:     "halve power",
			text:     "Reroute power - (-50% power)",
			start:    domain.Resources{Power: 75, MaxPower: 100},
			want:     domain.Resources{Power: 37, MaxPower: 100},
			wantLogs: []string{"Power reduced by 50% for emergency protocols"},
		},
		{
			name:  "several tokens in table order",
			text:  "Full protocol (-credits, -50% power, -50% visitors)",
			start: domain.Resources{Credits: 999, Power: 9, Visitors: 3},
			want:  domain.Resources{Credits: 800, Power: 4, Visitors: 1},
			wantLogs: []string{
				"Visitor count reduced by 50%",
				"Power reduced by 50% for emergency protocols",
				"Emergency response cost: 199 credits",
			},
		},
		{
			name:     "zero credits cost nothing",
			text:     "Bribe (-credits)",
			start:    domain.Resources{Credits: 0},
			want:     domain.Resources{Credits: 0},
			wantLogs: []string{"Emergency response cost: 0 credits"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.start
			got := ApplyConsequences(tt.text, &res)
			assert.Equal(t, tt.want, res)
			assert.Equal(t, tt.wantLogs, got)
		})
	}
}

func TestApplyEffects_Structured(t *testing.T) {
	res := domain.Resources{Credits: 100, Power: 95, MaxPower: 100, Visitors: 10}
	effects := []domain.Effect{
		{Kind: domain.EffectResourceDelta, Field: domain.FieldPower, Amount: 20},
		{Kind: domain.EffectResourceDelta, Field: domain.FieldCredits, Amount: -150},
		{Kind: domain.EffectResourceDelta, Field: domain.FieldVisitors, Amount: 5},
	}

	lines := ApplyEffects(effects, &res)

	assert.Equal(t, 100, res.Power, "power is capped at max power")
	assert.Equal(t, 0, res.Credits)
	assert.Equal(t, 15, res.Visitors)
	assert.Equal(t, []string{
		"Power increased by 20",
		"Credits decreased by 150",
		"Visitor count increased by 5",
	}, lines)
}

func TestApplyEffects_UnknownFieldSkipped(t *testing.T) {
	res := domain.Resources{Credits: 10}
	lines := ApplyEffects([]domain.Effect{{Kind: domain.EffectResourceDelta, Field: "security", Amount: 10}}, &res)
	assert.Empty(t, lines)
	assert.Equal(t, 10, res.Credits)
}

func TestParseEffects(t *testing.T) {
	got := ParseEffects("Lockdown (-20 visitors, +10 security)")
	require.Len(t, got, 2)
	assert.Equal(t, domain.EffectResourceDelta, got[0].Kind)
	assert.Equal(t, domain.FieldVisitors, got[0].Field)
	assert.Equal(t, -20, got[0].Amount)
	assert.Equal(t, domain.EffectSecurityBoost, got[1].Kind)

	assert.Empty(t, ParseEffects("Do nothing"))
}

func TestValidateEffect(t *testing.T) {
	tests := []struct {
		name    string
		effect  domain.Effect
		wantErr bool
	}{
		{"security boost", domain.Effect{Kind: domain.EffectSecurityBoost}, false},
		{"credits cost", domain.Effect{Kind: domain.EffectCreditsCost, Factor: 0.2}, false},
		{"credits cost wrong field", domain.Effect{Kind: domain.EffectCreditsCost, Field: domain.FieldPower, Factor: 0.2}, true},
		{"credits cost zero factor", domain.Effect{Kind: domain.EffectCreditsCost}, true},
		{"delta visitors", domain.Effect{Kind: domain.EffectResourceDelta, Field: domain.FieldVisitors, Amount: -5}, false},
		{"delta zero", domain.Effect{Kind: domain.EffectResourceDelta, Field: domain.FieldVisitors}, true},
		{"delta outside table", domain.Effect{Kind: domain.EffectResourceDelta, Field: "max_power", Amount: 5}, true},
		{"scale half", domain.Effect{Kind: domain.EffectResourceScale, Field: domain.FieldPower, Factor: 0.5}, false},
		{"scale growth", domain.Effect{Kind: domain.EffectResourceScale, Field: domain.FieldPower, Factor: 1.5}, true},
		{"unknown kind", domain.Effect{Kind: "teleport"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEffect(tt.effect)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
