// Package catalog holds the crisis event definitions the engine selects from.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xenopark/xenopark/internal/crisis"
	"github.com/xenopark/xenopark/internal/domain"
)

// ResponsesPerEvent is the number of options every crisis offers.
const ResponsesPerEvent = 3

type entry struct {
	name, description string
	weight            float64
	severity          domain.Severity
	responses         [ResponsesPerEvent]string
}

var builtin = []entry{
	{
		name:        "Containment Breach",
		weight:      0.15,
		severity:    domain.SeverityCritical,
		description: "A xenomorph has breached its containment cell and is loose in the service tunnels.",
		responses: [ResponsesPerEvent]string{
			"Security lockdown - Seal all exits (-20 visitors, +10 security)",
			"Call in mercenaries - Expensive but effective (-credits)",
			"Evacuate the park - Clear every zone (-50% visitors)",
		},
	},
	{
		name:        "Power Grid Failure",
		weight:      0.12,
		severity:    domain.SeverityHigh,
		description: "The main reactor is fluctuating. Containment fields are running on backup cells.",
		responses: [ResponsesPerEvent]string{
			"Divert to containment - Keep the cells shut (-50% power)",
			"Emergency repairs - Pay the engineers overtime (-credits)",
			"Close the attractions - Cut the load (-20 visitors)",
		},
	},
	{
		name:        "Acid Blood Spill",
		weight:      0.10,
		severity:    domain.SeverityMedium,
		description: "A wounded specimen has bled through two deck plates near the visitor walkway.",
		responses: [ResponsesPerEvent]string{
			"Cordon the walkway - Reroute the tours (-20 visitors)",
			"Hazmat crew - Neutralise and replate (-credits)",
			"Reinforce the floor - Run the plate fabricators (-50% power)",
		},
	},
	{
		name:        "Facehugger Escape",
		weight:      0.08,
		severity:    domain.SeverityCritical,
		description: "An egg chamber was left unsealed. Something small and fast is in the ventilation.",
		responses: [ResponsesPerEvent]string{
			"Flood the vents - Purge and lock down (-20 visitors, +10 security)",
			"Hire trackers - Hunt it down (-credits)",
			"Close the park - Nobody in, nobody out (-50% visitors)",
		},
	},
	{
		name:        "Visitor Panic",
		weight:      0.14,
		severity:    domain.SeverityLow,
		description: "A rumour of an escape is spreading through the queue for the hive tour.",
		responses: [ResponsesPerEvent]string{
			"Public announcement - Calm the crowd (+10 security)",
			"Refund tickets - Buy back goodwill (-credits)",
			"Let them leave - Open the exits (-50% visitors)",
		},
	},
	{
		name:        "Hive Resonance",
		weight:      0.09,
		severity:    domain.SeverityHigh,
		description: "The specimens are synchronising their movements. Staff report a constant low hum.",
		responses: [ResponsesPerEvent]string{
			"Dampening field - Flood the pens with static (-50% power)",
			"Sedate the hive - Expensive tranquilisers (-credits)",
			"Restrict access - Staff only near the pens (-20 visitors, +10 security)",
		},
	},
	{
		name:        "Corporate Inspection",
		weight:      0.11,
		severity:    domain.SeverityMedium,
		description: "A board representative has arrived unannounced and wants to see the specimens up close.",
		responses: [ResponsesPerEvent]string{
			"Guided tour - Keep it by the book (+10 security)",
			"Grease the wheels - A generous gift (-credits)",
			"Stage a demonstration - Run every system at once (-50% power)",
		},
	},
}

// Builtin returns the default crisis catalog. Each option's effects are
// derived from the consequence tokens in its text.
func Builtin() []domain.CrisisEvent {
	out := make([]domain.CrisisEvent, 0, len(builtin))
	for _, e := range builtin {
		ev := domain.CrisisEvent{
			Name:          e.name,
			TriggerWeight: e.weight,
			Severity:      e.severity,
			Description:   e.description,
		}
		for _, text := range e.responses {
			ev.Responses = append(ev.Responses, domain.ResponseOption{
				Text:    text,
				Effects: crisis.ParseEffects(text),
			})
		}
		out = append(out, ev)
	}
	return out
}

type file struct {
	Events []domain.CrisisEvent `yaml:"events"`
}

// Load reads a YAML catalog. Options that declare no effects get them derived
// from their text, so plain-text catalogs keep working.
func Load(path string) ([]domain.CrisisEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) ([]domain.CrisisEvent, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, domain.WrapEngineError(domain.ErrCatalogInvalid.Code, "parse catalog YAML", err)
	}
	for i := range f.Events {
		for j := range f.Events[i].Responses {
			r := &f.Events[i].Responses[j]
			if r.Effects == nil {
				r.Effects = crisis.ParseEffects(r.Text)
			}
		}
	}
	if err := Validate(f.Events); err != nil {
		return nil, err
	}
	return f.Events, nil
}

// Validate checks catalog invariants: unique non-empty names, known severity,
// weight in [0,1], exactly three options with legal effects.
func Validate(events []domain.CrisisEvent) error {
	var problems []string
	if len(events) == 0 {
		problems = append(problems, "catalog is empty")
	}

	seen := make(map[string]bool, len(events))
	for i, ev := range events {
		if ev.Name == "" {
			problems = append(problems, fmt.Sprintf("event %d has no name", i))
		} else if seen[ev.Name] {
			problems = append(problems, fmt.Sprintf("duplicate event %q", ev.Name))
		}
		seen[ev.Name] = true

		if !ev.Severity.Valid() {
			problems = append(problems, fmt.Sprintf("%q: unknown severity %q", ev.Name, ev.Severity))
		}
		if ev.TriggerWeight < 0 || ev.TriggerWeight > 1 {
			problems = append(problems, fmt.Sprintf("%q: trigger weight %v out of [0,1]", ev.Name, ev.TriggerWeight))
		}
		if len(ev.Responses) != ResponsesPerEvent {
			problems = append(problems, fmt.Sprintf("%q: has %d responses, want %d", ev.Name, len(ev.Responses), ResponsesPerEvent))
		}
		texts := make(map[string]bool, len(ev.Responses))
		for _, r := range ev.Responses {
			if r.Text == "" {
				problems = append(problems, fmt.Sprintf("%q: empty response text", ev.Name))
			}
			if texts[r.Text] {
				problems = append(problems, fmt.Sprintf("%q: duplicate response %q", ev.Name, r.Text))
			}
			texts[r.Text] = true
			for _, eff := range r.Effects {
				if err := crisis.ValidateEffect(eff); err != nil {
					problems = append(problems, fmt.Sprintf("%q: %v", ev.Name, err))
				}
			}
		}
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrCatalogInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrCatalogInvalid.Message, problems),
		}
	}
	return nil
}
