// Package domain defines the core types shared by the park simulation and the crisis engine.
package domain

// Severity grades how dangerous a crisis is. It drives UI emphasis only.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// SecurityLevel is the park-wide security posture.
type SecurityLevel string

const (
	SecurityLow     SecurityLevel = "low"
	SecurityMedium  SecurityLevel = "medium"
	SecurityHigh    SecurityLevel = "high"
	SecurityMaximum SecurityLevel = "maximum"
)

// Valid reports whether l is one of the known security levels.
func (l SecurityLevel) Valid() bool {
	switch l {
	case SecurityLow, SecurityMedium, SecurityHigh, SecurityMaximum:
		return true
	}
	return false
}

// NotifyLevel classifies a status notification.
type NotifyLevel string

const (
	NotifyInfo    NotifyLevel = "info"
	NotifySuccess NotifyLevel = "success"
	NotifyWarning NotifyLevel = "warning"
	NotifyError   NotifyLevel = "error"
)

// Resources is the park's shared resource pool.
type Resources struct {
	Credits       int           `json:"credits"`
	Power         int           `json:"power"`
	MaxPower      int           `json:"max_power"`
	Visitors      int           `json:"visitors"`
	Security      SecurityLevel `json:"security"`
	DailyRevenue  int           `json:"daily_revenue"`
	DailyExpenses int           `json:"daily_expenses"`
}

// ResourceField names a numeric resource a crisis effect may touch.
type ResourceField string

const (
	FieldCredits  ResourceField = "credits"
	FieldPower    ResourceField = "power"
	FieldVisitors ResourceField = "visitors"
)

// EffectKind tags the variant of an Effect.
type EffectKind string

const (
	// EffectResourceDelta adds Amount to Field, flooring at zero.
	EffectResourceDelta EffectKind = "resource_delta"
	// EffectResourceScale multiplies Field by Factor, rounding down.
	EffectResourceScale EffectKind = "resource_scale"
	// EffectCreditsCost charges Factor of the current credits.
	EffectCreditsCost EffectKind = "credits_cost"
	// EffectSecurityBoost is recorded in the log but changes no numeric field.
	EffectSecurityBoost EffectKind = "security_boost"
)

// Effect is one mechanical consequence of a crisis response.
type Effect struct {
	Kind   EffectKind    `json:"kind" yaml:"kind"`
	Field  ResourceField `json:"field,omitempty" yaml:"field,omitempty"`
	Amount int           `json:"amount,omitempty" yaml:"amount,omitempty"`
	Factor float64       `json:"factor,omitempty" yaml:"factor,omitempty"`
}

// ResponseOption is one of the three choices offered for a crisis.
type ResponseOption struct {
	Text    string   `json:"text" yaml:"text"`
	Effects []Effect `json:"effects" yaml:"effects"`
}

// CrisisEvent is an immutable catalog entry.
type CrisisEvent struct {
	Name          string           `json:"name" yaml:"name"`
	TriggerWeight float64          `json:"trigger_weight" yaml:"trigger_weight"`
	Severity      Severity         `json:"severity" yaml:"severity"`
	Description   string           `json:"description" yaml:"description"`
	Responses     []ResponseOption `json:"responses" yaml:"responses"`
}

// ResponseTexts returns the display text of every option in order.
func (e CrisisEvent) ResponseTexts() []string {
	out := make([]string, len(e.Responses))
	for i, r := range e.Responses {
		out[i] = r.Text
	}
	return out
}

// SessionPhase is the lifecycle phase of the crisis session state machine.
type SessionPhase string

const (
	PhaseIdle      SessionPhase = "idle"
	PhaseActive    SessionPhase = "active"
	PhaseResolving SessionPhase = "resolving"
)

// Resolution describes a finished crisis session.
type Resolution struct {
	Event        CrisisEvent `json:"event"`
	Response     string      `json:"response"`
	TimedOut     bool        `json:"timed_out"`
	Day          int         `json:"day"`
	Consequences []string    `json:"consequences"`
	ResolvedAt   int64       `json:"resolved_at"`
}

// Notification is a status message broadcast to the player.
type Notification struct {
	ID        string      `json:"id"`
	Message   string      `json:"message"`
	Level     NotifyLevel `json:"level"`
	CreatedAt int64       `json:"created_at"`
}

// ParkSnapshot is a point-in-time copy of the park simulation state.
type ParkSnapshot struct {
	Day        int       `json:"day"`
	Xenomorphs int       `json:"xenomorphs"`
	Resources  Resources `json:"resources"`
}

// CrisisRecord is a persisted crisis resolution.
type CrisisRecord struct {
	ID               int64    `json:"id"`
	Day              int      `json:"day"`
	EventName        string   `json:"event_name"`
	Severity         Severity `json:"severity"`
	Response         string   `json:"response"`
	TimedOut         bool     `json:"timed_out"`
	ConsequencesJSON string   `json:"consequences_json"`
	CreatedAt        int64    `json:"created_at"`
}

// AuditRecord logs a single resource consequence.
type AuditRecord struct {
	ID        string
	Day       int
	Category  string
	Action    string
	Detail    string
	Severity  string
	CreatedAt int64
}

// SaveKind distinguishes manual saves from checkpoints.
type SaveKind string

const (
	SaveManual     SaveKind = "manual"
	SaveQuick      SaveKind = "quick"
	SaveAuto       SaveKind = "auto"
	SaveCheckpoint SaveKind = "checkpoint"
)

// SaveRecord is a stored campaign snapshot.
type SaveRecord struct {
	ID        string   `json:"id"`
	Slot      string   `json:"slot,omitempty"`
	Kind      SaveKind `json:"kind"`
	Label     string   `json:"label,omitempty"`
	Version   int      `json:"version"`
	Day       int      `json:"day"`
	Payload   string   `json:"payload,omitempty"`
	CreatedAt int64    `json:"created_at"`
}
