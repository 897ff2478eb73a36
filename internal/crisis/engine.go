package crisis

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/xenopark/xenopark/internal/domain"
	"github.com/xenopark/xenopark/internal/metrics"
)

// validTransitions defines the legal session phase transitions.
var validTransitions = map[domain.SessionPhase]map[domain.SessionPhase]bool{
	domain.PhaseIdle:      {domain.PhaseActive: true},
	domain.PhaseActive:    {domain.PhaseResolving: true},
	domain.PhaseResolving: {domain.PhaseIdle: true},
}

// IsValidTransition checks if a session phase transition is legal.
func IsValidTransition(from, to domain.SessionPhase) bool {
	return validTransitions[from][to]
}

// Environment is the park state the crisis engine reads and mutates.
type Environment interface {
	Resources() domain.Resources
	ActiveEntityCount() int
	CurrentDay() int
	// MutateResources runs fn with exclusive access to the resource pool.
	MutateResources(fn func(*domain.Resources))
}

// Notifier broadcasts status messages. Delivery is best effort.
type Notifier interface {
	Notify(message string, level domain.NotifyLevel)
}

// EngineConfig holds the collaborators and tunables of an Engine.
type EngineConfig struct {
	Catalog      []domain.CrisisEvent
	Rand         Rand
	Scheduler    Scheduler
	CountdownSec int
	Grace        time.Duration
	HistoryCap   int
	Logger       zerolog.Logger
}

// View is a render-ready copy of the session state.
type View struct {
	Phase         domain.SessionPhase `json:"phase"`
	Event         *domain.CrisisEvent `json:"event,omitempty"`
	TimeRemaining int                 `json:"time_remaining"`
	Resolved      bool                `json:"resolved"`
	Response      string              `json:"response,omitempty"`
}

type session struct {
	event         domain.CrisisEvent
	phase         domain.SessionPhase
	timeRemaining int
	resolved      bool
	response      domain.ResponseOption
	timedOut      bool
	countdown     Timer
	grace         Timer
}

func (s *session) transition(to domain.SessionPhase) error {
	if !IsValidTransition(s.phase, to) {
		return domain.NewEngineError(
			domain.ErrInvalidTransition.Code,
			fmt.Sprintf("illegal transition %s -> %s", s.phase, to),
		)
	}
	s.phase = to
	return nil
}

// Engine owns the single crisis session and the crisis history.
// All state transitions serialize through mu: the countdown callback, the
// grace callback and player responses never interleave.
type Engine struct {
	mu sync.Mutex

	env       Environment
	notifier  Notifier
	selector  *Selector
	scheduler Scheduler
	catalog   []domain.CrisisEvent
	history   *History
	countdown int
	grace     time.Duration
	logger    zerolog.Logger

	session       *session
	lastCrisisDay int
	hooks         []func(domain.Resolution)
	closed        bool
}

// NewEngine validates its collaborators and returns an idle engine.
// Missing collaborators are configuration errors surfaced here, not per tick.
func NewEngine(env Environment, notifier Notifier, cfg EngineConfig) (*Engine, error) {
	var problems []string
	if env == nil {
		problems = append(problems, "environment is required")
	}
	if notifier == nil {
		problems = append(problems, "notifier is required")
	}
	if cfg.Rand == nil {
		problems = append(problems, "random source is required")
	}
	if cfg.Scheduler == nil {
		problems = append(problems, "scheduler is required")
	}
	if len(cfg.Catalog) == 0 {
		problems = append(problems, "catalog must contain at least one event")
	}
	for _, ev := range cfg.Catalog {
		if len(ev.Responses) == 0 {
			problems = append(problems, fmt.Sprintf("event %q has no responses", ev.Name))
		}
	}
	if cfg.CountdownSec <= 0 {
		problems = append(problems, "countdown must be positive")
	}
	if cfg.Grace < 0 {
		problems = append(problems, "grace period must not be negative")
	}
	if len(problems) > 0 {
		return nil, &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}

	return &Engine{
		env:       env,
		notifier:  notifier,
		selector:  NewSelector(cfg.Rand),
		scheduler: cfg.Scheduler,
		catalog:   slices.Clone(cfg.Catalog),
		history:   NewHistory(cfg.HistoryCap),
		countdown: cfg.CountdownSec,
		grace:     cfg.Grace,
		logger:    cfg.Logger,
	}, nil
}

// OnResolved registers fn to be called after every resolution, outside the engine lock.
func (e *Engine) OnResolved(fn func(domain.Resolution)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, fn)
}

// CheckForCrisis runs one trigger check. It is a no-op while a session exists.
func (e *Engine) CheckForCrisis() (domain.CrisisEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.CrisisEvent{}, false
	}
	if e.session != nil {
		metrics.RecordCrisisCheck("busy", 0)
		return domain.CrisisEvent{}, false
	}

	res := e.env.Resources()
	day := e.env.CurrentDay()
	p := ComputeTriggerProbability(ProbabilityInput{
		ActiveEntities: e.env.ActiveEntityCount(),
		Security:       res.Security,
		Power:          res.Power,
		MaxPower:       res.MaxPower,
		Day:            day,
		LastCrisisDay:  e.lastCrisisDay,
	})

	ev, ok := e.selector.MaybeTrigger(p, e.catalog, e.history.Names())
	if !ok {
		metrics.RecordCrisisCheck("quiet", p)
		return domain.CrisisEvent{}, false
	}
	metrics.RecordCrisisCheck("triggered", p)

	e.open(ev, day)
	e.logger.Info().
		Str("event", ev.Name).
		Str("severity", string(ev.Severity)).
		Int("day", day).
		Float64("probability", p).
		Msg("crisis triggered")
	return ev, true
}

// open starts a session for ev. Callers hold e.mu.
func (e *Engine) open(ev domain.CrisisEvent, day int) {
	s := &session{event: ev, phase: domain.PhaseIdle}
	if err := s.transition(domain.PhaseActive); err != nil {
		panic(err)
	}
	s.timeRemaining = e.countdown
	e.session = s
	e.lastCrisisDay = day
	s.countdown = e.scheduler.Every(time.Second, func() { e.tick(s) })

	level := domain.NotifyWarning
	if ev.Severity == domain.SeverityHigh || ev.Severity == domain.SeverityCritical {
		level = domain.NotifyError
	}
	e.notifier.Notify(fmt.Sprintf("CRISIS: %s - %s", ev.Name, ev.Description), level)
	metrics.RecordCrisisTriggered(string(ev.Severity))
}

// tick is the once-per-second countdown callback for s.
func (e *Engine) tick(s *session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A timer from a torn-down session must not touch a newer one.
	if e.session != s || s.resolved {
		return
	}
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
	if s.timeRemaining == 0 {
		e.logger.Info().Str("event", s.event.Name).Msg("crisis timed out, applying default response")
		e.beginResolve(s, 0, true)
	}
}

// beginResolve records the chosen option and schedules the resolution after
// the grace period. Callers hold e.mu.
func (e *Engine) beginResolve(s *session, option int, timedOut bool) {
	if err := s.transition(domain.PhaseResolving); err != nil {
		e.logger.Error().Err(err).Str("event", s.event.Name).Msg("resolve rejected")
		return
	}
	s.resolved = true
	s.timedOut = timedOut
	s.response = s.event.Responses[option]
	s.countdown.Stop()
	s.grace = e.scheduler.After(e.grace, func() { e.finish(s) })
}

// finish applies the consequences of s and returns the engine to idle.
func (e *Engine) finish(s *session) {
	e.mu.Lock()
	if e.session != s {
		e.mu.Unlock()
		return
	}

	var lines []string
	e.env.MutateResources(func(r *domain.Resources) {
		lines = ApplyEffects(s.response.Effects, r)
	})
	for _, line := range lines {
		e.notifier.Notify(line, domain.NotifyInfo)
	}
	e.history.Record(s.event.Name)

	if err := s.transition(domain.PhaseIdle); err != nil {
		e.logger.Error().Err(err).Str("event", s.event.Name).Msg("close rejected")
	}
	e.session = nil
	e.notifier.Notify(fmt.Sprintf("Crisis resolved: %s", s.event.Name), domain.NotifySuccess)
	metrics.RecordCrisisResolved(s.timedOut)

	res := domain.Resolution{
		Event:        s.event,
		Response:     s.response.Text,
		TimedOut:     s.timedOut,
		Day:          e.env.CurrentDay(),
		Consequences: lines,
		ResolvedAt:   time.Now().Unix(),
	}
	hooks := slices.Clone(e.hooks)
	e.logger.Info().
		Str("event", s.event.Name).
		Str("response", s.response.Text).
		Bool("timed_out", s.timedOut).
		Strs("consequences", lines).
		Msg("crisis resolved")
	e.mu.Unlock()

	for _, fn := range hooks {
		fn(res)
	}
}

// SubmitResponse chooses the option whose text equals response. Anything that
// is not an option of the active crisis changes nothing and returns a diagnostic.
func (e *Engine) SubmitResponse(response string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.acceptingSession()
	if err != nil {
		return err
	}
	idx := slices.Index(s.event.ResponseTexts(), response)
	if idx < 0 {
		return domain.NewEngineError(
			domain.ErrUnknownResponse.Code,
			fmt.Sprintf("%s (closest option: %q)", domain.ErrUnknownResponse.Message, closestOption(response, s.event.ResponseTexts())),
		)
	}
	e.beginResolve(s, idx, false)
	return nil
}

// SubmitOption chooses the option at index.
func (e *Engine) SubmitOption(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.acceptingSession()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(s.event.Responses) {
		return domain.NewEngineError(
			domain.ErrUnknownResponse.Code,
			fmt.Sprintf("%s (option %d of %d)", domain.ErrUnknownResponse.Message, index, len(s.event.Responses)),
		)
	}
	e.beginResolve(s, index, false)
	return nil
}

// acceptingSession returns the session if it can still take a response. Callers hold e.mu.
func (e *Engine) acceptingSession() (*session, error) {
	if e.closed {
		return nil, domain.ErrEngineClosed
	}
	s := e.session
	if s == nil {
		return nil, domain.ErrNoActiveCrisis
	}
	if s.resolved || s.timeRemaining <= 0 {
		return nil, domain.ErrCrisisResolving
	}
	return s, nil
}

func closestOption(input string, options []string) string {
	best, bestDist := "", -1
	for _, opt := range options {
		d := levenshtein.ComputeDistance(input, opt)
		if bestDist < 0 || d < bestDist {
			best, bestDist = opt, d
		}
	}
	return best
}

// ActiveCrisis returns the event of the open session, if any.
func (e *Engine) ActiveCrisis() (domain.CrisisEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return domain.CrisisEvent{}, false
	}
	return e.session.event, true
}

// TimeRemaining returns the seconds left in the open session, or 0.
func (e *Engine) TimeRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0
	}
	return e.session.timeRemaining
}

// Phase returns the current session phase.
func (e *Engine) Phase() domain.SessionPhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return domain.PhaseIdle
	}
	return e.session.phase
}

// View returns a copy of the session state for rendering.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return View{Phase: domain.PhaseIdle}
	}
	s := e.session
	ev := s.event
	v := View{
		Phase:         s.phase,
		Event:         &ev,
		TimeRemaining: s.timeRemaining,
		Resolved:      s.resolved,
	}
	if s.resolved {
		v.Response = s.response.Text
	}
	return v
}

// History returns the resolved event names, oldest first.
func (e *Engine) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Names()
}

// LastCrisisDay returns the day the most recent crisis opened.
func (e *Engine) LastCrisisDay() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCrisisDay
}

// Catalog returns a copy of the events the engine selects from.
func (e *Engine) Catalog() []domain.CrisisEvent {
	return slices.Clone(e.catalog)
}

// Restore replaces history and the last crisis day, for loading a saved campaign.
// It fails while a session is open.
func (e *Engine) Restore(history []string, lastCrisisDay int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		return domain.ErrCrisisActive
	}
	e.history.Replace(history)
	e.lastCrisisDay = lastCrisisDay
	return nil
}

// Close cancels any pending timers and discards an open session without
// applying consequences. The engine ignores all calls afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if s := e.session; s != nil {
		s.countdown.Stop()
		if s.grace != nil {
			s.grace.Stop()
		}
		e.session = nil
	}
}
