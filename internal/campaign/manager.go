// Package campaign saves and restores park campaigns: slotted saves,
// quicksave/quickload, an autosave timer and a checkpoint ring buffer.
package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xenopark/xenopark/internal/domain"
	"github.com/xenopark/xenopark/internal/metrics"
	"github.com/xenopark/xenopark/internal/store"
)

// SaveVersion is the snapshot format written by this build.
const SaveVersion = 1

const (
	QuickSlot = "quicksave"
	AutoSlot  = "autosave"

	maxSlotLen = 64
)

// Snapshot is the persisted campaign state. Active crisis sessions are
// transient and never saved.
type Snapshot struct {
	Version       int                 `json:"version"`
	Park          domain.ParkSnapshot `json:"park"`
	CrisisHistory []string            `json:"crisis_history"`
	LastCrisisDay int                 `json:"last_crisis_day"`
	SavedAt       int64               `json:"saved_at"`
}

// ParkState is the part of the park the manager snapshots.
type ParkState interface {
	Snapshot() domain.ParkSnapshot
	Restore(domain.ParkSnapshot)
}

// CrisisState is the part of the crisis engine the manager snapshots.
type CrisisState interface {
	History() []string
	LastCrisisDay() int
	Restore(history []string, lastCrisisDay int) error
}

// Manager coordinates saves against the store.
type Manager struct {
	DB          *sql.DB
	Saves       *store.SaveRepo
	Checkpoints *store.CheckpointRepo

	park           ParkState
	crisis         CrisisState
	maxCheckpoints int
	logger         zerolog.Logger

	mu       sync.Mutex
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager keeping at most maxCheckpoints checkpoints.
func NewManager(db *sql.DB, park ParkState, crisis CrisisState, maxCheckpoints int, logger zerolog.Logger) *Manager {
	if maxCheckpoints <= 0 {
		maxCheckpoints = 5
	}
	return &Manager{
		DB:             db,
		Saves:          &store.SaveRepo{},
		Checkpoints:    &store.CheckpointRepo{},
		park:           park,
		crisis:         crisis,
		maxCheckpoints: maxCheckpoints,
		logger:         logger,
		stopCh:         make(chan struct{}),
	}
}

func (m *Manager) capture() (Snapshot, []byte, error) {
	snap := Snapshot{
		Version:       SaveVersion,
		Park:          m.park.Snapshot(),
		CrisisHistory: m.crisis.History(),
		LastCrisisDay: m.crisis.LastCrisisDay(),
		SavedAt:       time.Now().Unix(),
	}
	if snap.CrisisHistory == nil {
		snap.CrisisHistory = []string{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return snap, data, nil
}

func (m *Manager) apply(payload string, version int) (Snapshot, error) {
	if version > SaveVersion {
		return Snapshot{}, domain.NewEngineError(
			domain.ErrSaveVersion.Code,
			fmt.Sprintf("%s (save v%d, supported v%d)", domain.ErrSaveVersion.Message, version, SaveVersion),
		)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return Snapshot{}, domain.WrapEngineError(domain.ErrSaveCorrupt.Code, domain.ErrSaveCorrupt.Message, err)
	}
	// Crisis first: it refuses while a session is open, leaving the park untouched.
	if err := m.crisis.Restore(snap.CrisisHistory, snap.LastCrisisDay); err != nil {
		return Snapshot{}, err
	}
	m.park.Restore(snap.Park)
	return snap, nil
}

func validSlot(slot string) bool {
	return slot != "" && len(slot) <= maxSlotLen && !strings.ContainsAny(slot, "/\\")
}

// Save writes the current campaign into slot.
func (m *Manager) Save(ctx context.Context, slot string) (domain.SaveRecord, error) {
	return m.saveKind(ctx, slot, domain.SaveManual)
}

func (m *Manager) saveKind(ctx context.Context, slot string, kind domain.SaveKind) (domain.SaveRecord, error) {
	if !validSlot(slot) {
		return domain.SaveRecord{}, domain.ErrInvalidSlot
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, data, err := m.capture()
	if err != nil {
		return domain.SaveRecord{}, err
	}
	rec := domain.SaveRecord{
		ID:        uuid.NewString(),
		Slot:      slot,
		Kind:      kind,
		Version:   SaveVersion,
		Day:       snap.Park.Day,
		Payload:   string(data),
		CreatedAt: snap.SavedAt,
	}
	if err := m.Saves.Upsert(ctx, m.DB, rec); err != nil {
		return domain.SaveRecord{}, domain.WrapEngineError(domain.ErrStoreWrite.Code, "save campaign", err)
	}
	metrics.RecordSave(string(kind))
	m.logger.Info().Str("slot", slot).Str("kind", string(kind)).Int("day", rec.Day).Msg("campaign saved")
	return rec, nil
}

// Load restores the campaign stored in slot.
func (m *Manager) Load(ctx context.Context, slot string) (Snapshot, error) {
	if !validSlot(slot) {
		return Snapshot{}, domain.ErrInvalidSlot
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.Saves.Get(ctx, m.DB, slot)
	if err != nil {
		return Snapshot{}, domain.WrapEngineError(domain.ErrStoreQuery.Code, "load campaign", err)
	}
	if rec == nil {
		return Snapshot{}, domain.ErrSaveNotFound
	}
	snap, err := m.apply(rec.Payload, rec.Version)
	if err != nil {
		return Snapshot{}, err
	}
	m.logger.Info().Str("slot", slot).Int("day", snap.Park.Day).Msg("campaign loaded")
	return snap, nil
}

// QuickSave saves into the quicksave slot.
func (m *Manager) QuickSave(ctx context.Context) (domain.SaveRecord, error) {
	return m.saveKind(ctx, QuickSlot, domain.SaveQuick)
}

// QuickLoad restores the quicksave slot.
func (m *Manager) QuickLoad(ctx context.Context) (Snapshot, error) {
	return m.Load(ctx, QuickSlot)
}

// List returns the slotted saves, newest first.
func (m *Manager) List(ctx context.Context) ([]domain.SaveRecord, error) {
	return m.Saves.List(ctx, m.DB)
}

// Checkpoint appends a checkpoint and prunes the oldest beyond the ring size.
func (m *Manager) Checkpoint(ctx context.Context, label string) (domain.SaveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, data, err := m.capture()
	if err != nil {
		return domain.SaveRecord{}, err
	}
	rec := domain.SaveRecord{
		ID:        uuid.NewString(),
		Kind:      domain.SaveCheckpoint,
		Label:     label,
		Version:   SaveVersion,
		Day:       snap.Park.Day,
		Payload:   string(data),
		CreatedAt: snap.SavedAt,
	}

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.SaveRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := m.Checkpoints.InsertTx(ctx, tx, rec); err != nil {
		return domain.SaveRecord{}, domain.WrapEngineError(domain.ErrStoreWrite.Code, "checkpoint", err)
	}
	pruned, err := m.Checkpoints.PruneTx(ctx, tx, m.maxCheckpoints)
	if err != nil {
		return domain.SaveRecord{}, domain.WrapEngineError(domain.ErrStoreWrite.Code, "checkpoint", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.SaveRecord{}, fmt.Errorf("commit checkpoint: %w", err)
	}

	metrics.RecordSave(string(domain.SaveCheckpoint))
	m.logger.Info().Str("checkpoint", rec.ID).Str("label", label).Int64("pruned", pruned).Msg("checkpoint written")
	return rec, nil
}

// ListCheckpoints returns the retained checkpoints, newest first.
func (m *Manager) ListCheckpoints(ctx context.Context) ([]domain.SaveRecord, error) {
	return m.Checkpoints.List(ctx, m.DB)
}

// RestoreCheckpoint restores the checkpoint with the given ID.
func (m *Manager) RestoreCheckpoint(ctx context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.Checkpoints.Get(ctx, m.DB, id)
	if err != nil {
		return Snapshot{}, domain.WrapEngineError(domain.ErrStoreQuery.Code, "restore checkpoint", err)
	}
	if rec == nil {
		return Snapshot{}, domain.ErrCheckpointNotFound
	}
	snap, err := m.apply(rec.Payload, rec.Version)
	if err != nil {
		return Snapshot{}, err
	}
	m.logger.Info().Str("checkpoint", id).Int("day", snap.Park.Day).Msg("checkpoint restored")
	return snap, nil
}

// Export atomically writes the save in slot to path as JSON.
func (m *Manager) Export(ctx context.Context, slot, path string) error {
	rec, err := m.Saves.Get(ctx, m.DB, slot)
	if err != nil {
		return domain.WrapEngineError(domain.ErrStoreQuery.Code, "export campaign", err)
	}
	if rec == nil {
		return domain.ErrSaveNotFound
	}
	if err := renameio.WriteFile(path, []byte(rec.Payload), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// StartAutosave saves into the autosave slot every interval until StopAutosave
// or ctx is done. Only the first call starts a loop.
func (m *Manager) StartAutosave(ctx context.Context, interval time.Duration) {
	m.mu.Lock()
	if m.started || interval <= 0 {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.saveKind(ctx, AutoSlot, domain.SaveAuto); err != nil {
					m.logger.Warn().Err(err).Msg("autosave failed")
				}
			}
		}
	}()
}

// StopAutosave stops the autosave loop. Safe to call multiple times.
func (m *Manager) StopAutosave() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}
