package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xenopark/xenopark/internal/domain"
)

// SaveRepo handles persistence for slotted campaign saves.
type SaveRepo struct{}

// Upsert writes rec into its slot, replacing any previous save there.
func (r *SaveRepo) Upsert(ctx context.Context, db *sql.DB, rec domain.SaveRecord) error {
	const q = `INSERT INTO saves (slot, id, kind, label, version, day, payload, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slot) DO UPDATE SET
	id = excluded.id,
	kind = excluded.kind,
	label = excluded.label,
	version = excluded.version,
	day = excluded.day,
	payload = excluded.payload,
	created_at = excluded.created_at`
	_, err := db.ExecContext(ctx, q,
		rec.Slot,
		rec.ID,
		string(rec.Kind),
		rec.Label,
		rec.Version,
		rec.Day,
		rec.Payload,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert save: %w", err)
	}
	return nil
}

// Get returns the save in slot. Returns nil if the slot is empty.
func (r *SaveRepo) Get(ctx context.Context, db *sql.DB, slot string) (*domain.SaveRecord, error) {
	const q = `SELECT slot, id, kind, label, version, day, payload, created_at
FROM saves
WHERE slot = ?`

	var s domain.SaveRecord
	var kind string
	err := db.QueryRowContext(ctx, q, slot).Scan(&s.Slot, &s.ID, &kind, &s.Label, &s.Version, &s.Day, &s.Payload, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get save: %w", err)
	}
	s.Kind = domain.SaveKind(kind)
	return &s, nil
}

// List returns every slotted save without payloads, newest first.
func (r *SaveRepo) List(ctx context.Context, db *sql.DB) ([]domain.SaveRecord, error) {
	const q = `SELECT slot, id, kind, label, version, day, created_at
FROM saves
ORDER BY created_at DESC, slot ASC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var saves []domain.SaveRecord
	for rows.Next() {
		var s domain.SaveRecord
		var kind string
		if err := rows.Scan(&s.Slot, &s.ID, &kind, &s.Label, &s.Version, &s.Day, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan save: %w", err)
		}
		s.Kind = domain.SaveKind(kind)
		saves = append(saves, s)
	}
	return saves, rows.Err()
}

// CheckpointRepo handles persistence for the checkpoint ring buffer.
type CheckpointRepo struct{}

// InsertTx appends a checkpoint within an existing transaction.
func (r *CheckpointRepo) InsertTx(ctx context.Context, tx *sql.Tx, rec domain.SaveRecord) error {
	const q = `INSERT INTO checkpoints (id, label, version, day, payload, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		rec.ID,
		rec.Label,
		rec.Version,
		rec.Day,
		rec.Payload,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

// PruneTx deletes all but the newest keep checkpoints and returns how many were removed.
func (r *CheckpointRepo) PruneTx(ctx context.Context, tx *sql.Tx, keep int) (int64, error) {
	const q = `DELETE FROM checkpoints
WHERE seq NOT IN (SELECT seq FROM checkpoints ORDER BY seq DESC LIMIT ?)`
	res, err := tx.ExecContext(ctx, q, keep)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	return res.RowsAffected()
}

// Get returns a checkpoint by ID. Returns nil if none exists.
func (r *CheckpointRepo) Get(ctx context.Context, db *sql.DB, id string) (*domain.SaveRecord, error) {
	const q = `SELECT id, label, version, day, payload, created_at
FROM checkpoints
WHERE id = ?`

	s := domain.SaveRecord{Kind: domain.SaveCheckpoint}
	err := db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Label, &s.Version, &s.Day, &s.Payload, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	return &s, nil
}

// List returns checkpoints without payloads, newest first.
func (r *CheckpointRepo) List(ctx context.Context, db *sql.DB) ([]domain.SaveRecord, error) {
	const q = `SELECT id, label, version, day, created_at
FROM checkpoints
ORDER BY seq DESC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []domain.SaveRecord
	for rows.Next() {
		s := domain.SaveRecord{Kind: domain.SaveCheckpoint}
		if err := rows.Scan(&s.ID, &s.Label, &s.Version, &s.Day, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
