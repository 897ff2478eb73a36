package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/xenopark/xenopark/internal/domain"
)

// CrisisRepo handles persistence for resolved crises.
type CrisisRepo struct {
	Audit *AuditRepo
}

// AppendTx inserts a crisis record within an existing transaction.
func (r *CrisisRepo) AppendTx(ctx context.Context, tx *sql.Tx, rec domain.CrisisRecord) (int64, error) {
	const q = `INSERT INTO crisis_log (day, event_name, severity, response, timed_out, consequences_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		rec.Day,
		rec.EventName,
		string(rec.Severity),
		rec.Response,
		rec.TimedOut,
		rec.ConsequencesJSON,
		rec.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("append crisis: %w", err)
	}
	return res.LastInsertId()
}

// RecordResolution stores a resolution and one audit row per consequence in a single transaction.
func (r *CrisisRepo) RecordResolution(ctx context.Context, db *sql.DB, res domain.Resolution) error {
	consequences := res.Consequences
	if consequences == nil {
		consequences = []string{}
	}
	payload, err := json.Marshal(consequences)
	if err != nil {
		return fmt.Errorf("marshal consequences: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := r.AppendTx(ctx, tx, domain.CrisisRecord{
		Day:              res.Day,
		EventName:        res.Event.Name,
		Severity:         res.Event.Severity,
		Response:         res.Response,
		TimedOut:         res.TimedOut,
		ConsequencesJSON: string(payload),
		CreatedAt:        res.ResolvedAt,
	}); err != nil {
		return err
	}

	audit := r.Audit
	if audit == nil {
		audit = &AuditRepo{}
	}
	for _, line := range res.Consequences {
		if err := audit.RecordTx(ctx, tx, domain.AuditRecord{
			ID:        uuid.NewString(),
			Day:       res.Day,
			Category:  "crisis",
			Action:    res.Event.Name,
			Detail:    line,
			Severity:  string(res.Event.Severity),
			CreatedAt: res.ResolvedAt,
		}); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRecent returns up to limit crisis records, newest first.
func (r *CrisisRepo) ListRecent(ctx context.Context, db *sql.DB, limit int) ([]domain.CrisisRecord, error) {
	const q = `SELECT id, day, event_name, severity, response, timed_out, consequences_json, created_at
FROM crisis_log
ORDER BY id DESC
LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list crises: %w", err)
	}
	defer rows.Close()

	var records []domain.CrisisRecord
	for rows.Next() {
		var c domain.CrisisRecord
		var severity string
		if err := rows.Scan(&c.ID, &c.Day, &c.EventName, &severity, &c.Response, &c.TimedOut, &c.ConsequencesJSON, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan crisis: %w", err)
		}
		c.Severity = domain.Severity(severity)
		records = append(records, c)
	}
	return records, rows.Err()
}
