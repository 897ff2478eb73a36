package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xenopark/xenopark/internal/domain"
)

// AuditRepo handles persistence for AuditRecord entries.
type AuditRepo struct{}

// RecordTx inserts an audit record within an existing transaction.
func (r *AuditRepo) RecordTx(ctx context.Context, tx *sql.Tx, rec domain.AuditRecord) error {
	const q = `INSERT INTO audit_records (id, day, category, action, detail, severity, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		rec.ID,
		rec.Day,
		rec.Category,
		rec.Action,
		rec.Detail,
		rec.Severity,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// ListByCategory returns audit records for a category, oldest first.
func (r *AuditRepo) ListByCategory(ctx context.Context, db *sql.DB, category string) ([]domain.AuditRecord, error) {
	const q = `SELECT id, day, category, action, detail, severity, created_at
FROM audit_records
WHERE category = ?
ORDER BY created_at ASC, rowid ASC`

	rows, err := db.QueryContext(ctx, q, category)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var a domain.AuditRecord
		if err := rows.Scan(&a.ID, &a.Day, &a.Category, &a.Action, &a.Detail, &a.Severity, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
