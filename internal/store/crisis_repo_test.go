package store

import (
	"context"
	"testing"

	"github.com/xenopark/xenopark/internal/domain"
)

func TestCrisisRepo_RecordResolution(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &CrisisRepo{Audit: &AuditRepo{}}

	res := domain.Resolution{
		Event:        domain.CrisisEvent{Name: "Containment Breach", Severity: domain.SeverityCritical},
		Response:     "Security lockdown - Seal all exits (-20 visitors, +10 security)",
		TimedOut:     true,
		Day:          12,
		Consequences: []string{"Visitor count decreased by 20", "Security level increased"},
		ResolvedAt:   1700000000,
	}
	if err := repo.RecordResolution(ctx, db, res); err != nil {
		t.Fatalf("RecordResolution: %v", err)
	}

	got, err := repo.ListRecent(ctx, db, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	c := got[0]
	if c.EventName != "Containment Breach" || c.Day != 12 || !c.TimedOut {
		t.Errorf("unexpected record: %+v", c)
	}
	if c.Severity != domain.SeverityCritical {
		t.Errorf("Severity = %q, want critical", c.Severity)
	}
	if c.ConsequencesJSON != `["Visitor count decreased by 20","Security level increased"]` {
		t.Errorf("ConsequencesJSON = %s", c.ConsequencesJSON)
	}

	audit, err := (&AuditRepo{}).ListByCategory(ctx, db, "crisis")
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if len(audit) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(audit))
	}
	if audit[0].Detail != "Visitor count decreased by 20" || audit[0].Action != "Containment Breach" {
		t.Errorf("unexpected audit row: %+v", audit[0])
	}
}

func TestCrisisRepo_ListRecentOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &CrisisRepo{}

	for i, name := range []string{"A", "B", "C"} {
		err := repo.RecordResolution(ctx, db, domain.Resolution{
			Event:      domain.CrisisEvent{Name: name, Severity: domain.SeverityLow},
			Day:        i,
			ResolvedAt: int64(i),
		})
		if err != nil {
			t.Fatalf("RecordResolution %s: %v", name, err)
		}
	}

	got, err := repo.ListRecent(ctx, db, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 || got[0].EventName != "C" || got[1].EventName != "B" {
		t.Fatalf("ListRecent = %+v, want [C B]", got)
	}
	if got[0].ConsequencesJSON != "[]" {
		t.Errorf("empty consequences stored as %q, want []", got[0].ConsequencesJSON)
	}
}
