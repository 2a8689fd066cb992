package audit

import (
	"testing"

	"github.com/julianstephens/fieldlog/internal/models"
)

func TestAuditHistory(t *testing.T) {
	reg := testRegistry(t)
	deletedAt := "2023-03-10T00:00:00Z"

	records := []models.SessionRecord{
		session(t, "b", "2023-03-06 09:30", "2023-03-06 10:30", models.SessionIndependent, ""),
		session(t, "a", "2023-03-06 09:00", "2023-03-06 10:00", models.SessionIndependent, ""),
		session(t, "clean", "2023-03-07 09:00", "2023-03-07 10:00", models.SessionIndependent, ""),
		session(t, "long", "2023-03-08 06:00", "2023-03-08 20:00", models.SessionIndependent, ""),
	}
	ghost := session(t, "ghost", "2023-03-07 09:00", "2023-03-07 10:00", models.SessionIndependent, "")
	ghost.DeletedAt = &deletedAt
	records = append(records, ghost)

	results, err := New().AuditHistory(records, reg)
	if err != nil {
		t.Fatalf("AuditHistory failed: %v", err)
	}

	want := []struct {
		id   string
		kind FlagKind
	}{
		{"a", KindOverlap},
		{"b", KindOverlap},
		{"long", KindExcessiveDuration},
	}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d: %+v", len(want), len(results), results)
	}
	for i, w := range want {
		r := results[i]
		if r.Record.ID != w.id {
			t.Errorf("result %d: id = %s, want %s", i, r.Record.ID, w.id)
		}
		if len(r.Result.Flags) != 1 || r.Result.Flags[0].Kind != w.kind {
			t.Errorf("result %d: flags = %+v, want one %s", i, r.Result.Flags, w.kind)
		}
		if r.Result.Accepted {
			t.Errorf("result %d: should not be accepted", i)
		}
	}
}

func TestAuditHistoryUnresolved(t *testing.T) {
	reg := testRegistry(t)
	records := []models.SessionRecord{
		session(t, "ancient", "2010-01-01 09:00", "2010-01-01 10:00", models.SessionIndependent, ""),
	}
	if _, err := New().AuditHistory(records, reg); err == nil {
		t.Fatal("expected error for record outside every ruleset")
	}
}
