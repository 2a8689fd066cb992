package system

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/fieldlog/internal/backup"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/storage"
	"github.com/julianstephens/fieldlog/internal/storage/sqlite"
)

func TestDoctorCmd_Healthy(t *testing.T) {
	ctx, out, store := setupTestDB(t)

	sup, _ := models.NewSupervisor("Ann Lee", "", time.Time{})
	if err := store.AddSupervisor(sup); err != nil {
		t.Fatalf("failed to add supervisor: %v", err)
	}
	for _, rec := range []models.SessionRecord{
		session(t, 1, 9, 4, models.SessionIndependent, ""),
		session(t, 1, 14, 1, models.SessionIndividualSupervision, sup.ID),
	} {
		if err := store.AddSession(rec); err != nil {
			t.Fatalf("failed to add session: %v", err)
		}
	}
	if _, err := backup.NewManager(store.GetConfigPath()).Create(); err != nil {
		t.Fatalf("failed to create backup: %v", err)
	}

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out.String())
	}
	for _, want := range []string{
		"✓ Database reachable: OK",
		"✓ Schema version: OK",
		"✓ Rule sets: OK",
		"✓ Supervisor references: OK",
		"✓ Session history: OK",
		"✓ Backups present: OK",
		"All diagnostics passed!",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestDoctorCmd_Findings(t *testing.T) {
	ctx, out, store := setupTestDB(t)

	// Two overlapping independent sessions are a blocking finding.
	for _, rec := range []models.SessionRecord{
		session(t, 1, 9, 3, models.SessionIndependent, ""),
		session(t, 1, 10, 3, models.SessionIndependent, ""),
	} {
		if err := store.AddSession(rec); err != nil {
			t.Fatalf("failed to add session: %v", err)
		}
	}
	dangling := session(t, 2, 9, 1, models.SessionGroupSupervision, "sup-missing")
	if err := store.AddSession(dangling); err != nil {
		t.Fatalf("failed to add session: %v", err)
	}

	err := (&DoctorCmd{}).Run(ctx)
	if !errors.Is(err, ErrHealthCheckFailed) {
		t.Fatalf("expected ErrHealthCheckFailed, got %v", err)
	}
	for _, want := range []string{
		"❌ Supervisor references: FAIL",
		"1 session(s) referencing unknown supervisors",
		"❌ Session history: FAIL",
		"2 session(s) with blocking issues",
		"⚠ Backups present: WARNING",
		"Diagnostics completed with errors.",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestDoctorCmd_Unreachable(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "missing.db"))
	ctx, out := newContext(t, store)

	err := (&DoctorCmd{}).Run(ctx)
	if !errors.Is(err, ErrHealthCheckFailed) {
		t.Fatalf("expected ErrHealthCheckFailed, got %v", err)
	}
	if !strings.Contains(out.String(), storage.ErrNotInitialized.Error()) {
		t.Errorf("expected the load error in output:\n%s", out.String())
	}
	if strings.Count(out.String(), "SKIPPED") != 3 {
		t.Errorf("expected 3 skipped checks:\n%s", out.String())
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, out, _ := setupTestDB(t)
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out.String(), "Database is up to date.") {
		t.Errorf("unexpected output %q", out.String())
	}

	jsonStore := storage.NewJSONStore(filepath.Join(t.TempDir(), "fieldlog.json"))
	jsonCtx, _ := newContext(t, jsonStore)
	if err := (&MigrateCmd{}).Run(jsonCtx); err == nil {
		t.Error("expected migrate to refuse the JSON store")
	}
}
