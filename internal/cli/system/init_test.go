package system

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/storage"
	"github.com/julianstephens/fieldlog/internal/storage/postgres"
	"github.com/julianstephens/fieldlog/internal/storage/sqlite"
)

func TestInitCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "fieldlog.db")
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() { store.Close() })
	ctx, out := newContext(t, store)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database not created: %v", err)
	}
	if !strings.Contains(out.String(), "Initialized fieldlog storage at: "+dbPath) {
		t.Errorf("unexpected output %q", out.String())
	}

	// A second init keeps existing data.
	if err := store.AddSession(session(t, 1, 9, 2, models.SessionIndependent, "")); err != nil {
		t.Fatalf("failed to add session: %v", err)
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("re-init failed: %v", err)
	}
	if recs, _ := store.GetAllSessions(); len(recs) != 1 {
		t.Errorf("expected re-init to keep 1 session, got %d", len(recs))
	}
}

func TestInitCmd_Force(t *testing.T) {
	ctx, out, store := setupTestDB(t)
	if err := store.AddSession(session(t, 1, 9, 2, models.SessionIndependent, "")); err != nil {
		t.Fatalf("failed to add session: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	if !strings.Contains(out.String(), "Deleted existing database") {
		t.Errorf("unexpected output %q", out.String())
	}
	recs, err := store.GetAllSessions()
	if err != nil {
		t.Fatalf("failed to read sessions: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected an empty database, got %d sessions", len(recs))
	}
}

func TestInitCmd_ForceRejections(t *testing.T) {
	ctx, _, store := setupTestDB(t)
	err := (&InitCmd{Force: true, Source: store.GetConfigPath()}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "source and destination are the same") {
		t.Errorf("expected same-path error, got %v", err)
	}

	pgCtx, _ := newContext(t, postgres.New("postgres://trainee@localhost:5432/fieldlog"))
	if err := (&InitCmd{Force: true}).Run(pgCtx); err == nil {
		t.Error("expected --force to be refused for PostgreSQL")
	}
}

func TestInitCmd_Source(t *testing.T) {
	dir := t.TempDir()

	src := storage.NewJSONStore(filepath.Join(dir, "old.json"))
	if err := src.Init(); err != nil {
		t.Fatalf("failed to init source: %v", err)
	}
	settings := models.DefaultSettings()
	settings.TraineeName = "Sam Rivera"
	if err := src.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}
	sup, _ := models.NewSupervisor("Ann Lee", "1-11-11111", time.Time{})
	if err := src.AddSupervisor(sup); err != nil {
		t.Fatalf("failed to add supervisor: %v", err)
	}
	kept := session(t, 1, 9, 2, models.SessionIndividualSupervision, sup.ID)
	gone := session(t, 2, 9, 2, models.SessionIndependent, "")
	for _, rec := range []models.SessionRecord{kept, gone} {
		if err := src.AddSession(rec); err != nil {
			t.Fatalf("failed to add session: %v", err)
		}
	}
	if err := src.DeleteSession(gone.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}

	dst := sqlite.NewStore(filepath.Join(dir, "new.db"))
	t.Cleanup(func() { dst.Close() })
	ctx, out := newContext(t, dst)

	if err := (&InitCmd{Source: filepath.Join(dir, "old.json")}).Run(ctx); err != nil {
		t.Fatalf("init --source failed: %v", err)
	}
	for _, want := range []string{"Migrated 1 supervisors", "Migrated 2 sessions", "Migration completed successfully!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	got, _ := dst.GetSettings()
	if got.TraineeName != "Sam Rivera" {
		t.Errorf("settings not migrated: %+v", got)
	}
	if _, err := dst.GetSupervisor(sup.ID); err != nil {
		t.Errorf("supervisor not migrated: %v", err)
	}
	active, _ := dst.GetAllSessions()
	all, _ := dst.GetAllSessionsIncludingDeleted()
	if len(active) != 1 || len(all) != 2 {
		t.Errorf("expected 1 active of 2 sessions, got %d of %d", len(active), len(all))
	}
}
