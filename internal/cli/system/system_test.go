package system

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/ruleset"
	"github.com/julianstephens/fieldlog/internal/storage"
	"github.com/julianstephens/fieldlog/internal/storage/sqlite"
)

func newContext(t *testing.T, store storage.Provider) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	reg, targets, err := ruleset.LoadDefault()
	if err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}
	out := &bytes.Buffer{}
	return &cli.Context{
		Store:    store,
		Registry: reg,
		Targets:  targets,
		Out:      out,
		Now:      func() time.Time { return time.Date(2023, 4, 2, 12, 0, 0, 0, time.UTC) },
	}, out
}

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx, out := newContext(t, store)
	return ctx, out, store
}

func session(t *testing.T, day, startHour, hours int, typ models.SessionType, supervisor string) models.SessionRecord {
	t.Helper()
	start := time.Date(2023, 3, day, startHour, 0, 0, 0, time.UTC)
	rec, err := models.NewSessionRecord(models.SessionParams{
		Start:            start,
		End:              start.Add(time.Duration(hours) * time.Hour),
		SessionType:      typ,
		SupervisorRef:    supervisor,
		ActivityCategory: "direct",
	})
	if err != nil {
		t.Fatalf("failed to build session: %v", err)
	}
	return rec
}
