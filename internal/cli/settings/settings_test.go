package settings

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/storage"
	"github.com/julianstephens/fieldlog/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Out: out}, out
}

func ptr[T any](v T) *T { return &v }

func TestSettingsCmd_List(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&SettingsCmd{List: true}).Run(ctx); err != nil {
		t.Fatalf("settings list failed: %v", err)
	}
	for _, want := range []string{"Country:             USA", "Mode:                standard", "Primary supervisor:  (none)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list missing %q:\n%s", want, out.String())
		}
	}
}

func TestSettingsCmd_Update(t *testing.T) {
	ctx, out := setupTestDB(t)

	sup, _ := models.NewSupervisor("Ann Lee", "1-11-11111", time.Time{})
	if err := ctx.Store.AddSupervisor(sup); err != nil {
		t.Fatalf("failed to add supervisor: %v", err)
	}

	cmd := &SettingsCmd{
		TraineeName:       ptr(" Sam Rivera "),
		TraineeID:         ptr("123456"),
		FieldworkState:    ptr("OR"),
		FieldworkMode:     ptr("Concentrated"),
		PrimarySupervisor: ptr("ann lee"),
		PersonWideOverlap: ptr(true),
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}
	if !strings.Contains(out.String(), "Settings updated") {
		t.Errorf("unexpected output %q", out.String())
	}

	got, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	want := models.Settings{
		TraineeName:       "Sam Rivera",
		TraineeID:         "123456",
		FieldworkState:    "OR",
		FieldworkCountry:  "USA",
		FieldworkMode:     models.ModeConcentrated,
		PrimarySupervisor: sup.ID,
		PersonWideOverlap: true,
	}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}

	if err := (&SettingsCmd{PrimarySupervisor: ptr("")}).Run(ctx); err != nil {
		t.Fatalf("clearing primary supervisor failed: %v", err)
	}
	got, _ = ctx.Store.GetSettings()
	if got.PrimarySupervisor != "" {
		t.Errorf("primary supervisor not cleared: %q", got.PrimarySupervisor)
	}
}

func TestSettingsCmd_Errors(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&SettingsCmd{FieldworkMode: ptr("intensive")}).Run(ctx); err == nil {
		t.Error("expected invalid mode to fail")
	}
	if err := (&SettingsCmd{PrimarySupervisor: ptr("nobody")}).Run(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown supervisor, got %v", err)
	}

	if err := (&SettingsCmd{}).Run(ctx); err != nil {
		t.Fatalf("no-op run failed: %v", err)
	}
	if !strings.Contains(out.String(), "No changes specified") {
		t.Errorf("unexpected output %q", out.String())
	}
}
