package backups

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/fieldlog/internal/backup"
	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/storage"
	"github.com/julianstephens/fieldlog/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Out: out}, out, store
}

func addSession(t *testing.T, store storage.Provider, day int) {
	t.Helper()
	start := time.Date(2023, 3, day, 9, 0, 0, 0, time.UTC)
	rec, err := models.NewSessionRecord(models.SessionParams{
		Start:            start,
		End:              start.Add(2 * time.Hour),
		SessionType:      models.SessionIndependent,
		ActivityCategory: "direct",
	})
	if err != nil {
		t.Fatalf("failed to build session: %v", err)
	}
	if err := store.AddSession(rec); err != nil {
		t.Fatalf("failed to add session: %v", err)
	}
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out, store := setupTestDB(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Backup created: fieldlog-") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 total") {
		t.Errorf("expected one backup listed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), backup.NewManager(store.GetConfigPath()).Dir()) {
		t.Errorf("backup directory not shown:\n%s", out.String())
	}
}

func TestBackupRestore(t *testing.T) {
	ctx, out, store := setupTestDB(t)
	addSession(t, store, 1)

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	infos, err := backup.NewManager(store.GetConfigPath()).List()
	if err != nil || len(infos) != 1 {
		t.Fatalf("expected one backup, got %d (%v)", len(infos), err)
	}
	addSession(t, store, 2)

	t.Run("declined", func(t *testing.T) {
		ctx.Confirm = func(string, string) (bool, error) { return false, nil }
		out.Reset()
		if err := (&BackupRestoreCmd{BackupFile: filepath.Base(infos[0].Path)}).Run(ctx); err != nil {
			t.Fatalf("restore failed: %v", err)
		}
		if !strings.Contains(out.String(), "Restore cancelled.") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		ctx.Confirm = func(string, string) (bool, error) { return true, nil }
		out.Reset()
		if err := (&BackupRestoreCmd{BackupFile: filepath.Base(infos[0].Path)}).Run(ctx); err != nil {
			t.Fatalf("restore failed: %v", err)
		}
		if !strings.Contains(out.String(), "✓ Database restored successfully!") {
			t.Errorf("unexpected output %q", out.String())
		}

		if err := store.Load(); err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		recs, err := store.GetAllSessions()
		if err != nil {
			t.Fatalf("failed to read sessions: %v", err)
		}
		if len(recs) != 1 {
			t.Errorf("expected 1 session after restore, got %d", len(recs))
		}
	})
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _, _ := setupTestDB(t)
	err := (&BackupRestoreCmd{BackupFile: "fieldlog-19990101-0000.db", Yes: true}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "backup file not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestBackupRequiresSQLite(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "fieldlog.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	ctx := &cli.Context{Store: store, Out: &bytes.Buffer{}}

	if err := (&BackupCreateCmd{}).Run(ctx); !errors.Is(err, ErrUnsupportedStore) {
		t.Errorf("create: expected ErrUnsupportedStore, got %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); !errors.Is(err, ErrUnsupportedStore) {
		t.Errorf("list: expected ErrUnsupportedStore, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(store.GetConfigPath()), "backups")); !os.IsNotExist(err) {
		t.Error("no backup directory should be created for JSON stores")
	}
}
