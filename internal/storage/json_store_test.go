package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/fieldlog/internal/models"
)

var _ Provider = (*JSONStore)(nil)

func setupJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	store := NewJSONStore(filepath.Join(t.TempDir(), "fieldlog.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return store
}

func session(id string, start time.Time) models.SessionRecord {
	return models.SessionRecord{
		ID:               id,
		Start:            start,
		End:              start.Add(time.Hour),
		SessionType:      models.SessionIndependent,
		ActivityCategory: "Restricted",
	}
}

func TestJSONStoreDefaults(t *testing.T) {
	store := setupJSONStore(t)
	got, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got != models.DefaultSettings() {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestJSONStorePersistsAcrossLoad(t *testing.T) {
	store := setupJSONStore(t)
	start := time.Date(2023, 3, 2, 9, 0, 0, 0, time.UTC)

	if err := store.AddSupervisor(models.Supervisor{ID: "sup-1", Name: "Ann Lee"}); err != nil {
		t.Fatalf("AddSupervisor failed: %v", err)
	}
	if err := store.AddSession(session("b", start)); err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	if err := store.AddSession(session("a", start)); err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	if err := store.AddSession(session("a", start)); err == nil {
		t.Error("expected duplicate id to be rejected")
	}
	store.Close()

	reopened := NewJSONStore(store.GetConfigPath())
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	all, err := reopened.GetAllSessions()
	if err != nil {
		t.Fatalf("GetAllSessions failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Errorf("expected id tiebreak ordering, got %+v", all)
	}
	if _, err := reopened.GetSupervisor("sup-1"); err != nil {
		t.Errorf("supervisor lost: %v", err)
	}
	if _, err := os.Stat(store.GetConfigPath() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestJSONStoreSoftDelete(t *testing.T) {
	store := setupJSONStore(t)
	if err := store.AddSession(session("s-1", time.Date(2023, 3, 2, 9, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}

	tests := []struct {
		name    string
		op      func(string) error
		id      string
		wantErr error
	}{
		{"restore active", store.RestoreSession, "s-1", ErrNotDeleted},
		{"delete", store.DeleteSession, "s-1", nil},
		{"delete again", store.DeleteSession, "s-1", ErrAlreadyDeleted},
		{"restore", store.RestoreSession, "s-1", nil},
		{"delete missing", store.DeleteSession, "nope", ErrNotFound},
		{"restore missing", store.RestoreSession, "nope", ErrNotFound},
	}
	for _, tt := range tests {
		err := tt.op(tt.id)
		if tt.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}

	if err := store.DeleteSession("s-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := store.GetSession("s-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session visible: %v", err)
	}
	all, _ := store.GetAllSessionsIncludingDeleted()
	if len(all) != 1 || !all[0].IsDeleted() {
		t.Errorf("expected the deleted record to be kept, got %+v", all)
	}
}

func TestJSONStoreRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldlog.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("expected newer storage version to be rejected")
	}
}

func TestJSONStoreLoadMissing(t *testing.T) {
	err := NewJSONStore(filepath.Join(t.TempDir(), "none.json")).Load()
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
