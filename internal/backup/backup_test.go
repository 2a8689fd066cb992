package backup

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/fieldlog/internal/constants"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "fieldlog.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE sessions (id TEXT PRIMARY KEY, notes TEXT)`,
		`INSERT INTO sessions (id, notes) VALUES ('s-1', 'first'), ('s-2', 'second')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed test database: %v", err)
		}
	}
	return dbPath
}

func countSessions(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		t.Fatalf("failed to count sessions in %s: %v", path, err)
	}
	return n
}

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	current := start.Add(-step)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2023, 3, 1, 9, 15, 0, 0, time.UTC), 0)

	path, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Base(path) != "fieldlog-20230301-0915.db" {
		t.Errorf("unexpected backup name %s", filepath.Base(path))
	}
	if filepath.Dir(path) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written outside backup dir: %s", path)
	}
	if got := countSessions(t, path); got != 2 {
		t.Errorf("backup has %d sessions, want 2", got)
	}
}

func TestCreateWithoutDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(); !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("expected ErrNoDatabase, got %v", err)
	}
}

func TestUniqueNames(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	mgr.now = fixedClock(time.Date(2023, 3, 1, 9, 15, 30, 0, time.UTC), 0)

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		path, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		name := filepath.Base(path)
		if seen[name] {
			t.Fatalf("duplicate backup name %s", name)
		}
		seen[name] = true
	}

	for _, want := range []string{
		"fieldlog-20230301-0915.db",
		"fieldlog-20230301-091530.db",
		"fieldlog-20230301-091530-1.db",
		"fieldlog-20230301-091530-2.db",
	} {
		if !seen[want] {
			t.Errorf("missing expected backup %s; got %v", want, seen)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 4 {
		t.Errorf("List returned %d backups, want 4", len(backups))
	}
}

func TestRotation(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	mgr.now = fixedClock(start, 24*time.Hour)

	total := constants.MaxBackups + 3
	for i := 0; i < total; i++ {
		if _, err := mgr.Create(); err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("kept %d backups, want %d", len(backups), constants.MaxBackups)
	}
	newest := start.AddDate(0, 0, total-1)
	if !backups[0].Timestamp.Equal(newest) {
		t.Errorf("newest backup %v, want %v", backups[0].Timestamp, newest)
	}
	oldest := start.AddDate(0, 0, total-constants.MaxBackups)
	if !backups[len(backups)-1].Timestamp.Equal(oldest) {
		t.Errorf("oldest kept backup %v, want %v", backups[len(backups)-1].Timestamp, oldest)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	if err := os.MkdirAll(mgr.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"notes.txt",
		"fieldlog-latest.db",
		"fieldlog-2023-03-01.db",
		"notes-20230301-0915.db",
	} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected foreign files to be ignored, got %+v", backups)
	}
}

func TestListWithoutDirectory(t *testing.T) {
	backups, err := NewManager(filepath.Join(t.TempDir(), "fieldlog.db")).List()
	if err != nil || len(backups) != 0 {
		t.Fatalf("List() = %v, %v; want empty", backups, err)
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2023, 3, 1, 9, 0, 0, 0, time.UTC), time.Hour)

	backupPath, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DELETE FROM sessions"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	safety, err := mgr.Restore(backupPath)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := countSessions(t, dbPath); got != 2 {
		t.Errorf("restored database has %d sessions, want 2", got)
	}
	if safety == "" {
		t.Fatal("expected a safety backup of the pre-restore database")
	}
	if got := countSessions(t, safety); got != 0 {
		t.Errorf("safety backup has %d sessions, want 0", got)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Error("temporary restore file left behind")
	}
}

func TestRestoreRejectsCorruptBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	bad := filepath.Join(t.TempDir(), "fieldlog-20230301-0900.db")
	if err := os.WriteFile(bad, []byte("not a database, just some text padding it out"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Restore(bad); !errors.Is(err, ErrInvalidBackup) {
		t.Fatalf("expected ErrInvalidBackup, got %v", err)
	}
	if got := countSessions(t, dbPath); got != 2 {
		t.Errorf("database modified by failed restore: %d sessions", got)
	}
}

func TestRestoreMissingBackup(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	if _, err := mgr.Restore(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Fatal("expected error for missing backup")
	}
}
