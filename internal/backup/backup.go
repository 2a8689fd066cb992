// Package backup keeps timestamped copies of the SQLite database next to it
// and restores them on request. Only the newest constants.MaxBackups are kept.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/logger"
)

const (
	minuteStamp = "20060102-1504"
	secondStamp = "20060102-150405"
)

var (
	ErrNoDatabase    = errors.New("database does not exist")
	ErrInvalidBackup = errors.New("backup file is corrupted or invalid")

	// fieldlog-20230301-0915.db, fieldlog-20230301-091502.db, fieldlog-20230301-091502-3.db
	backupName = regexp.MustCompile(`^` + regexp.QuoteMeta(constants.BackupFilePrefix) +
		`(\d{8}-(?:\d{4}|\d{6}))(?:-\d+)?` + regexp.QuoteMeta(constants.BackupFileSuffix) + `$`)
)

type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

type Manager struct {
	dbPath    string
	backupDir string
	now       func() time.Time
}

func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		now:       time.Now,
	}
}

func (m *Manager) Dir() string {
	return m.backupDir
}

// Create snapshots the database and prunes old backups.
func (m *Manager) Create() (string, error) {
	path, err := m.create()
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("failed to rotate old backups", "error", err)
	}
	return path, nil
}

func (m *Manager) create() (string, error) {
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNoDatabase, m.dbPath)
	}
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	dest, err := m.nextPath()
	if err != nil {
		return "", err
	}
	if err := m.snapshot(dest); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	logger.Debug("created backup", "path", dest)
	return dest, nil
}

// nextPath picks a name that does not exist yet: minute precision, then
// seconds, then a numeric suffix.
func (m *Manager) nextPath() (string, error) {
	now := m.now()
	candidate := func(stamp string, n int) string {
		name := constants.BackupFilePrefix + stamp
		if n > 0 {
			name += fmt.Sprintf("-%d", n)
		}
		return filepath.Join(m.backupDir, name+constants.BackupFileSuffix)
	}
	taken := func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	}

	if p := candidate(now.Format(minuteStamp), 0); !taken(p) {
		return p, nil
	}
	stamp := now.Format(secondStamp)
	for n := 0; n <= 100; n++ {
		if p := candidate(stamp, n); !taken(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename")
}

// snapshot writes a consistent copy with VACUUM INTO, falling back to a
// plain file copy on engines without it.
func (m *Manager) snapshot(dest string) error {
	db, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := ping(db); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		db.Close()
		return copyFile(m.dbPath, dest)
	}
	return nil
}

// List returns the backups newest first. Files that do not follow the
// naming scheme are ignored.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := backupName.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		layout := minuteStamp
		if len(match[1]) == len(secondStamp) {
			layout = secondStamp
		}
		ts, err := time.Parse(layout, match[1])
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if !backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Timestamp.After(backups[j].Timestamp)
		}
		return backups[i].Path > backups[j].Path
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the database with the backup at path. The current
// database is backed up first, and that copy's path is returned (empty when
// there was no database). Rotation is skipped so the safety copy survives.
func (m *Manager) Restore(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("backup file does not exist: %s", path)
	}
	if err := Verify(path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	var safety string
	if _, err := os.Stat(m.dbPath); err == nil {
		safety, err = m.create()
		if err != nil {
			return "", fmt.Errorf("failed to backup current database before restore: %w", err)
		}
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return safety, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return safety, fmt.Errorf("failed to restore database: %w", err)
	}
	logger.Info("restored database", "from", path, "safety_backup", safety)
	return safety, nil
}

// Verify checks that path opens as a SQLite database.
func Verify(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	return ping(db)
}

func ping(db *sql.DB) error {
	var n int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
