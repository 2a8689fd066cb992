package backups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/fieldlog/internal/backup"
	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/storage/sqlite"
)

var ErrUnsupportedStore = errors.New("backups are only supported for SQLite storage")

func manager(ctx *cli.Context) (*backup.Manager, error) {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil, ErrUnsupportedStore
	}
	return backup.NewManager(ctx.Store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backupPath, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		ctx.Printf("  %s  %-32s %8s  %s\n",
			b.Timestamp.Format("2006-01-02 15:04:05"),
			filepath.Base(b.Path),
			humanize.Bytes(uint64(b.Size)),
			humanize.Time(b.Timestamp),
		)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `help:"Skip the confirmation prompt." short:"y"`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	backupPath := c.BackupFile
	if !filepath.IsAbs(backupPath) {
		if _, err := os.Stat(backupPath); err != nil {
			candidate := filepath.Join(mgr.Dir(), c.BackupFile)
			if _, err := os.Stat(candidate); err == nil {
				backupPath = candidate
			}
		}
	}
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", c.BackupFile)
	}

	if !c.Yes {
		ok, err := ctx.Ask(
			"Restore "+filepath.Base(backupPath)+"?",
			"This replaces the current database. A backup of it is taken first.",
		)
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		logger.Warn("failed to close database connection", "error", err)
	}

	safety, err := mgr.Restore(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	ctx.Println("✓ Database restored successfully!")
	if safety != "" {
		ctx.Printf("  Previous database saved as %s\n", filepath.Base(safety))
	}
	return nil
}
