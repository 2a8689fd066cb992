package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing database before initialization."`
	Source string `help:"Database path or connection string to copy settings, supervisors and sessions from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized fieldlog storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}
	return nil
}

// reset removes a file-backed store. PostgreSQL databases are never dropped.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*postgres.Store); ok {
		return fmt.Errorf("--force is only supported for file-backed storage")
	}

	dbPath := ctx.Store.GetConfigPath()
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	if c.Source != "" {
		if src, err := filepath.Abs(c.Source); err == nil && src == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		logger.Info("deleted existing database", "path", dbPath)
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context) error {
	source, err := cli.OpenStore(c.Source)
	if err != nil {
		return err
	}
	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	ctx.Println("  Migrating settings...")
	settings, err := source.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	ctx.Println("  Migrating supervisors...")
	supervisors, err := source.GetAllSupervisors()
	if err != nil {
		return fmt.Errorf("failed to get supervisors from source: %w", err)
	}
	for _, sup := range supervisors {
		if err := ctx.Store.AddSupervisor(sup); err != nil {
			return fmt.Errorf("failed to add supervisor %s: %w", sup.ID, err)
		}
	}
	ctx.Printf("    Migrated %d supervisors\n", len(supervisors))

	ctx.Println("  Migrating sessions...")
	sessions, err := source.GetAllSessionsIncludingDeleted()
	if err != nil {
		return fmt.Errorf("failed to get sessions from source: %w", err)
	}
	for _, rec := range sessions {
		if err := ctx.Store.AddSession(rec); err != nil {
			return fmt.Errorf("failed to add session %s: %w", rec.ID, err)
		}
	}
	ctx.Printf("    Migrated %d sessions\n", len(sessions))
	return nil
}
