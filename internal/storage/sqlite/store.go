// Package sqlite is the default storage provider, backed by a single
// modernc.org/sqlite database file.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/migration"
	"github.com/julianstephens/fieldlog/internal/storage"
	"github.com/julianstephens/fieldlog/internal/storage/sqlstore"
	"github.com/julianstephens/fieldlog/migrations"
)

type Store struct {
	sqlstore.Store
	path string
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		Store: sqlstore.Store{
			Driver: migration.DriverSQLite,
		},
	}
}

func (s *Store) open() error {
	sub, err := migrations.Sub(migrations.SQLite)
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	// busy_timeout lets writes wait out a concurrent backup instead of failing.
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer connection keeps modernc's per-connection state simple.
	db.SetMaxOpenConns(1)

	s.DB = db
	s.Migrations = sub
	return nil
}

func (s *Store) Init() error {
	if s.DB != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.open(); err != nil {
		return err
	}

	if _, err := s.Migrate(func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := s.EnsureDefaultSettings(); err != nil {
		return fmt.Errorf("failed to save default settings: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.DB != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}
	if err := s.open(); err != nil {
		return err
	}
	return s.ValidateSchema()
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	err := s.DB.Close()
	s.DB = nil
	return err
}

func (s *Store) GetConfigPath() string {
	return s.path
}
