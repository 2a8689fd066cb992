// Package storage defines the persistence contract for sessions, supervisors
// and settings, plus a single-file JSON implementation.
package storage

import (
	"errors"

	"github.com/julianstephens/fieldlog/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyDeleted = errors.New("already deleted")
	ErrNotDeleted     = errors.New("not deleted")
	ErrNotInitialized = errors.New("storage not initialized, run 'fieldlog init' first")
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Supervisors
	AddSupervisor(models.Supervisor) error
	GetSupervisor(id string) (models.Supervisor, error)
	GetAllSupervisors() ([]models.Supervisor, error)

	// Sessions. GetSession and GetAllSessions skip soft-deleted records.
	AddSession(models.SessionRecord) error
	GetSession(id string) (models.SessionRecord, error)
	GetAllSessions() ([]models.SessionRecord, error)
	GetAllSessionsIncludingDeleted() ([]models.SessionRecord, error)
	UpdateSession(models.SessionRecord) error
	DeleteSession(id string) error
	RestoreSession(id string) error

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by SQL-backed providers.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}
