// Package sqlstore holds the queries shared by the SQLite and PostgreSQL
// providers. Queries are written with '?' placeholders and rebound per driver.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/migration"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/storage"
)

// Store implements the record-level parts of storage.Provider over a *sql.DB.
// The embedding provider owns opening and closing DB.
type Store struct {
	DB         *sql.DB
	Driver     migration.Driver
	Migrations fs.FS
}

func (s *Store) q(query string) string {
	return s.Driver.Rebind(query)
}

func (s *Store) ready() error {
	if s.DB == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *Store) runner() *migration.Runner {
	return migration.NewRunner(s.DB, s.Migrations, s.Driver)
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.runner().ApplyMigrations(logFn)
}

// SchemaVersion reports the applied and the newest known schema versions.
func (s *Store) SchemaVersion() (int, int, error) {
	if err := s.ready(); err != nil {
		return 0, 0, err
	}
	r := s.runner()
	current, err := r.GetCurrentVersion()
	if err != nil {
		return 0, 0, err
	}
	latest, err := r.GetLatestVersion()
	if err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}

// ValidateSchema refuses databases migrated by a newer build.
func (s *Store) ValidateSchema() error {
	return s.runner().ValidateVersion()
}

// EnsureDefaultSettings writes the default settings when none are stored.
func (s *Store) EnsureDefaultSettings() error {
	var count int
	if err := s.DB.QueryRow("SELECT count(*) FROM settings").Scan(&count); err != nil {
		return fmt.Errorf("failed to count settings: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.SaveSettings(models.DefaultSettings())
}

func (s *Store) GetSettings() (models.Settings, error) {
	if err := s.ready(); err != nil {
		return models.Settings{}, err
	}
	rows, err := s.DB.Query("SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	settings := models.Settings{}
	count := 0
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		switch key {
		case constants.SettingTraineeName:
			settings.TraineeName = value
		case constants.SettingTraineeID:
			settings.TraineeID = value
		case constants.SettingFieldworkState:
			settings.FieldworkState = value
		case constants.SettingFieldworkCountry:
			settings.FieldworkCountry = value
		case constants.SettingFieldworkMode:
			settings.FieldworkMode = models.FieldworkMode(value)
		case constants.SettingPrimarySupervisor:
			settings.PrimarySupervisor = value
		case constants.SettingPersonWideOverlap:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return models.Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.PersonWideOverlap = b
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}

	if count == 0 {
		return models.Settings{}, fmt.Errorf("settings: %w", storage.ErrNotFound)
	}
	return settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	if err := s.ready(); err != nil {
		return err
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.q(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	values := [][2]string{
		{constants.SettingTraineeName, settings.TraineeName},
		{constants.SettingTraineeID, settings.TraineeID},
		{constants.SettingFieldworkState, settings.FieldworkState},
		{constants.SettingFieldworkCountry, settings.FieldworkCountry},
		{constants.SettingFieldworkMode, string(settings.FieldworkMode)},
		{constants.SettingPrimarySupervisor, settings.PrimarySupervisor},
		{constants.SettingPersonWideOverlap, strconv.FormatBool(settings.PersonWideOverlap)},
	}
	for _, kv := range values {
		if _, err := stmt.Exec(kv[0], kv[1]); err != nil {
			return fmt.Errorf("saving %s: %w", kv[0], err)
		}
	}
	return tx.Commit()
}

func (s *Store) AddSupervisor(sup models.Supervisor) error {
	if err := s.ready(); err != nil {
		return err
	}
	start := ""
	if !sup.RelationshipStart.IsZero() {
		start = sup.RelationshipStart.Format(constants.DateFormat)
	}
	_, err := s.DB.Exec(s.q(`
		INSERT INTO supervisors (id, name, credential_id, relationship_start) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			credential_id = excluded.credential_id,
			relationship_start = excluded.relationship_start`),
		sup.ID, sup.Name, sup.CredentialID, start)
	return err
}

func (s *Store) GetSupervisor(id string) (models.Supervisor, error) {
	if err := s.ready(); err != nil {
		return models.Supervisor{}, err
	}
	row := s.DB.QueryRow(s.q("SELECT id, name, credential_id, relationship_start FROM supervisors WHERE id = ?"), id)
	sup, err := scanSupervisor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Supervisor{}, fmt.Errorf("supervisor %s: %w", id, storage.ErrNotFound)
	}
	return sup, err
}

func (s *Store) GetAllSupervisors() ([]models.Supervisor, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.Query("SELECT id, name, credential_id, relationship_start FROM supervisors ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Supervisor
	for rows.Next() {
		sup, err := scanSupervisor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSupervisor(sc scanner) (models.Supervisor, error) {
	var sup models.Supervisor
	var start string
	if err := sc.Scan(&sup.ID, &sup.Name, &sup.CredentialID, &start); err != nil {
		return models.Supervisor{}, err
	}
	if start != "" {
		t, err := time.Parse(constants.DateFormat, start)
		if err != nil {
			return models.Supervisor{}, fmt.Errorf("supervisor %s: parsing relationship_start: %w", sup.ID, err)
		}
		sup.RelationshipStart = t
	}
	return sup, nil
}
