package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/storage"
)

const sessionColumns = `id, start_at, end_at, supervisor_id, session_type, activity_category, energy_level, notes, deleted_at`

func (s *Store) AddSession(rec models.SessionRecord) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.DB.Exec(s.q(`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sessionArgs(rec)...)
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) GetSession(id string) (models.SessionRecord, error) {
	if err := s.ready(); err != nil {
		return models.SessionRecord{}, err
	}
	row := s.DB.QueryRow(s.q(`SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND deleted_at IS NULL`), id)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SessionRecord{}, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return rec, err
}

func (s *Store) GetAllSessions() ([]models.SessionRecord, error) {
	return s.listSessions(`SELECT ` + sessionColumns + ` FROM sessions WHERE deleted_at IS NULL ORDER BY start_at, id`)
}

func (s *Store) GetAllSessionsIncludingDeleted() ([]models.SessionRecord, error) {
	return s.listSessions(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY start_at, id`)
}

func (s *Store) listSessions(query string) ([]models.SessionRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) UpdateSession(rec models.SessionRecord) error {
	if err := s.ready(); err != nil {
		return err
	}
	args := sessionArgs(rec)
	// id moves from the first to the last position for the WHERE clause.
	args = append(args[1:], rec.ID)
	res, err := s.DB.Exec(s.q(`
		UPDATE sessions SET start_at = ?, end_at = ?, supervisor_id = ?, session_type = ?,
		       activity_category = ?, energy_level = ?, notes = ?, deleted_at = ?
		WHERE id = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", rec.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", rec.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteSession(id string) error {
	deletedAt, err := s.deletedAt(id)
	if err != nil {
		return err
	}
	if deletedAt.Valid {
		return fmt.Errorf("session %s: %w", id, storage.ErrAlreadyDeleted)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.DB.Exec(s.q("UPDATE sessions SET deleted_at = ? WHERE id = ?"), now, id)
	return err
}

func (s *Store) RestoreSession(id string) error {
	deletedAt, err := s.deletedAt(id)
	if err != nil {
		return err
	}
	if !deletedAt.Valid {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotDeleted)
	}

	_, err = s.DB.Exec(s.q("UPDATE sessions SET deleted_at = NULL WHERE id = ?"), id)
	return err
}

func (s *Store) deletedAt(id string) (sql.NullString, error) {
	var deletedAt sql.NullString
	if err := s.ready(); err != nil {
		return deletedAt, err
	}
	err := s.DB.QueryRow(s.q("SELECT deleted_at FROM sessions WHERE id = ?"), id).Scan(&deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deletedAt, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
		}
		return deletedAt, fmt.Errorf("failed to check session existence: %w", err)
	}
	return deletedAt, nil
}

func sessionArgs(rec models.SessionRecord) []any {
	var energy sql.NullInt64
	if rec.EnergyLevel != nil {
		energy = sql.NullInt64{Int64: int64(*rec.EnergyLevel), Valid: true}
	}
	var deletedAt sql.NullString
	if rec.DeletedAt != nil {
		deletedAt = sql.NullString{String: *rec.DeletedAt, Valid: true}
	}
	return []any{
		rec.ID,
		rec.Start.Format(constants.StorageTimeFormat),
		rec.End.Format(constants.StorageTimeFormat),
		rec.SupervisorRef,
		string(rec.SessionType),
		rec.ActivityCategory,
		energy,
		rec.Notes,
		deletedAt,
	}
}

func scanSession(sc scanner) (models.SessionRecord, error) {
	var rec models.SessionRecord
	var start, end, sessionType string
	var energy sql.NullInt64
	var deletedAt sql.NullString

	err := sc.Scan(&rec.ID, &start, &end, &rec.SupervisorRef, &sessionType,
		&rec.ActivityCategory, &energy, &rec.Notes, &deletedAt)
	if err != nil {
		return models.SessionRecord{}, err
	}

	if rec.Start, err = time.Parse(constants.StorageTimeFormat, start); err != nil {
		return models.SessionRecord{}, fmt.Errorf("session %s: parsing start: %w", rec.ID, err)
	}
	if rec.End, err = time.Parse(constants.StorageTimeFormat, end); err != nil {
		return models.SessionRecord{}, fmt.Errorf("session %s: parsing end: %w", rec.ID, err)
	}
	rec.SessionType = models.SessionType(sessionType)
	if energy.Valid {
		v := int(energy.Int64)
		rec.EnergyLevel = &v
	}
	if deletedAt.Valid {
		rec.DeletedAt = &deletedAt.String
	}
	return rec, nil
}
