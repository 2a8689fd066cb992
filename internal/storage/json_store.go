package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/julianstephens/fieldlog/internal/models"
)

const jsonStoreVersion = 1

type jsonDocument struct {
	Version     int                             `json:"version"`
	Settings    models.Settings                 `json:"settings"`
	Supervisors map[string]models.Supervisor    `json:"supervisors"`
	Sessions    map[string]models.SessionRecord `json:"sessions"`
}

// JSONStore keeps everything in one JSON file that is rewritten on every change.
type JSONStore struct {
	path string
	doc  *jsonDocument
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}

	s.doc = &jsonDocument{
		Version:     jsonStoreVersion,
		Settings:    models.DefaultSettings(),
		Supervisors: make(map[string]models.Supervisor),
		Sessions:    make(map[string]models.SessionRecord),
	}
	return s.save()
}

func (s *JSONStore) Load() error {
	if s.doc != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &jsonDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > jsonStoreVersion {
		return fmt.Errorf("storage file version %d is newer than supported version %d", doc.Version, jsonStoreVersion)
	}
	if doc.Supervisors == nil {
		doc.Supervisors = make(map[string]models.Supervisor)
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]models.SessionRecord)
	}
	s.doc = doc
	return nil
}

func (s *JSONStore) Close() error {
	s.doc = nil
	return nil
}

// save writes to a temp file and renames it over the original.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

func (s *JSONStore) loaded() error {
	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *JSONStore) GetSettings() (models.Settings, error) {
	if err := s.loaded(); err != nil {
		return models.Settings{}, err
	}
	return s.doc.Settings, nil
}

func (s *JSONStore) SaveSettings(settings models.Settings) error {
	if err := s.loaded(); err != nil {
		return err
	}
	s.doc.Settings = settings
	return s.save()
}

func (s *JSONStore) AddSupervisor(sup models.Supervisor) error {
	if err := s.loaded(); err != nil {
		return err
	}
	s.doc.Supervisors[sup.ID] = sup
	return s.save()
}

func (s *JSONStore) GetSupervisor(id string) (models.Supervisor, error) {
	if err := s.loaded(); err != nil {
		return models.Supervisor{}, err
	}
	sup, ok := s.doc.Supervisors[id]
	if !ok {
		return models.Supervisor{}, fmt.Errorf("supervisor %s: %w", id, ErrNotFound)
	}
	return sup, nil
}

func (s *JSONStore) GetAllSupervisors() ([]models.Supervisor, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	out := make([]models.Supervisor, 0, len(s.doc.Supervisors))
	for _, sup := range s.doc.Supervisors {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *JSONStore) AddSession(rec models.SessionRecord) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, exists := s.doc.Sessions[rec.ID]; exists {
		return fmt.Errorf("session %s already exists", rec.ID)
	}
	s.doc.Sessions[rec.ID] = rec
	return s.save()
}

func (s *JSONStore) GetSession(id string) (models.SessionRecord, error) {
	if err := s.loaded(); err != nil {
		return models.SessionRecord{}, err
	}
	rec, ok := s.doc.Sessions[id]
	if !ok || rec.IsDeleted() {
		return models.SessionRecord{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

func (s *JSONStore) GetAllSessions() ([]models.SessionRecord, error) {
	return s.sessions(false)
}

func (s *JSONStore) GetAllSessionsIncludingDeleted() ([]models.SessionRecord, error) {
	return s.sessions(true)
}

func (s *JSONStore) sessions(includeDeleted bool) ([]models.SessionRecord, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	out := make([]models.SessionRecord, 0, len(s.doc.Sessions))
	for _, rec := range s.doc.Sessions {
		if rec.IsDeleted() && !includeDeleted {
			continue
		}
		out = append(out, rec)
	}
	SortSessions(out)
	return out, nil
}

func (s *JSONStore) UpdateSession(rec models.SessionRecord) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.doc.Sessions[rec.ID]; !ok {
		return fmt.Errorf("session %s: %w", rec.ID, ErrNotFound)
	}
	s.doc.Sessions[rec.ID] = rec
	return s.save()
}

func (s *JSONStore) DeleteSession(id string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	rec, ok := s.doc.Sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if rec.IsDeleted() {
		return fmt.Errorf("session %s: %w", id, ErrAlreadyDeleted)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	rec.DeletedAt = &now
	s.doc.Sessions[id] = rec
	return s.save()
}

func (s *JSONStore) RestoreSession(id string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	rec, ok := s.doc.Sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if !rec.IsDeleted() {
		return fmt.Errorf("session %s: %w", id, ErrNotDeleted)
	}
	rec.DeletedAt = nil
	s.doc.Sessions[id] = rec
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

// SortSessions orders records by start, then id.
func SortSessions(recs []models.SessionRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Start.Equal(recs[j].Start) {
			return recs[i].Start.Before(recs[j].Start)
		}
		return recs[i].ID < recs[j].ID
	})
}
