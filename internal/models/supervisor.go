package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrEmptySupervisorName = errors.New("supervisor name is required")

// Supervisor is referenced by SessionRecord.SupervisorRef.
type Supervisor struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CredentialID      string    `json:"credential_id,omitempty"`
	RelationshipStart time.Time `json:"relationship_start"`
}

// NewSupervisor assigns a fresh ID.
func NewSupervisor(name, credentialID string, relationshipStart time.Time) (Supervisor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Supervisor{}, ErrEmptySupervisorName
	}
	return Supervisor{
		ID:                uuid.New().String(),
		Name:              name,
		CredentialID:      strings.TrimSpace(credentialID),
		RelationshipStart: relationshipStart,
	}, nil
}
