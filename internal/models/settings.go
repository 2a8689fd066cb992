package models

import (
	"fmt"
	"strings"

	"github.com/julianstephens/fieldlog/internal/constants"
)

// FieldworkMode selects which supervision ratio and progress target apply.
type FieldworkMode string

const (
	ModeStandard     FieldworkMode = "standard"
	ModeConcentrated FieldworkMode = "concentrated"
)

// ParseFieldworkMode parses a mode name, case-insensitively.
func ParseFieldworkMode(s string) (FieldworkMode, error) {
	switch FieldworkMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStandard:
		return ModeStandard, nil
	case ModeConcentrated:
		return ModeConcentrated, nil
	default:
		return "", fmt.Errorf("invalid fieldwork mode %q (expected standard or concentrated)", s)
	}
}

// Settings represents the trainee profile and application-wide preferences
type Settings struct {
	TraineeName       string        `json:"trainee_name"`       // printed on verification forms
	TraineeID         string        `json:"trainee_id"`         // certification board id
	FieldworkState    string        `json:"fieldwork_state"`    // state/province where fieldwork happens
	FieldworkCountry  string        `json:"fieldwork_country"`  // e.g. "USA"
	FieldworkMode     FieldworkMode `json:"fieldwork_mode"`     // standard or concentrated
	PrimarySupervisor string        `json:"primary_supervisor"` // supervisor id used by default on forms
	PersonWideOverlap bool          `json:"person_wide_overlap"`
}

// DefaultSettings returns the settings written by a fresh init.
func DefaultSettings() Settings {
	return Settings{
		FieldworkCountry:  constants.DefaultFieldworkCountry,
		FieldworkMode:     FieldworkMode(constants.DefaultFieldworkMode),
		PersonWideOverlap: constants.DefaultPersonWideOverlap,
	}
}
