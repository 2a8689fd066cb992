package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/fieldlog/internal/interval"
)

type SessionType string

const (
	SessionIndependent           SessionType = "independent"
	SessionIndividualSupervision SessionType = "individual_supervision"
	SessionGroupSupervision      SessionType = "group_supervision"
)

// SessionTypes lists every valid session type in display order.
var SessionTypes = []SessionType{
	SessionIndependent,
	SessionIndividualSupervision,
	SessionGroupSupervision,
}

var (
	ErrUnknownSessionType      = errors.New("unknown session type")
	ErrEmptyActivity           = errors.New("activity category is required")
	ErrEnergyOutOfRange        = errors.New("energy level must be between 1 and 5")
	ErrSupervisorOnIndependent = errors.New("independent sessions cannot reference a supervisor")
)

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	for _, known := range SessionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsSupervised reports whether hours of this type count as supervised.
func (t SessionType) IsSupervised() bool {
	return t == SessionIndividualSupervision || t == SessionGroupSupervision
}

// Label returns a human-readable name.
func (t SessionType) Label() string {
	switch t {
	case SessionIndependent:
		return "Independent"
	case SessionIndividualSupervision:
		return "Individual supervision"
	case SessionGroupSupervision:
		return "Group supervision"
	default:
		return string(t)
	}
}

// ParseSessionType accepts the canonical names plus the short aliases used by
// legacy exports ("none", "individual", "group").
func ParseSessionType(s string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "independent", "none", "unsupervised", "":
		return SessionIndependent, nil
	case "individual_supervision", "individual", "individual supervision":
		return SessionIndividualSupervision, nil
	case "group_supervision", "group", "group supervision":
		return SessionGroupSupervision, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSessionType, s)
	}
}

// SessionRecord is one logged fieldwork event. Start and End are wall-clock
// timestamps without a meaningful zone; the duration is always derived from them.
type SessionRecord struct {
	ID               string      `json:"id"`
	Start            time.Time   `json:"start"`
	End              time.Time   `json:"end"`
	SupervisorRef    string      `json:"supervisor_ref,omitempty"`
	SessionType      SessionType `json:"session_type"`
	ActivityCategory string      `json:"activity_category"`
	EnergyLevel      *int        `json:"energy_level,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	DeletedAt        *string     `json:"deleted_at,omitempty"` // RFC3339 timestamp
}

// SessionParams carries the caller-supplied fields of a new session.
type SessionParams struct {
	Start            time.Time
	End              time.Time
	SupervisorRef    string
	SessionType      SessionType
	ActivityCategory string
	EnergyLevel      *int
	Notes            string
}

// NewSessionRecord assigns a fresh ID and checks the shape of the record.
// Interval ordering and a missing supervisor on a supervised session are left
// to the audit validator so that they surface as flags.
func NewSessionRecord(p SessionParams) (SessionRecord, error) {
	rec := SessionRecord{
		ID:               uuid.New().String(),
		Start:            p.Start,
		End:              p.End,
		SupervisorRef:    strings.TrimSpace(p.SupervisorRef),
		SessionType:      p.SessionType,
		ActivityCategory: strings.TrimSpace(p.ActivityCategory),
		EnergyLevel:      p.EnergyLevel,
		Notes:            p.Notes,
	}
	if err := rec.CheckShape(); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

// CheckShape validates the fields that do not depend on other records or rules.
func (r SessionRecord) CheckShape() error {
	var errs []error
	if !r.SessionType.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownSessionType, r.SessionType))
	}
	if strings.TrimSpace(r.ActivityCategory) == "" {
		errs = append(errs, ErrEmptyActivity)
	}
	if r.EnergyLevel != nil && (*r.EnergyLevel < 1 || *r.EnergyLevel > 5) {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrEnergyOutOfRange, *r.EnergyLevel))
	}
	if r.SessionType == SessionIndependent && r.SupervisorRef != "" {
		errs = append(errs, ErrSupervisorOnIndependent)
	}
	return errors.Join(errs...)
}

// Interval returns the half-open span covered by the session.
func (r SessionRecord) Interval() interval.Interval {
	return interval.New(r.Start, r.End)
}

// Duration returns End - Start.
func (r SessionRecord) Duration() time.Duration {
	return interval.Duration(r.Interval())
}

// DurationHours returns the session length in hours.
func (r SessionRecord) DurationHours() float64 {
	return interval.DurationHours(r.Interval())
}

// Month returns the aggregation bucket of the session (the month of its start).
func (r SessionRecord) Month() interval.MonthKey {
	return interval.MonthOf(r.Start)
}

// IsDeleted reports whether the record has been soft-deleted.
func (r SessionRecord) IsDeleted() bool {
	return r.DeletedAt != nil
}
