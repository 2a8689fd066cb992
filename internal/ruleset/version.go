package ruleset

import (
	"time"

	"github.com/julianstephens/fieldlog/internal/models"
)

// Version is one dated set of numeric thresholds issued by the regulator.
// The range [EffectiveFrom, EffectiveUntil) is date-granular; a nil
// EffectiveUntil leaves the version open-ended.
type Version struct {
	ID             string     `json:"id" validate:"required"`
	EffectiveFrom  time.Time  `json:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`

	SupervisionRatioMin  float64 `json:"supervision_ratio_min" validate:"gt=0,lte=1"`
	ConcentratedRatioMin float64 `json:"concentrated_ratio_min,omitempty" validate:"gte=0,lte=1"`

	MonthlyHoursMin float64 `json:"monthly_hours_min" validate:"gte=0"`
	MonthlyHoursMax float64 `json:"monthly_hours_max" validate:"gt=0,gtefield=MonthlyHoursMin"`

	MaxSingleEntryHours float64 `json:"max_single_entry_hours" validate:"gt=0,lte=24"`

	// GroupSupervisionMaxShare caps group hours as a share of supervised hours; 0 disables the cap.
	GroupSupervisionMaxShare float64 `json:"group_supervision_max_share,omitempty" validate:"gte=0,lte=1"`
}

// Contains reports whether the calendar date of t falls inside the version's range.
func (v Version) Contains(t time.Time) bool {
	d := dateOnly(t)
	if d.Before(v.EffectiveFrom) {
		return false
	}
	return v.EffectiveUntil == nil || d.Before(*v.EffectiveUntil)
}

// RequiredRatio returns the minimum supervision ratio for the given mode.
// Concentrated fieldwork falls back to the standard ratio when the version
// does not define a concentrated one.
func (v Version) RequiredRatio(mode models.FieldworkMode) float64 {
	if mode == models.ModeConcentrated && v.ConcentratedRatioMin > 0 {
		return v.ConcentratedRatioMin
	}
	return v.SupervisionRatioMin
}

// ProgressTargets are the total fieldwork hours required for certification.
// They are configured next to the versions but are not version-bound.
type ProgressTargets struct {
	Standard     float64 `json:"standard"`
	Concentrated float64 `json:"concentrated"`
}

// DefaultProgressTargets is used when a ruleset document does not set targets.
var DefaultProgressTargets = ProgressTargets{Standard: 2000, Concentrated: 1500}

// For returns the target for mode.
func (p ProgressTargets) For(mode models.FieldworkMode) float64 {
	if mode == models.ModeConcentrated && p.Concentrated > 0 {
		return p.Concentrated
	}
	return p.Standard
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
