package compliance

import (
	"time"

	"github.com/julianstephens/fieldlog/internal/audit"
	"github.com/julianstephens/fieldlog/internal/interval"
	"github.com/julianstephens/fieldlog/internal/models"
)

// Period tells a monthly snapshot from the cumulative one.
type Period string

const (
	PeriodMonth      Period = "month"
	PeriodCumulative Period = "cumulative"
)

// Progress tracks cumulative hours against the certification target.
type Progress struct {
	TargetHours    float64 `json:"target_hours"`
	Fraction       float64 `json:"fraction"`
	RemainingHours float64 `json:"remaining_hours"`
}

// Snapshot is the compliance picture of one month, or of the whole history up
// to AsOf when Period is PeriodCumulative.
type Snapshot struct {
	Period    Period               `json:"period"`
	Month     *interval.MonthKey   `json:"month,omitempty"`
	AsOf      time.Time            `json:"as_of"`
	RuleSetID string               `json:"ruleset_id"`
	Mode      models.FieldworkMode `json:"mode"`

	TotalHours       float64 `json:"total_hours"`
	SupervisedHours  float64 `json:"supervised_hours"`
	IndividualHours  float64 `json:"individual_hours"`
	GroupHours       float64 `json:"group_hours"`
	IndependentHours float64 `json:"independent_hours"`

	ActualRatio               float64 `json:"actual_ratio"`
	RequiredRatio             float64 `json:"required_ratio"`
	MeetsRatio                bool    `json:"meets_ratio"`
	SupervisionShortfallHours float64 `json:"supervision_shortfall_hours"`

	MonthlyHoursMin     float64 `json:"monthly_hours_min,omitempty"`
	MonthlyHoursMax     float64 `json:"monthly_hours_max,omitempty"`
	BelowMonthlyMinimum bool    `json:"below_monthly_minimum"`
	AboveMonthlyMaximum bool    `json:"above_monthly_maximum"`

	RecordCount int          `json:"record_count"`
	Flags       []audit.Flag `json:"flags"`
	Progress    *Progress    `json:"progress,omitempty"`
}

// WithinMonthlyBounds reports whether a monthly snapshot's total lies in [min, max].
func (s Snapshot) WithinMonthlyBounds() bool {
	return !s.BelowMonthlyMinimum && !s.AboveMonthlyMaximum
}

// Label names the period for display.
func (s Snapshot) Label() string {
	if s.Month != nil {
		return s.Month.Label()
	}
	return "Cumulative"
}

// FindMonth returns the monthly snapshot for m.
func FindMonth(snaps []Snapshot, m interval.MonthKey) (Snapshot, bool) {
	for _, s := range snaps {
		if s.Period == PeriodMonth && s.Month != nil && *s.Month == m {
			return s, true
		}
	}
	return Snapshot{}, false
}

// Cumulative returns the cumulative snapshot, which Aggregate always appends last.
func Cumulative(snaps []Snapshot) (Snapshot, bool) {
	if len(snaps) == 0 || snaps[len(snaps)-1].Period != PeriodCumulative {
		return Snapshot{}, false
	}
	return snaps[len(snaps)-1], true
}
