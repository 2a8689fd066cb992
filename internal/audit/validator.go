// Package audit applies integrity rules to fieldwork session records before
// they are persisted, and re-runs them over stored history.
package audit

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/interval"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/ruleset"
)

// Validator checks candidate records against existing history and the
// governing ruleset. It holds no state beyond its options.
type Validator struct {
	personWideOverlap bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithPersonWideOverlap makes supervised candidates also clash with sessions
// logged under a different supervisor.
func WithPersonWideOverlap() Option {
	return func(v *Validator) {
		v.personWideOverlap = true
	}
}

// New creates a new Validator
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every rule against candidate and returns all flags raised.
// Existing records sharing the candidate's ID are ignored so an edited record
// is not compared with its stored self.
//
// Rules that do not depend on the ruleset run first. A candidate whose end is
// not after its start is rejected without resolving a ruleset, since neither
// its duration nor its month total means anything. Otherwise the only error is
// a ruleset that cannot be resolved for the candidate's start date.
func (v *Validator) Validate(candidate models.SessionRecord, existing []models.SessionRecord, reg *ruleset.Registry) (ValidationResult, error) {
	iv := candidate.Interval()

	var intervalFlag, supervisorFlag []Flag
	if !iv.Valid() {
		intervalFlag = append(intervalFlag, Flag{
			Kind:     KindInvalidInterval,
			Severity: Blocking,
			Message: fmt.Sprintf("Session end %s is not after start %s",
				candidate.End.Format(constants.DateTimeFormat), candidate.Start.Format(constants.DateTimeFormat)),
			RelatedRecordIDs: []string{candidate.ID},
		})
	}
	if candidate.SessionType.IsSupervised() && candidate.SupervisorRef == "" {
		supervisorFlag = append(supervisorFlag, Flag{
			Kind:             KindMissingSupervisor,
			Severity:         Blocking,
			Message:          fmt.Sprintf("%s session has no supervisor", candidate.SessionType.Label()),
			RelatedRecordIDs: []string{candidate.ID},
		})
	}
	overlaps := v.overlapFlags(candidate, existing)

	result := ValidationResult{Flags: []Flag{}}
	result.Flags = append(result.Flags, intervalFlag...)

	if iv.Valid() {
		rules, err := reg.Resolve(candidate.Start)
		if err != nil {
			return ValidationResult{}, err
		}
		if candidate.Duration() > hoursToDuration(rules.MaxSingleEntryHours) {
			result.Flags = append(result.Flags, Flag{
				Kind:     KindExcessiveDuration,
				Severity: Blocking,
				Message: fmt.Sprintf("Session lasts %s, more than the %s maximum for a single entry under ruleset %s",
					formatHours(candidate.DurationHours()), formatHours(rules.MaxSingleEntryHours), rules.ID),
				RelatedRecordIDs: []string{candidate.ID},
			})
		}
		result.Flags = append(result.Flags, supervisorFlag...)
		result.Flags = append(result.Flags, overlaps...)
		if flag, ok := monthlyCapFlag(candidate, existing, rules); ok {
			result.Flags = append(result.Flags, flag)
		}
	} else {
		result.Flags = append(result.Flags, supervisorFlag...)
		result.Flags = append(result.Flags, overlaps...)
	}

	result.Accepted = !result.HasBlocking()
	return result, nil
}

func (v *Validator) overlapFlags(candidate models.SessionRecord, existing []models.SessionRecord) []Flag {
	iv := candidate.Interval()
	var clashes []models.SessionRecord
	for _, rec := range existing {
		if !competes(candidate, rec) {
			continue
		}
		if !v.inOverlapScope(candidate, rec) {
			continue
		}
		if interval.Overlaps(iv, rec.Interval()) {
			clashes = append(clashes, rec)
		}
	}

	sort.Slice(clashes, func(i, j int) bool {
		if !clashes[i].Start.Equal(clashes[j].Start) {
			return clashes[i].Start.Before(clashes[j].Start)
		}
		return clashes[i].ID < clashes[j].ID
	})

	flags := make([]Flag, 0, len(clashes))
	for _, rec := range clashes {
		flags = append(flags, Flag{
			Kind:     KindOverlap,
			Severity: Blocking,
			Message: fmt.Sprintf("Overlaps %s session %s to %s",
				rec.SessionType.Label(),
				rec.Start.Format(constants.DateTimeFormat),
				rec.End.Format(constants.DateTimeFormat)),
			RelatedRecordIDs: []string{rec.ID},
		})
	}
	return flags
}

// inOverlapScope decides whether rec competes with candidate for the same time.
// Independent work on either side clashes with anything on the trainee's
// calendar; two supervised sessions clash when they share a supervisor. The
// relation is symmetric so the verdict does not depend on logging order.
func (v *Validator) inOverlapScope(candidate, rec models.SessionRecord) bool {
	if v.personWideOverlap {
		return true
	}
	if candidate.SessionType == models.SessionIndependent || rec.SessionType == models.SessionIndependent {
		return true
	}
	return candidate.SupervisorRef != "" && rec.SupervisorRef == candidate.SupervisorRef
}

func monthlyCapFlag(candidate models.SessionRecord, existing []models.SessionRecord, rules ruleset.Version) (Flag, bool) {
	month := candidate.Month()

	var total time.Duration
	for _, rec := range existing {
		if !competes(candidate, rec) || rec.Month() != month {
			continue
		}
		if d := rec.Duration(); d > 0 {
			total += d
		}
	}
	if d := candidate.Duration(); d > 0 {
		total += d
	}

	if total <= hoursToDuration(rules.MonthlyHoursMax) {
		return Flag{}, false
	}

	return Flag{
		Kind:     KindMonthlyCapExceeded,
		Severity: Advisory,
		Message: fmt.Sprintf("%s would total %s, above the monthly maximum of %s",
			month.Label(), formatHours(total.Hours()), formatHours(rules.MonthlyHoursMax)),
		RelatedRecordIDs: []string{candidate.ID},
	}, true
}

func competes(candidate, rec models.SessionRecord) bool {
	return rec.ID != candidate.ID && !rec.IsDeleted()
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}
