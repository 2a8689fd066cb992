// Package compliance aggregates accepted session history into monthly and
// cumulative compliance snapshots under the governing rulesets.
package compliance

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/julianstephens/fieldlog/internal/audit"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/interval"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/ruleset"
)

// Engine computes snapshots. It is stateless apart from its options and safe
// for concurrent use.
type Engine struct {
	mode    models.FieldworkMode
	targets ruleset.ProgressTargets
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode selects the fieldwork mode used for the required ratio and target.
func WithMode(mode models.FieldworkMode) Option {
	return func(e *Engine) {
		e.mode = mode
	}
}

// WithProgressTargets overrides the certification hour targets.
func WithProgressTargets(t ruleset.ProgressTargets) Option {
	return func(e *Engine) {
		e.targets = t
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		mode:    models.ModeStandard,
		targets: ruleset.DefaultProgressTargets,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the configured fieldwork mode.
func (e *Engine) Mode() models.FieldworkMode {
	return e.mode
}

type totals struct {
	individual  time.Duration
	group       time.Duration
	independent time.Duration
	count       int
}

func (t *totals) add(rec models.SessionRecord) {
	d := rec.Duration()
	switch rec.SessionType {
	case models.SessionIndividualSupervision:
		t.individual += d
	case models.SessionGroupSupervision:
		t.group += d
	default:
		t.independent += d
	}
	t.count++
}

func (t *totals) merge(o totals) {
	t.individual += o.individual
	t.group += o.group
	t.independent += o.independent
	t.count += o.count
}

func (t totals) supervised() time.Duration {
	return t.individual + t.group
}

func (t totals) total() time.Duration {
	return t.supervised() + t.independent
}

type bucket struct {
	totals
	invalid []models.SessionRecord
}

// Aggregate returns one snapshot per month touched by records (ascending),
// followed by the cumulative snapshot. Records starting after the asOf date
// and soft-deleted records are ignored. Records whose end is not after their
// start are left out of every total and reported on their month. The only
// error is a month, or asOf itself, that no ruleset governs.
func (e *Engine) Aggregate(records []models.SessionRecord, reg *ruleset.Registry, asOf time.Time) ([]Snapshot, error) {
	cutoff := endOfDay(asOf)

	buckets := make(map[interval.MonthKey]*bucket)
	for _, rec := range records {
		if rec.IsDeleted() || !rec.Start.Before(cutoff) {
			continue
		}
		key := rec.Month()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		if !rec.Interval().Valid() {
			b.invalid = append(b.invalid, rec)
			continue
		}
		b.add(rec)
	}

	months := make([]interval.MonthKey, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	snaps := make([]Snapshot, 0, len(months)+1)
	var all totals
	for _, m := range months {
		rules, err := reg.Resolve(m.FirstDay(time.UTC))
		if err != nil {
			return nil, fmt.Errorf("month %s: %w", m, err)
		}
		b := buckets[m]
		snaps = append(snaps, e.monthSnapshot(m, b, rules, asOf))
		all.merge(b.totals)
	}

	rules, err := reg.Resolve(asOf)
	if err != nil {
		return nil, fmt.Errorf("cumulative as of %s: %w", asOf.Format(constants.DateFormat), err)
	}
	snaps = append(snaps, e.cumulativeSnapshot(all, rules, asOf))
	return snaps, nil
}

func (e *Engine) monthSnapshot(m interval.MonthKey, b *bucket, rules ruleset.Version, asOf time.Time) Snapshot {
	month := m
	s := e.base(b.totals, rules, asOf)
	s.Period = PeriodMonth
	s.Month = &month
	s.MonthlyHoursMin = rules.MonthlyHoursMin
	s.MonthlyHoursMax = rules.MonthlyHoursMax

	sort.Slice(b.invalid, func(i, j int) bool {
		if !b.invalid[i].Start.Equal(b.invalid[j].Start) {
			return b.invalid[i].Start.Before(b.invalid[j].Start)
		}
		return b.invalid[i].ID < b.invalid[j].ID
	})
	for _, rec := range b.invalid {
		s.Flags = append(s.Flags, audit.Flag{
			Kind:     audit.KindInvalidInterval,
			Severity: audit.Advisory,
			Message: fmt.Sprintf("Session starting %s does not end after it starts and was left out of the totals",
				rec.Start.Format(constants.DateTimeFormat)),
			RelatedRecordIDs: []string{rec.ID},
		})
	}

	e.addRatioFlags(&s, rules)

	if b.total() < toDuration(rules.MonthlyHoursMin) {
		s.BelowMonthlyMinimum = true
		s.Flags = append(s.Flags, audit.Flag{
			Kind:     audit.KindBelowMonthlyMinimum,
			Severity: audit.Advisory,
			Message: fmt.Sprintf("%s has %s of fieldwork, below the monthly minimum of %s",
				m.Label(), hours(s.TotalHours), hours(rules.MonthlyHoursMin)),
		})
	}
	if b.total() > toDuration(rules.MonthlyHoursMax) {
		s.AboveMonthlyMaximum = true
		s.Flags = append(s.Flags, audit.Flag{
			Kind:     audit.KindMonthlyCapExceeded,
			Severity: audit.Advisory,
			Message: fmt.Sprintf("%s has %s of fieldwork, above the monthly maximum of %s",
				m.Label(), hours(s.TotalHours), hours(rules.MonthlyHoursMax)),
		})
	}

	e.addGroupFlag(&s, b.totals, rules)
	return s
}

func (e *Engine) cumulativeSnapshot(all totals, rules ruleset.Version, asOf time.Time) Snapshot {
	s := e.base(all, rules, asOf)
	s.Period = PeriodCumulative

	e.addRatioFlags(&s, rules)
	e.addGroupFlag(&s, all, rules)

	target := e.targets.For(e.mode)
	p := &Progress{TargetHours: target}
	if target > 0 {
		p.Fraction = s.TotalHours / target
		p.RemainingHours = math.Max(0, target-s.TotalHours)
	}
	s.Progress = p
	return s
}

func (e *Engine) base(t totals, rules ruleset.Version, asOf time.Time) Snapshot {
	total := t.total()
	s := Snapshot{
		AsOf:             asOf,
		RuleSetID:        rules.ID,
		Mode:             e.mode,
		TotalHours:       total.Hours(),
		SupervisedHours:  t.supervised().Hours(),
		IndividualHours:  t.individual.Hours(),
		GroupHours:       t.group.Hours(),
		IndependentHours: t.independent.Hours(),
		RequiredRatio:    rules.RequiredRatio(e.mode),
		RecordCount:      t.count,
		Flags:            []audit.Flag{},
	}
	if total > 0 {
		s.ActualRatio = float64(t.supervised()) / float64(total)
	}
	s.MeetsRatio = total > 0 && s.ActualRatio >= s.RequiredRatio
	s.SupervisionShortfallHours = math.Max(0, s.TotalHours*s.RequiredRatio-s.SupervisedHours)
	return s
}

func (e *Engine) addRatioFlags(s *Snapshot, rules ruleset.Version) {
	if s.TotalHours == 0 || s.ActualRatio >= s.RequiredRatio {
		return
	}
	s.Flags = append(s.Flags, audit.Flag{
		Kind:     audit.KindRatioBelowMinimum,
		Severity: audit.Advisory,
		Message: fmt.Sprintf("%s: supervision is %.2f%% of %s, below the %.2f%% required under ruleset %s (%s more supervision needed)",
			s.Label(), s.ActualRatio*100, hours(s.TotalHours), s.RequiredRatio*100, rules.ID, hours(s.SupervisionShortfallHours)),
	})
}

func (e *Engine) addGroupFlag(s *Snapshot, t totals, rules ruleset.Version) {
	if rules.GroupSupervisionMaxShare <= 0 || t.supervised() == 0 {
		return
	}
	share := float64(t.group) / float64(t.supervised())
	if share <= rules.GroupSupervisionMaxShare {
		return
	}
	s.Flags = append(s.Flags, audit.Flag{
		Kind:     audit.KindGroupSupervisionExceeded,
		Severity: audit.Advisory,
		Message: fmt.Sprintf("%s: group supervision is %.0f%% of supervised hours, above the %.0f%% allowed",
			s.Label(), share*100, rules.GroupSupervisionMaxShare*100),
	})
}

// endOfDay returns wall-clock midnight after the calendar date of t.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

func toDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func hours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}
