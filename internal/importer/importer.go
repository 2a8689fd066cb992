// Package importer reads legacy fieldwork exports (CSV with Date, Start Time,
// End Time, Duration, Activity, Supervisor, Fieldwork Type and Description
// columns) and turns each row into a session record checked by the audit
// validator.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/fieldlog/internal/audit"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/ruleset"
)

var (
	ErrMissingColumn = errors.New("required column missing")
	ErrBadDate       = errors.New("unrecognized date")
	ErrBadTime       = errors.New("unrecognized time")
	ErrBadDuration   = errors.New("unrecognized duration")
	ErrNoTiming      = errors.New("row has neither a start time nor a duration")
)

const (
	colDate        = "date"
	colStart       = "start time"
	colEnd         = "end time"
	colDuration    = "duration"
	colActivity    = "activity"
	colSupervisor  = "supervisor"
	colType        = "fieldwork type"
	colDescription = "description"
)

var (
	dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1/2/06", "Jan 2, 2006"}
	timeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04:05 PM"}

	// Rows with a duration but no clock times start at 09:00.
	syntheticStart = 9 * time.Hour
)

// Row is the outcome for one data line of the file.
type Row struct {
	Line   int
	Record *models.SessionRecord
	// Notes lists every value the importer had to derive rather than read.
	Notes  []string
	Err    error
	Result audit.ValidationResult
}

// Imported reports whether the row produced a record that passed validation.
func (r Row) Imported() bool {
	return r.Err == nil && r.Record != nil && r.Result.Accepted
}

type Plan struct {
	Rows []Row
	// NewSupervisors are names in the file that matched no stored supervisor.
	NewSupervisors []models.Supervisor
}

// Records returns the records of every imported row in file order.
func (p *Plan) Records() []models.SessionRecord {
	var out []models.SessionRecord
	for _, row := range p.Rows {
		if row.Imported() {
			out = append(out, *row.Record)
		}
	}
	return out
}

// Counts returns the number of imported and skipped rows.
func (p *Plan) Counts() (imported, skipped int) {
	for _, row := range p.Rows {
		if row.Imported() {
			imported++
		} else {
			skipped++
		}
	}
	return imported, skipped
}

type Importer struct {
	validator   *audit.Validator
	registry    *ruleset.Registry
	supervisors map[string]models.Supervisor
}

// New returns an Importer that resolves supervisor names against known.
func New(v *audit.Validator, reg *ruleset.Registry, known []models.Supervisor) *Importer {
	im := &Importer{
		validator:   v,
		registry:    reg,
		supervisors: make(map[string]models.Supervisor, len(known)),
	}
	for _, sup := range known {
		im.supervisors[nameKey(sup.Name)] = sup
	}
	return im
}

// Plan parses r and validates every row against history plus the rows
// accepted before it. Nothing is written; the caller persists
// Plan.NewSupervisors and Plan.Records.
func (im *Importer) Plan(r io.Reader, history []models.SessionRecord) (*Plan, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols[colDate]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, "Date")
	}
	_, hasStart := cols[colStart]
	_, hasDuration := cols[colDuration]
	if !hasStart && !hasDuration {
		return nil, fmt.Errorf("%w: need %q or %q", ErrMissingColumn, "Start Time", "Duration")
	}

	plan := &Plan{Rows: []Row{}}
	existing := append([]models.SessionRecord(nil), history...)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			row := Row{Err: err}
			if errors.As(err, &perr) {
				row.Line = perr.StartLine
			}
			plan.Rows = append(plan.Rows, row)
			continue
		}
		// Quoted fields may span lines, so the row starts where its first field does.
		line, _ := cr.FieldPos(0)
		if blank(fields) {
			continue
		}

		row := im.parseRow(line, cols, fields, plan)
		if row.Err == nil {
			res, err := im.validator.Validate(*row.Record, existing, im.registry)
			if err != nil {
				row.Err = err
			} else {
				row.Result = res
				if res.Accepted {
					existing = append(existing, *row.Record)
				}
			}
		}
		plan.Rows = append(plan.Rows, row)
	}
	return plan, nil
}

func (im *Importer) parseRow(line int, cols map[string]int, fields []string, plan *Plan) Row {
	row := Row{Line: line}
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	day, err := parseDate(get(colDate))
	if err != nil {
		row.Err = err
		return row
	}

	start, end, notes, err := resolveTimes(day, get(colStart), get(colEnd), get(colDuration))
	if err != nil {
		row.Err = err
		return row
	}
	row.Notes = notes

	typ, err := models.ParseSessionType(get(colType))
	if err != nil {
		row.Err = err
		return row
	}

	supRef := ""
	if name := get(colSupervisor); name != "" {
		if typ.IsSupervised() {
			sup, created, err := im.supervisor(name)
			if err != nil {
				row.Err = err
				return row
			}
			if created {
				plan.NewSupervisors = append(plan.NewSupervisors, sup)
				row.Notes = append(row.Notes, fmt.Sprintf("new supervisor %q", sup.Name))
			}
			supRef = sup.ID
		} else {
			row.Notes = append(row.Notes, fmt.Sprintf("supervisor %q dropped from independent row", name))
		}
	}

	rec, err := models.NewSessionRecord(models.SessionParams{
		Start:            start,
		End:              end,
		SupervisorRef:    supRef,
		SessionType:      typ,
		ActivityCategory: get(colActivity),
		Notes:            get(colDescription),
	})
	if err != nil {
		row.Err = err
		return row
	}
	row.Record = &rec
	return row
}

// supervisor looks a name up case-insensitively, registering a new
// supervisor the first time an unknown name is seen.
func (im *Importer) supervisor(name string) (models.Supervisor, bool, error) {
	if sup, ok := im.supervisors[nameKey(name)]; ok {
		return sup, false, nil
	}
	sup, err := models.NewSupervisor(name, "", time.Time{})
	if err != nil {
		return models.Supervisor{}, false, err
	}
	im.supervisors[nameKey(name)] = sup
	return sup, true, nil
}

// resolveTimes combines the row's date with whatever timing columns it has.
// Explicit clock times win; a duration fills in a missing end (or start).
func resolveTimes(day time.Time, rawStart, rawEnd, rawDuration string) (time.Time, time.Time, []string, error) {
	var notes []string
	var dur time.Duration
	if rawDuration != "" {
		d, err := ParseDuration(rawDuration)
		if err != nil {
			return time.Time{}, time.Time{}, nil, err
		}
		dur = d
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if rawStart != "" {
		offset, err := parseClock(rawStart)
		if err != nil {
			return time.Time{}, time.Time{}, nil, err
		}
		start, hasStart = day.Add(offset), true
	}
	if rawEnd != "" {
		offset, err := parseClock(rawEnd)
		if err != nil {
			return time.Time{}, time.Time{}, nil, err
		}
		end, hasEnd = day.Add(offset), true
	}

	switch {
	case hasStart && hasEnd:
	case hasStart && dur > 0:
		end = start.Add(dur)
		notes = append(notes, "end time derived from duration")
	case hasEnd && dur > 0:
		start = end.Add(-dur)
		notes = append(notes, "start time derived from duration")
	case !hasStart && !hasEnd && dur > 0:
		start = day.Add(syntheticStart)
		end = start.Add(dur)
		notes = append(notes, "no clock times; start set to 09:00")
	default:
		return time.Time{}, time.Time{}, nil, ErrNoTiming
	}
	return start, end, notes, nil
}

// ParseDuration reads "1h 30m", "45m", "2h" or a bare number of hours such
// as "1.5". The result is rounded to the minute.
func ParseDuration(s string) (time.Duration, error) {
	raw := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadDuration)
	}

	if h, err := strconv.ParseFloat(raw, 64); err == nil {
		if h < 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}
		return time.Duration(h * float64(time.Hour)).Round(time.Minute), nil
	}

	var total float64
	rest := raw
	for _, unit := range []struct {
		suffix string
		scale  time.Duration
	}{{"h", time.Hour}, {"m", time.Minute}} {
		before, after, found := strings.Cut(rest, unit.suffix)
		if !found {
			continue
		}
		v, err := strconv.ParseFloat(before, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}
		total += v * float64(unit.scale)
		rest = after
	}
	if rest != "" || total == 0 && !strings.ContainsAny(raw, "hm") {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}
	return time.Duration(total).Round(time.Minute), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// parseClock returns the offset from midnight.
func parseClock(s string) (time.Duration, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
