// Package report renders compliance snapshots, audit flags and session lists
// for the terminal, and builds the monthly verification form field map.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/fieldlog/internal/audit"
	"github.com/julianstephens/fieldlog/internal/compliance"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/models"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Snapshots renders one row per monthly snapshot followed by the cumulative
// summary and every period's flags.
func Snapshots(snaps []compliance.Snapshot) string {
	var b strings.Builder

	t := newTable("Month", "Total", "Supervised", "Indiv.", "Group", "Indep.", "Ratio", "Req.", "Status")
	months := 0
	for _, s := range snaps {
		if s.Period != compliance.PeriodMonth {
			continue
		}
		months++
		t.Row(
			s.Month.String(),
			hours(s.TotalHours),
			hours(s.SupervisedHours),
			hours(s.IndividualHours),
			hours(s.GroupHours),
			hours(s.IndependentHours),
			percent(s.ActualRatio),
			percent(s.RequiredRatio),
			status(s),
		)
	}
	if months > 0 {
		b.WriteString(t.Render())
		b.WriteString("\n")
	} else {
		b.WriteString(mutedStyle.Render("No sessions recorded."))
		b.WriteString("\n")
	}

	if cum, ok := compliance.Cumulative(snaps); ok {
		b.WriteString("\n")
		b.WriteString(Cumulative(cum))
	}

	for _, s := range snaps {
		if len(s.Flags) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(s.Label()))
		b.WriteString("\n")
		b.WriteString(Flags(s.Flags))
	}
	return b.String()
}

// Cumulative renders the all-time totals and progress block.
func Cumulative(s compliance.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render("Cumulative"),
		mutedStyle.Render(fmt.Sprintf("as of %s, ruleset %s, %s mode", s.AsOf.Format(constants.DateFormat), s.RuleSetID, s.Mode)))
	fmt.Fprintf(&b, "  Total hours:       %s (%d sessions)\n", hours(s.TotalHours), s.RecordCount)
	fmt.Fprintf(&b, "  Supervised hours:  %s (%s, required %s)\n", hours(s.SupervisedHours), percent(s.ActualRatio), percent(s.RequiredRatio))
	fmt.Fprintf(&b, "  Independent hours: %s\n", hours(s.IndependentHours))
	if s.SupervisionShortfallHours > 0 {
		fmt.Fprintf(&b, "  %s\n", warningStyle.Render(fmt.Sprintf("Supervision shortfall: %s", hours(s.SupervisionShortfallHours))))
	}
	if p := s.Progress; p != nil {
		fmt.Fprintf(&b, "  Progress:          %s of %s (%s remaining)\n",
			percent(p.Fraction), hours(p.TargetHours), hours(p.RemainingHours))
	}
	return b.String()
}

// Flags lists flags one per line, blocking first.
func Flags(flags []audit.Flag) string {
	var b strings.Builder
	for _, sev := range []audit.Severity{audit.Blocking, audit.Advisory} {
		for _, f := range flags {
			if f.Severity != sev {
				continue
			}
			style := warningStyle
			if f.Severity == audit.Blocking {
				style = blockingStyle
			}
			fmt.Fprintf(&b, "  %s %s\n", style.Render("["+string(f.Kind)+"]"), f.Message)
		}
	}
	return b.String()
}

// Sessions renders records with supervisor names resolved through names.
func Sessions(recs []models.SessionRecord, names map[string]string) string {
	if len(recs) == 0 {
		return mutedStyle.Render("No sessions recorded.") + "\n"
	}
	t := newTable("ID", "Date", "Time", "Hours", "Type", "Supervisor", "Activity", "Notes")
	var total float64
	for _, r := range recs {
		sup := names[r.SupervisorRef]
		if sup == "" {
			sup = r.SupervisorRef
		}
		id := shortID(r.ID)
		if r.IsDeleted() {
			id += " (deleted)"
		} else {
			total += r.DurationHours()
		}
		t.Row(
			id,
			r.Start.Format(constants.DateFormat),
			r.Start.Format(constants.TimeFormat)+"-"+r.End.Format(constants.TimeFormat),
			hours(r.DurationHours()),
			r.SessionType.Label(),
			sup,
			r.ActivityCategory,
			truncate(r.Notes, 30),
		)
	}
	return t.Render() + "\n" + mutedStyle.Render(fmt.Sprintf("%d sessions, %s", len(recs), hours(total))) + "\n"
}

func status(s compliance.Snapshot) string {
	var parts []string
	if s.TotalHours > 0 && !s.MeetsRatio {
		parts = append(parts, "ratio")
	}
	if s.BelowMonthlyMinimum {
		parts = append(parts, "below min")
	}
	if s.AboveMonthlyMaximum {
		parts = append(parts, "above max")
	}
	if len(parts) == 0 {
		return okStyle.Render("ok")
	}
	return warningStyle.Render(strings.Join(parts, ", "))
}

func hours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// shortID keeps the first uuid group, which is enough to address a session
// in a personal log.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
