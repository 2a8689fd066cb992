package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/fieldlog/internal/interval"
	"github.com/julianstephens/fieldlog/internal/models"
)

// EnergyMonth holds the mean energy rating of each day of one month. A zero
// entry means no rated session started that day.
type EnergyMonth struct {
	Month interval.MonthKey `json:"month"`
	Days  [31]float64       `json:"days"`
}

// EnergyPattern groups the energy ratings of active sessions by start day,
// averaging days with several rated sessions. Months come out in ascending
// order. It also returns the number of rated sessions and their mean rating.
func EnergyPattern(recs []models.SessionRecord) ([]EnergyMonth, int, float64) {
	type dayKey struct {
		month interval.MonthKey
		day   int
	}
	sums := map[dayKey]int{}
	counts := map[dayKey]int{}
	var rated, total int
	for _, r := range recs {
		if r.EnergyLevel == nil || r.IsDeleted() {
			continue
		}
		k := dayKey{month: r.Month(), day: r.Start.Day()}
		sums[k] += *r.EnergyLevel
		counts[k]++
		rated++
		total += *r.EnergyLevel
	}
	if rated == 0 {
		return nil, 0, 0
	}

	byMonth := map[interval.MonthKey]*EnergyMonth{}
	for k, n := range counts {
		m, ok := byMonth[k.month]
		if !ok {
			m = &EnergyMonth{Month: k.month}
			byMonth[k.month] = m
		}
		m.Days[k.day-1] = float64(sums[k]) / float64(n)
	}

	months := make([]EnergyMonth, 0, len(byMonth))
	for _, m := range byMonth {
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month.Before(months[j].Month) })
	return months, rated, float64(total) / float64(rated)
}

var energyPalette = [5]lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("255")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("225")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("218")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("161")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("88")),
}

// Energy renders the pattern as a month by day grid, one cell per day
// holding its rounded mean rating.
func Energy(recs []models.SessionRecord) string {
	months, rated, mean := EnergyPattern(recs)
	if rated == 0 {
		return mutedStyle.Render("No energy ratings recorded. Log sessions with --energy to see your pattern.") + "\n"
	}

	headers := []string{"Month"}
	for d := 1; d <= 31; d++ {
		headers = append(headers, strconv.Itoa(d))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		BorderColumn(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0)
			case col == 0:
				return cellStyle
			}
			if lvl := level(months[row].Days[col-1]); lvl > 0 {
				return energyPalette[lvl-1].Width(2).Align(lipgloss.Center)
			}
			return mutedStyle.Width(2).Align(lipgloss.Center)
		})

	for _, m := range months {
		cells := []string{m.Month.String()}
		last := daysIn(m.Month)
		for d := 1; d <= 31; d++ {
			switch lvl := level(m.Days[d-1]); {
			case d > last:
				cells = append(cells, "")
			case lvl == 0:
				cells = append(cells, "·")
			default:
				cells = append(cells, strconv.Itoa(lvl))
			}
		}
		t.Row(cells...)
	}

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Average energy %.2f across %d rated session(s)", mean, rated)))
	b.WriteString("\n")
	return b.String()
}

func level(avg float64) int {
	return int(math.Round(avg))
}

func daysIn(m interval.MonthKey) int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
