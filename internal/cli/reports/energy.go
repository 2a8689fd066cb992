package reports

import (
	"fmt"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/interval"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/report"
)

// EnergyCmd shows self-reported energy by day. Ratings never feed the
// compliance figures.
type EnergyCmd struct {
	Month string `help:"Only show this month (YYYY-MM)." short:"m"`
	JSON  bool   `help:"Emit the daily averages as JSON." name:"json"`
}

func (c *EnergyCmd) Run(ctx *cli.Context) error {
	recs, err := ctx.Store.GetAllSessions()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	if c.Month != "" {
		month, err := interval.ParseMonth(c.Month)
		if err != nil {
			return err
		}
		var filtered []models.SessionRecord
		for _, r := range recs {
			if r.Month() == month {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}

	if c.JSON {
		months, _, _ := report.EnergyPattern(recs)
		if months == nil {
			months = []report.EnergyMonth{}
		}
		return writeJSON(ctx, months)
	}
	ctx.Print(report.Energy(recs))
	return nil
}
