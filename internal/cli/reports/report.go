// Package reports holds the read-only commands: compliance reports, the
// retroactive audit, verification forms and ruleset inspection.
package reports

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/compliance"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/interval"
	"github.com/julianstephens/fieldlog/internal/report"
)

type ReportCmd struct {
	AsOf  string `help:"Count sessions up to and including this date (YYYY-MM-DD). Defaults to today." name:"as-of"`
	Month string `help:"Only show this month (YYYY-MM) plus the cumulative summary." short:"m"`
	JSON  bool   `help:"Emit snapshots as JSON." name:"json"`
}

func (c *ReportCmd) Run(ctx *cli.Context) error {
	asOf, err := asOfDate(ctx, c.AsOf)
	if err != nil {
		return err
	}
	snaps, err := aggregate(ctx, asOf)
	if err != nil {
		return err
	}

	if c.Month != "" {
		month, err := interval.ParseMonth(c.Month)
		if err != nil {
			return err
		}
		var filtered []compliance.Snapshot
		if s, ok := compliance.FindMonth(snaps, month); ok {
			filtered = append(filtered, s)
		}
		if cum, ok := compliance.Cumulative(snaps); ok {
			filtered = append(filtered, cum)
		}
		snaps = filtered
	}

	if c.JSON {
		return writeJSON(ctx, snaps)
	}
	ctx.Print(report.Snapshots(snaps))
	return nil
}

func asOfDate(ctx *cli.Context, s string) (time.Time, error) {
	if s == "" {
		return ctx.Today(), nil
	}
	d, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

func aggregate(ctx *cli.Context, asOf time.Time) ([]compliance.Snapshot, error) {
	settings, err := ctx.Settings()
	if err != nil {
		return nil, err
	}
	recs, err := ctx.Store.GetAllSessions()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return ctx.Engine(settings).Aggregate(recs, ctx.Registry, asOf)
}

func writeJSON(ctx *cli.Context, v any) error {
	enc := json.NewEncoder(ctx.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
