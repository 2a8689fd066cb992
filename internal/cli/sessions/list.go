package sessions

import (
	"fmt"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/interval"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/report"
)

type ListCmd struct {
	Month   string `help:"Only show sessions starting in this month (YYYY-MM)." short:"m"`
	Deleted bool   `help:"Include soft-deleted sessions."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	var recs []models.SessionRecord
	var err error
	if c.Deleted {
		recs, err = ctx.Store.GetAllSessionsIncludingDeleted()
	} else {
		recs, err = ctx.Store.GetAllSessions()
	}
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	if c.Month != "" {
		month, err := interval.ParseMonth(c.Month)
		if err != nil {
			return err
		}
		filtered := recs[:0]
		for _, r := range recs {
			if r.Month() == month {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}

	names, err := ctx.SupervisorNames()
	if err != nil {
		return err
	}
	ctx.Print(report.Sessions(recs, names))
	return nil
}
