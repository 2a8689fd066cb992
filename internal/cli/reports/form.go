package reports

import (
	"errors"
	"fmt"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/compliance"
	"github.com/julianstephens/fieldlog/internal/interval"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/report"
	"github.com/julianstephens/fieldlog/internal/storage"
)

// FormCmd prints the field values of the monthly verification form. The
// hours cover every session of the month; the supervisor is the one
// responsible for signing.
type FormCmd struct {
	Month      string `help:"Month to certify (YYYY-MM)." required:"" short:"m"`
	Supervisor string `help:"Responsible supervisor id or name. Defaults to the primary supervisor." short:"s"`
	JSON       bool   `help:"Emit the field map as JSON." name:"json"`
}

func (c *FormCmd) Run(ctx *cli.Context) error {
	month, err := interval.ParseMonth(c.Month)
	if err != nil {
		return err
	}
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	sup, err := c.responsible(ctx, settings)
	if err != nil {
		return err
	}

	// Everything logged in the month counts, whatever today's date.
	asOf := month.FirstDay(nil).AddDate(0, 1, -1)
	snaps, err := aggregate(ctx, asOf)
	if err != nil {
		return err
	}
	snap, ok := compliance.FindMonth(snaps, month)
	if !ok {
		return fmt.Errorf("no sessions recorded in %s", month.Label())
	}

	fields, err := report.FormFields(settings, sup, snap, ctx.Today())
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(ctx, fields)
	}
	ctx.Print(report.FormText(fields))
	if len(snap.Flags) > 0 {
		ctx.Println()
		ctx.Print(report.Flags(snap.Flags))
	}
	return nil
}

func (c *FormCmd) responsible(ctx *cli.Context, settings models.Settings) (*models.Supervisor, error) {
	ref := c.Supervisor
	if ref == "" {
		ref = settings.PrimarySupervisor
	}
	if ref == "" {
		return nil, nil
	}
	sup, err := ctx.FindSupervisor(ref)
	if errors.Is(err, storage.ErrNotFound) && c.Supervisor == "" {
		return nil, fmt.Errorf("primary supervisor %q no longer exists: %w", ref, err)
	}
	if err != nil {
		return nil, err
	}
	return &sup, nil
}
