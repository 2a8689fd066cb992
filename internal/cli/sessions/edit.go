package sessions

import (
	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/models"
)

type EditCmd struct {
	ID         string  `arg:"" help:"Session id or unique id prefix."`
	Date       string  `help:"New date (YYYY-MM-DD)."`
	Start      string  `help:"New start time (HH:MM)."`
	End        string  `help:"New end time (HH:MM)."`
	Type       string  `help:"New session type." short:"t"`
	Supervisor string  `help:"New supervisor id or name." short:"s"`
	Activity   string  `help:"New activity category." short:"a"`
	Energy     *int    `help:"New energy level from 1 to 5."`
	Notes      *string `help:"Replace the notes." short:"n"`
	DryRun     bool    `help:"Validate without saving."`
	Yes        bool    `help:"Save without confirming warnings." short:"y"`
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	rec, err := ctx.FindSession(c.ID, false)
	if err != nil {
		return err
	}

	date := rec.Start.Format(constants.DateFormat)
	if c.Date != "" {
		date = c.Date
	}
	start := rec.Start.Format(constants.TimeFormat)
	if c.Start != "" {
		start = c.Start
	}
	end := rec.End.Format(constants.TimeFormat)
	if c.End != "" {
		end = c.End
	}
	rec.Start, rec.End, err = sessionTimes(date, start, end)
	if err != nil {
		return err
	}

	if c.Type != "" {
		typ, err := models.ParseSessionType(c.Type)
		if err != nil {
			return err
		}
		rec.SessionType = typ
	}
	switch {
	case c.Supervisor != "":
		rec.SupervisorRef, err = resolveSupervisorRef(ctx, rec.SessionType, c.Supervisor)
		if err != nil {
			return err
		}
	case !rec.SessionType.IsSupervised():
		rec.SupervisorRef = ""
	}

	if c.Activity != "" {
		rec.ActivityCategory = c.Activity
	}
	if c.Energy != nil {
		rec.EnergyLevel = c.Energy
	}
	if c.Notes != nil {
		rec.Notes = *c.Notes
	}
	if err := rec.CheckShape(); err != nil {
		return err
	}

	return validateAndSave(ctx, rec, saveOptions{dryRun: c.DryRun, yes: c.Yes, verb: "updated"}, ctx.Store.UpdateSession)
}
