package sessions

import (
	"fmt"
	"strings"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/models"
)

type LogCmd struct {
	Date       string `help:"Session date (YYYY-MM-DD)." required:""`
	Start      string `help:"Start time (HH:MM)." required:""`
	End        string `help:"End time (HH:MM)." required:""`
	Type       string `help:"independent, individual or group." default:"independent" short:"t"`
	Supervisor string `help:"Supervisor id or name. Defaults to the primary supervisor for supervised sessions." short:"s"`
	Activity   string `help:"Activity category, e.g. Restricted or Unrestricted." required:"" short:"a"`
	Energy     *int   `help:"Energy level from 1 to 5."`
	Notes      string `help:"Free-form notes." short:"n"`
	DryRun     bool   `help:"Validate without saving."`
	Yes        bool   `help:"Save without confirming warnings." short:"y"`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	start, end, err := sessionTimes(c.Date, c.Start, c.End)
	if err != nil {
		return err
	}
	typ, err := models.ParseSessionType(c.Type)
	if err != nil {
		return err
	}

	supRef, err := resolveSupervisorRef(ctx, typ, c.Supervisor)
	if err != nil {
		return err
	}

	rec, err := models.NewSessionRecord(models.SessionParams{
		Start:            start,
		End:              end,
		SupervisorRef:    supRef,
		SessionType:      typ,
		ActivityCategory: c.Activity,
		EnergyLevel:      c.Energy,
		Notes:            c.Notes,
	})
	if err != nil {
		return err
	}

	return validateAndSave(ctx, rec, saveOptions{dryRun: c.DryRun, yes: c.Yes, verb: "logged"}, ctx.Store.AddSession)
}

// resolveSupervisorRef maps a supervisor flag to an id. Supervised sessions
// without one fall back to the primary supervisor; when that is unset too the
// empty ref is kept so the validator reports it.
func resolveSupervisorRef(ctx *cli.Context, typ models.SessionType, flag string) (string, error) {
	flag = strings.TrimSpace(flag)
	if !typ.IsSupervised() {
		if flag != "" {
			return "", models.ErrSupervisorOnIndependent
		}
		return "", nil
	}
	if flag == "" {
		settings, err := ctx.Settings()
		if err != nil {
			return "", err
		}
		return settings.PrimarySupervisor, nil
	}
	sup, err := ctx.FindSupervisor(flag)
	if err != nil {
		return "", fmt.Errorf("unknown supervisor: %w", err)
	}
	return sup.ID, nil
}
