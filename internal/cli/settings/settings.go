package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/storage"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	TraineeName       *string `help:"Name printed on verification forms."`
	TraineeID         *string `help:"Certification board account id." name:"trainee-id"`
	FieldworkState    *string `help:"State or province where fieldwork takes place."`
	FieldworkCountry  *string `help:"Country where fieldwork takes place."`
	FieldworkMode     *string `help:"Fieldwork mode: standard or concentrated."`
	PrimarySupervisor *string `help:"Supervisor id or name used by default for supervised sessions and forms."`
	PersonWideOverlap *bool   `help:"Also treat supervised sessions under different supervisors as conflicting when they overlap."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	if c.List {
		return c.list(ctx, settings)
	}

	updated := false
	if c.TraineeName != nil {
		settings.TraineeName = strings.TrimSpace(*c.TraineeName)
		updated = true
	}
	if c.TraineeID != nil {
		settings.TraineeID = strings.TrimSpace(*c.TraineeID)
		updated = true
	}
	if c.FieldworkState != nil {
		settings.FieldworkState = strings.TrimSpace(*c.FieldworkState)
		updated = true
	}
	if c.FieldworkCountry != nil {
		settings.FieldworkCountry = strings.TrimSpace(*c.FieldworkCountry)
		updated = true
	}
	if c.FieldworkMode != nil {
		mode, err := models.ParseFieldworkMode(*c.FieldworkMode)
		if err != nil {
			return err
		}
		settings.FieldworkMode = mode
		updated = true
	}
	if c.PrimarySupervisor != nil {
		if strings.TrimSpace(*c.PrimarySupervisor) == "" {
			settings.PrimarySupervisor = ""
		} else {
			sup, err := ctx.FindSupervisor(*c.PrimarySupervisor)
			if err != nil {
				return err
			}
			settings.PrimarySupervisor = sup.ID
		}
		updated = true
	}
	if c.PersonWideOverlap != nil {
		settings.PersonWideOverlap = *c.PersonWideOverlap
		updated = true
	}

	if !updated {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Println("Settings updated successfully.")
	return nil
}

func (c *SettingsCmd) list(ctx *cli.Context, settings models.Settings) error {
	primary := "(none)"
	if settings.PrimarySupervisor != "" {
		sup, err := ctx.Store.GetSupervisor(settings.PrimarySupervisor)
		switch {
		case err == nil:
			primary = fmt.Sprintf("%s (%s)", sup.Name, sup.ID)
		case errors.Is(err, storage.ErrNotFound):
			primary = settings.PrimarySupervisor + " (missing)"
		default:
			return fmt.Errorf("failed to load primary supervisor: %w", err)
		}
	}

	ctx.Println("Trainee:")
	ctx.Printf("  Name:                %s\n", orNone(settings.TraineeName))
	ctx.Printf("  Certification ID:    %s\n", orNone(settings.TraineeID))
	ctx.Printf("  State:               %s\n", orNone(settings.FieldworkState))
	ctx.Printf("  Country:             %s\n", orNone(settings.FieldworkCountry))
	ctx.Println("\nFieldwork:")
	ctx.Printf("  Mode:                %s\n", settings.FieldworkMode)
	ctx.Printf("  Primary supervisor:  %s\n", primary)
	ctx.Printf("  Person-wide overlap: %v\n", settings.PersonWideOverlap)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
