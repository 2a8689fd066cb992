package supervisors

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/models"
)

type SupervisorAddCmd struct {
	Name         string `arg:"" help:"Supervisor's full name."`
	CredentialID string `help:"Certification number printed on verification forms." name:"credential"`
	Since        string `help:"Start of the supervisory relationship (YYYY-MM-DD)."`
	Primary      bool   `help:"Make this the primary supervisor."`
}

func (c *SupervisorAddCmd) Run(ctx *cli.Context) error {
	var since time.Time
	if c.Since != "" {
		d, err := time.Parse(constants.DateFormat, c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since %q, expected YYYY-MM-DD", c.Since)
		}
		since = d
	}

	sup, err := models.NewSupervisor(c.Name, c.CredentialID, since)
	if err != nil {
		return err
	}
	if err := ctx.Store.AddSupervisor(sup); err != nil {
		return fmt.Errorf("failed to add supervisor: %w", err)
	}
	logger.Info("supervisor added", "id", sup.ID)

	if c.Primary {
		settings, err := ctx.Settings()
		if err != nil {
			return err
		}
		settings.PrimarySupervisor = sup.ID
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}

	ctx.Printf("✓ Added supervisor %s (%s)\n", sup.Name, sup.ID)
	return nil
}

type SupervisorListCmd struct{}

func (c *SupervisorListCmd) Run(ctx *cli.Context) error {
	all, err := ctx.Store.GetAllSupervisors()
	if err != nil {
		return fmt.Errorf("failed to load supervisors: %w", err)
	}
	if len(all) == 0 {
		ctx.Println("No supervisors. Add one with 'fieldlog supervisor add'.")
		return nil
	}
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "Name", "Credential", "Since", "")
	for _, sup := range all {
		since := ""
		if !sup.RelationshipStart.IsZero() {
			since = sup.RelationshipStart.Format(constants.DateFormat)
		}
		primary := ""
		if sup.ID == settings.PrimarySupervisor {
			primary = "primary"
		}
		t.Row(sup.ID, sup.Name, sup.CredentialID, since, primary)
	}
	ctx.Println(t.Render())
	return nil
}
