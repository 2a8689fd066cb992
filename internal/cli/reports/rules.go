package reports

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/ruleset"
)

type RulesListCmd struct{}

func (c *RulesListCmd) Run(ctx *cli.Context) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "From", "Until", "Ratio", "Concentrated", "Monthly", "Max entry", "Group share")
	for _, v := range ctx.Registry.All() {
		t.Row(
			v.ID,
			v.EffectiveFrom.Format(constants.DateFormat),
			until(v),
			fmt.Sprintf("%.0f%%", v.SupervisionRatioMin*100),
			fmt.Sprintf("%.0f%%", v.ConcentratedRatioMin*100),
			fmt.Sprintf("%g-%gh", v.MonthlyHoursMin, v.MonthlyHoursMax),
			fmt.Sprintf("%gh", v.MaxSingleEntryHours),
			fmt.Sprintf("%.0f%%", v.GroupSupervisionMaxShare*100),
		)
	}
	ctx.Println(t.Render())
	ctx.Printf("Progress targets: %gh standard, %gh concentrated\n", ctx.Targets.Standard, ctx.Targets.Concentrated)
	return nil
}

type RulesResolveCmd struct {
	Date string `arg:"" help:"Date to resolve (YYYY-MM-DD)."`
}

func (c *RulesResolveCmd) Run(ctx *cli.Context) error {
	d, err := time.Parse(constants.DateFormat, c.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", c.Date)
	}
	v, err := ctx.Registry.Resolve(d)
	if err != nil {
		return err
	}
	ctx.Printf("%s is governed by ruleset %s (%s to %s)\n", c.Date, v.ID, v.EffectiveFrom.Format(constants.DateFormat), until(v))
	return nil
}

func until(v ruleset.Version) string {
	if v.EffectiveUntil == nil {
		return "open"
	}
	return v.EffectiveUntil.Format(constants.DateFormat)
}
