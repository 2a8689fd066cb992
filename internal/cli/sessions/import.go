package sessions

import (
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/importer"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/report"
)

type ImportCmd struct {
	File   string `arg:"" help:"CSV export to import." type:"existingfile"`
	DryRun bool   `help:"Report what would be imported without saving."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	supervisors, err := ctx.Store.GetAllSupervisors()
	if err != nil {
		return fmt.Errorf("failed to load supervisors: %w", err)
	}
	history, err := ctx.Store.GetAllSessions()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	im := importer.New(ctx.Validator(settings), ctx.Registry, supervisors)
	plan, err := im.Plan(f, history)
	if err != nil {
		return err
	}

	log := logger.With("file", c.File)
	for _, row := range plan.Rows {
		switch {
		case row.Err != nil:
			log.Warn("import row skipped", "line", row.Line, "error", row.Err)
			ctx.Printf("line %d: skipped: %v\n", row.Line, row.Err)
		case !row.Imported():
			log.Warn("import row blocked", "line", row.Line, "flags", len(row.Result.Blocking()))
			ctx.Printf("line %d: skipped:\n", row.Line)
			ctx.Print(report.Flags(row.Result.Blocking()))
		default:
			line := fmt.Sprintf("line %d: ok %s %.2fh", row.Line, row.Record.Start.Format(constants.DateTimeFormat), row.Record.DurationHours())
			if len(row.Notes) > 0 {
				line += " (" + strings.Join(row.Notes, "; ") + ")"
			}
			ctx.Println(line)
			if adv := row.Result.Advisory(); len(adv) > 0 {
				ctx.Print(report.Flags(adv))
			}
		}
	}

	imported, skipped := plan.Counts()
	if c.DryRun {
		ctx.Printf("\nDry run: %d row(s) would be imported, %d skipped.\n", imported, skipped)
		return nil
	}
	if imported == 0 {
		ctx.Printf("\nNothing imported, %d row(s) skipped.\n", skipped)
		return nil
	}

	ctx.PerformAutomaticBackup()

	// Only supervisors referenced by an imported row are stored.
	used := map[string]bool{}
	for _, rec := range plan.Records() {
		used[rec.SupervisorRef] = true
	}
	for _, sup := range plan.NewSupervisors {
		if !used[sup.ID] {
			continue
		}
		if err := ctx.Store.AddSupervisor(sup); err != nil {
			return fmt.Errorf("failed to add supervisor %s: %w", sup.Name, err)
		}
	}
	for _, rec := range plan.Records() {
		if err := ctx.Store.AddSession(rec); err != nil {
			return fmt.Errorf("failed to save session from import: %w", err)
		}
	}

	log.Info("import finished", "imported", imported, "skipped", skipped)
	ctx.Printf("\n✓ Imported %d session(s), skipped %d.\n", imported, skipped)
	return nil
}
