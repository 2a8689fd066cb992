package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/fieldlog/internal/backup"
	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/storage"
	"github.com/julianstephens/fieldlog/internal/storage/sqlite"
)

var ErrHealthCheckFailed = errors.New("one or more health checks failed")

// errWarning marks a check that found something worth reporting but not
// failing on.
type errWarning struct{ msg string }

func (w errWarning) Error() string { return w.msg }

func warnf(format string, args ...any) error {
	return errWarning{msg: fmt.Sprintf(format, args...)}
}

type check struct {
	name      string
	needsData bool
	run       func(*cli.Context) error
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	checks := []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", needsData: true, run: checkSchemaVersion},
		{name: "Rule sets", run: checkRuleSets},
		{name: "Supervisor references", needsData: true, run: checkSupervisorRefs},
		{name: "Session history", needsData: true, run: checkHistory},
		{name: "Backups present", run: checkBackupsPresent},
		{name: "Clock", run: checkClock},
	}

	hasError := false
	dbReachable := false
	for i, c := range checks {
		if c.needsData && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		var warn errWarning
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
			if i == 0 {
				dbReachable = true
			}
		case errors.As(err, &warn):
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", warn.msg)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	if path := logger.Path(); path != "" {
		ctx.Printf("\nLog file: %s\n", path)
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return ErrHealthCheckFailed
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return nil
	}
	current, latest, err := migrator.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'fieldlog migrate')", current, latest)
	}
	return nil
}

func checkRuleSets(ctx *cli.Context) error {
	if ctx.Registry == nil || len(ctx.Registry.All()) == 0 {
		return fmt.Errorf("no rule sets loaded")
	}
	today := ctx.Today()
	if _, err := ctx.Registry.Resolve(today); err != nil {
		return fmt.Errorf("today is not covered: %w", err)
	}
	return nil
}

func checkSupervisorRefs(ctx *cli.Context) error {
	names, err := ctx.SupervisorNames()
	if err != nil {
		return err
	}
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if settings.PrimarySupervisor != "" {
		if _, ok := names[settings.PrimarySupervisor]; !ok {
			return fmt.Errorf("primary supervisor %s does not exist", settings.PrimarySupervisor)
		}
	}

	recs, err := ctx.Store.GetAllSessions()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	dangling := 0
	for _, rec := range recs {
		if rec.SupervisorRef == "" {
			continue
		}
		if _, ok := names[rec.SupervisorRef]; !ok {
			dangling++
		}
	}
	if dangling > 0 {
		return fmt.Errorf("found %d session(s) referencing unknown supervisors", dangling)
	}
	return nil
}

// checkHistory fails on blocking findings and warns on advisory ones.
func checkHistory(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	recs, err := ctx.Store.GetAllSessions()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	results, err := ctx.Validator(settings).AuditHistory(recs, ctx.Registry)
	if err != nil {
		return err
	}

	blocking, advisory := 0, 0
	for _, r := range results {
		if r.Result.HasBlocking() {
			blocking++
		} else if len(r.Result.Flags) > 0 {
			advisory++
		}
	}
	if blocking > 0 {
		return fmt.Errorf("%d session(s) with blocking issues (run 'fieldlog audit')", blocking)
	}
	if advisory > 0 {
		return warnf("%d session(s) with advisory flags (run 'fieldlog audit')", advisory)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return warnf("no backups found, consider creating one with 'fieldlog backup create'")
	}
	if ctx.Today().Sub(backups[0].Timestamp) > 30*24*time.Hour {
		return warnf("newest backup is from %s", backups[0].Timestamp.Format(constants.DateFormat))
	}
	return nil
}

func checkClock(ctx *cli.Context) error {
	now := ctx.Today()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
