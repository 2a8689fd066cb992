package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/cli/backups"
	"github.com/julianstephens/fieldlog/internal/cli/reports"
	"github.com/julianstephens/fieldlog/internal/cli/sessions"
	"github.com/julianstephens/fieldlog/internal/cli/settings"
	"github.com/julianstephens/fieldlog/internal/cli/supervisors"
	"github.com/julianstephens/fieldlog/internal/cli/system"
	"github.com/julianstephens/fieldlog/internal/constants"
	apperrors "github.com/julianstephens/fieldlog/internal/errors"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/ruleset"
	"github.com/julianstephens/fieldlog/internal/storage/postgres"
)

type CLI struct {
	Version   kong.VersionFlag
	Config    string `help:"Database file (.db or .json), PostgreSQL connection string without a password, or 'keyring' to use the stored connection string." type:"string" default:"${default_config}" env:"FIELDLOG_CONFIG"`
	RulesFile string `help:"YAML rule-set document replacing the built-in certification rules." type:"existingfile" env:"FIELDLOG_RULES"`
	Debug     bool   `help:"Log at debug level and mirror the log to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize fieldlog storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`

	Log     sessions.LogCmd     `cmd:"" help:"Log a fieldwork session."`
	Edit    sessions.EditCmd    `cmd:"" help:"Edit a logged session."`
	Delete  sessions.DeleteCmd  `cmd:"" help:"Delete a session (restorable)."`
	Restore sessions.RestoreCmd `cmd:"" help:"Restore a deleted session."`
	List    sessions.ListCmd    `cmd:"" help:"List logged sessions."`
	Import  sessions.ImportCmd  `cmd:"" help:"Import sessions from a CSV export."`

	Report reports.ReportCmd `cmd:"" help:"Show monthly and cumulative compliance." default:"1"`
	Audit  reports.AuditCmd  `cmd:"" help:"Re-validate the whole session history."`
	Form   reports.FormCmd   `cmd:"" help:"Fill the monthly verification form fields."`
	Energy reports.EnergyCmd `cmd:"" help:"Show the daily energy pattern of rated sessions."`
	Rules  struct {
		List    reports.RulesListCmd    `cmd:"" help:"List rule-set versions." default:"1"`
		Resolve reports.RulesResolveCmd `cmd:"" help:"Show the rule set that governs a date."`
	} `cmd:"" help:"Inspect certification rule sets."`

	Supervisor struct {
		Add  supervisors.SupervisorAddCmd  `cmd:"" help:"Add a supervisor."`
		List supervisors.SupervisorListCmd `cmd:"" help:"List supervisors." default:"1"`
	} `cmd:"" help:"Manage supervisors."`
	Settings settings.SettingsCmd `cmd:"" help:"View or change trainee settings."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability." default:"1"`
	} `cmd:"" help:"Manage database credentials in the OS keyring."`
}

func main() {
	var app CLI
	parser := kong.Must(&app, options()...)
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := logger.Init(logger.Config{Debug: app.Debug, ConfigDir: configDir(app.Config)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logger.Close()

	if err := run(ctx, &app, &cli.Context{}); err != nil {
		apperrors.Fatal(err)
	}
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name(constants.AppName),
		kong.Description("Supervised fieldwork log and certification compliance auditor"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	}
}

// run wires rules and storage into appCtx and executes the selected command.
// Fields already set on appCtx (output, clock, prompt) are kept.
func run(ctx *kong.Context, app *CLI, appCtx *cli.Context) error {
	command := strings.Fields(ctx.Command())[0]
	logger.Debug("starting", "command", ctx.Command(), "version", constants.Version)

	reg, targets, err := loadRules(app.RulesFile)
	if err != nil {
		return err
	}
	appCtx.Registry = reg
	appCtx.Targets = targets

	// Keyring commands manage the credentials a store would need.
	if command != "keyring" {
		store, err := cli.OpenStore(app.Config)
		if err != nil {
			return err
		}
		defer store.Close()
		appCtx.Store = store

		// Init and doctor handle their own loading.
		if command != "init" && command != "doctor" {
			if err := store.Load(); err != nil {
				return err
			}
		}
	}

	return ctx.Run(appCtx)
}

func loadRules(path string) (*ruleset.Registry, ruleset.ProgressTargets, error) {
	if path == "" {
		return ruleset.LoadDefault()
	}
	reg, targets, err := ruleset.LoadFile(path)
	if err != nil {
		return nil, ruleset.ProgressTargets{}, fmt.Errorf("failed to load rules from %s: %w", path, err)
	}
	logger.Info("loaded rule sets", "path", path, "versions", len(reg.All()))
	return reg, targets, nil
}

// configDir places logs beside a file store, or under ~/.config/fieldlog
// for PostgreSQL.
func configDir(config string) string {
	if config != cli.KeyringConfig && !postgres.IsConnString(config) {
		if path, err := cli.ExpandPath(config); err == nil {
			return filepath.Dir(path)
		}
	}
	if path, err := cli.ExpandPath(constants.DefaultConfigPath); err == nil {
		return filepath.Dir(path)
	}
	return filepath.Join(os.TempDir(), constants.AppName)
}
