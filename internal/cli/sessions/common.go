// Package sessions holds the commands that create, change and list fieldwork
// session records. Every write goes through the audit validator first.
package sessions

import (
	"fmt"
	"time"

	"github.com/julianstephens/fieldlog/internal/audit"
	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/constants"
	apperrors "github.com/julianstephens/fieldlog/internal/errors"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/report"
)

// ExitBlocked is the exit code when a record is refused for blocking flags.
const ExitBlocked = 2

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

func parseClock(day time.Time, s string) (time.Time, error) {
	t, err := time.Parse(constants.TimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// sessionTimes combines a date with start and end clock times. An end before
// the start is passed through so the validator reports it.
func sessionTimes(date, start, end string) (time.Time, time.Time, error) {
	day, err := parseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	s, err := parseClock(day, start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parseClock(day, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}

type saveOptions struct {
	dryRun bool
	yes    bool
	verb   string
}

// validateAndSave runs the validator, prints its flags and calls persist
// unless the candidate is blocked, the run is dry or the user declines.
func validateAndSave(ctx *cli.Context, candidate models.SessionRecord, opts saveOptions, persist func(models.SessionRecord) error) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	existing, err := ctx.Store.GetAllSessions()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	result, err := ctx.Validator(settings).Validate(candidate, existing, ctx.Registry)
	if err != nil {
		return err
	}

	if len(result.Flags) > 0 {
		ctx.Print(report.Flags(result.Flags))
	}
	if result.HasBlocking() {
		logger.Info("session refused", "id", candidate.ID, "blocking", len(result.Blocking()))
		return apperrors.WithExitCode(ExitBlocked,
			fmt.Errorf("session not %s: %d blocking issue(s)", opts.verb, len(result.Blocking())))
	}

	if opts.dryRun {
		ctx.Printf("Dry run: %s, %s, %.2fh would be %s.\n",
			candidate.Start.Format(constants.DateTimeFormat), candidate.SessionType.Label(), candidate.DurationHours(), opts.verb)
		return nil
	}

	if advisory := result.Advisory(); len(advisory) > 0 && !opts.yes {
		ok, err := ctx.Ask(fmt.Sprintf("Save despite %d warning(s)?", len(advisory)), flagSummary(advisory))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	if err := persist(candidate); err != nil {
		return err
	}
	logger.Info("session "+opts.verb, "id", candidate.ID, "hours", candidate.DurationHours(), "advisory", len(result.Advisory()))
	ctx.Printf("✓ Session %s %s (%.2fh)\n", shortID(candidate.ID), opts.verb, candidate.DurationHours())
	return nil
}

func flagSummary(flags []audit.Flag) string {
	var out string
	for i, f := range flags {
		if i > 0 {
			out += "\n"
		}
		out += f.Message
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
