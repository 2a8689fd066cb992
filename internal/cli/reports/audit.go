package reports

import (
	"fmt"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/constants"
	apperrors "github.com/julianstephens/fieldlog/internal/errors"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/report"
)

// ExitAuditFailed is returned when stored history contains blocking issues.
const ExitAuditFailed = 2

type AuditCmd struct {
	JSON bool `help:"Emit findings as JSON." name:"json"`
}

func (c *AuditCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	recs, err := ctx.Store.GetAllSessions()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	findings, err := ctx.Validator(settings).AuditHistory(recs, ctx.Registry)
	if err != nil {
		return err
	}

	blocking := 0
	for _, f := range findings {
		if f.Result.HasBlocking() {
			blocking++
		}
	}
	logger.Info("history audited", "sessions", len(recs), "flagged", len(findings), "blocking", blocking)

	if c.JSON {
		if err := writeJSON(ctx, findings); err != nil {
			return err
		}
	} else if len(findings) == 0 {
		ctx.Printf("✓ %d session(s) audited, no issues detected.\n", len(recs))
	} else {
		for _, f := range findings {
			ctx.Printf("%s  %s  %s %.2fh\n", f.Record.ID[:min(8, len(f.Record.ID))],
				f.Record.Start.Format(constants.DateTimeFormat), f.Record.SessionType.Label(), f.Record.DurationHours())
			ctx.Print(report.Flags(f.Result.Flags))
		}
		ctx.Printf("\n%d of %d session(s) flagged, %d with blocking issues.\n", len(findings), len(recs), blocking)
	}

	if blocking > 0 {
		return apperrors.WithExitCode(ExitAuditFailed, fmt.Errorf("audit found %d session(s) with blocking issues", blocking))
	}
	return nil
}
