package sessions

import (
	"fmt"

	"github.com/julianstephens/fieldlog/internal/cli"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/models"
)

type DeleteCmd struct {
	ID string `arg:"" help:"Session id or unique id prefix."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	rec, err := ctx.FindSession(c.ID, false)
	if err != nil {
		return err
	}
	if err := ctx.Store.DeleteSession(rec.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	logger.Info("session deleted", "id", rec.ID)
	ctx.Printf("✓ Session %s deleted. Use 'fieldlog restore %s' to undo.\n", shortID(rec.ID), shortID(rec.ID))
	return nil
}

// RestoreCmd brings back a soft-deleted session. The record is validated
// again because the history may have changed since it was deleted.
type RestoreCmd struct {
	ID  string `arg:"" help:"Session id or unique id prefix."`
	Yes bool   `help:"Restore without confirming warnings." short:"y"`
}

func (c *RestoreCmd) Run(ctx *cli.Context) error {
	rec, err := ctx.FindSession(c.ID, true)
	if err != nil {
		return err
	}
	if !rec.IsDeleted() {
		return fmt.Errorf("session %s is not deleted", shortID(rec.ID))
	}
	rec.DeletedAt = nil

	return validateAndSave(ctx, rec, saveOptions{yes: c.Yes, verb: "restored"}, func(r models.SessionRecord) error {
		return ctx.Store.RestoreSession(r.ID)
	})
}
