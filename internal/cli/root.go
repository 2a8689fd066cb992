package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/julianstephens/fieldlog/internal/audit"
	"github.com/julianstephens/fieldlog/internal/backup"
	"github.com/julianstephens/fieldlog/internal/compliance"
	"github.com/julianstephens/fieldlog/internal/logger"
	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/ruleset"
	"github.com/julianstephens/fieldlog/internal/storage"
	"github.com/julianstephens/fieldlog/internal/storage/sqlite"
)

var (
	ErrAmbiguousID    = errors.New("id prefix matches more than one record")
	ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal; pass --yes")
)

// ConfirmFunc asks a yes/no question.
type ConfirmFunc func(title, description string) (bool, error)

type Context struct {
	Store    storage.Provider
	Registry *ruleset.Registry
	Targets  ruleset.ProgressTargets

	// Out receives command output; os.Stdout when nil.
	Out io.Writer
	// Now is the clock used for as-of dates and signatures; time.Now when nil.
	Now func() time.Time
	// Confirm prompts the user; a huh confirm when nil.
	Confirm ConfirmFunc
}

func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Writer(), format, args...)
}

func (c *Context) Print(s string) {
	fmt.Fprint(c.Writer(), s)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Writer(), args...)
}

// Today returns the current wall-clock time as naive UTC.
func (c *Context) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// Ask runs the configured confirmation prompt.
func (c *Context) Ask(title, description string) (bool, error) {
	if c.Confirm != nil {
		return c.Confirm(title, description)
	}
	return TerminalConfirm(title, description)
}

// TerminalConfirm shows a huh confirm when stdin is a terminal.
func TerminalConfirm(title, description string) (bool, error) {
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false, ErrNotInteractive
	}
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Save").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Settings loads the stored settings, falling back to defaults for stores
// that have none yet.
func (c *Context) Settings() (models.Settings, error) {
	settings, err := c.Store.GetSettings()
	if errors.Is(err, storage.ErrNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// Validator builds an audit validator configured from settings.
func (c *Context) Validator(settings models.Settings) *audit.Validator {
	var opts []audit.Option
	if settings.PersonWideOverlap {
		opts = append(opts, audit.WithPersonWideOverlap())
	}
	return audit.New(opts...)
}

// Engine builds a compliance engine for the configured fieldwork mode.
func (c *Context) Engine(settings models.Settings) *compliance.Engine {
	mode := settings.FieldworkMode
	if mode == "" {
		mode = models.ModeStandard
	}
	return compliance.New(
		compliance.WithMode(mode),
		compliance.WithProgressTargets(c.Targets),
	)
}

// PerformAutomaticBackup snapshots SQLite stores before bulk writes. Failures
// are logged and never interrupt the command.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// FindSession resolves a full id or a unique id prefix. Deleted sessions are
// included only when includeDeleted is set.
func (c *Context) FindSession(idOrPrefix string, includeDeleted bool) (models.SessionRecord, error) {
	var recs []models.SessionRecord
	var err error
	if includeDeleted {
		recs, err = c.Store.GetAllSessionsIncludingDeleted()
	} else {
		recs, err = c.Store.GetAllSessions()
	}
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("failed to load sessions: %w", err)
	}

	var matches []models.SessionRecord
	for _, r := range recs {
		if r.ID == idOrPrefix {
			return r, nil
		}
		if strings.HasPrefix(r.ID, idOrPrefix) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return models.SessionRecord{}, fmt.Errorf("session %s: %w", idOrPrefix, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.SessionRecord{}, fmt.Errorf("%w: %s", ErrAmbiguousID, idOrPrefix)
	}
}

// FindSupervisor resolves a supervisor by id or case-insensitive name.
func (c *Context) FindSupervisor(idOrName string) (models.Supervisor, error) {
	if sup, err := c.Store.GetSupervisor(idOrName); err == nil {
		return sup, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Supervisor{}, err
	}

	all, err := c.Store.GetAllSupervisors()
	if err != nil {
		return models.Supervisor{}, fmt.Errorf("failed to load supervisors: %w", err)
	}
	var found []models.Supervisor
	for _, sup := range all {
		if strings.EqualFold(sup.Name, strings.TrimSpace(idOrName)) || strings.HasPrefix(sup.ID, idOrName) {
			found = append(found, sup)
		}
	}
	switch len(found) {
	case 0:
		return models.Supervisor{}, fmt.Errorf("supervisor %q: %w", idOrName, storage.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return models.Supervisor{}, fmt.Errorf("%w: %s", ErrAmbiguousID, idOrName)
	}
}

// SupervisorNames maps supervisor ids to display names.
func (c *Context) SupervisorNames() (map[string]string, error) {
	all, err := c.Store.GetAllSupervisors()
	if err != nil {
		return nil, fmt.Errorf("failed to load supervisors: %w", err)
	}
	names := make(map[string]string, len(all))
	for _, sup := range all {
		names[sup.ID] = sup.Name
	}
	return names, nil
}
