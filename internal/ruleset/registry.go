// Package ruleset loads the regulator's versioned numeric rulesets and resolves
// which version governs a given date.
package ruleset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/fieldlog/internal/constants"
)

var (
	ErrNoApplicableRuleSet = errors.New("no applicable ruleset")
	ErrOverlappingRuleSets = errors.New("overlapping rulesets")
	ErrInvalidRuleSet      = errors.New("invalid ruleset")
	ErrDuplicateVersion    = errors.New("duplicate ruleset version")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Registry is an immutable, ordered set of ruleset versions. Build it once with
// NewRegistry and pass it to every call that needs rules; it is safe for
// concurrent readers.
type Registry struct {
	versions []Version
}

// NewRegistry validates each version, orders them by EffectiveFrom and checks
// that no two ranges intersect.
func NewRegistry(versions []Version) (*Registry, error) {
	sorted := make([]Version, 0, len(versions))
	seen := make(map[string]bool, len(versions))

	for _, v := range versions {
		if err := checkVersion(v); err != nil {
			return nil, err
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, v.ID)
		}
		seen[v.ID] = true

		v.EffectiveFrom = dateOnly(v.EffectiveFrom)
		if v.EffectiveUntil != nil {
			until := dateOnly(*v.EffectiveUntil)
			v.EffectiveUntil = &until
		}
		sorted = append(sorted, v)
	}

	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].EffectiveFrom.Equal(sorted[j].EffectiveFrom) {
			return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
		}
		return sorted[i].ID < sorted[j].ID
	})

	// Sorted by start, so checking neighbours is enough.
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if prev.EffectiveUntil == nil || next.EffectiveFrom.Before(*prev.EffectiveUntil) {
			return nil, fmt.Errorf("%w: %s (%s) and %s (%s)",
				ErrOverlappingRuleSets, prev.ID, formatRange(prev), next.ID, formatRange(next))
		}
	}

	return &Registry{versions: sorted}, nil
}

// Resolve returns the version whose range contains the calendar date of t.
func (r *Registry) Resolve(t time.Time) (Version, error) {
	d := dateOnly(t)
	// First version starting after d; the candidate is the one before it.
	idx := sort.Search(len(r.versions), func(i int) bool {
		return r.versions[i].EffectiveFrom.After(d)
	})
	if idx > 0 {
		if v := r.versions[idx-1]; v.Contains(d) {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("%w for %s", ErrNoApplicableRuleSet, d.Format(constants.DateFormat))
}

// All returns the versions ordered by EffectiveFrom.
func (r *Registry) All() []Version {
	out := make([]Version, len(r.versions))
	copy(out, r.versions)
	return out
}

// Get returns the version with the given id.
func (r *Registry) Get(id string) (Version, bool) {
	for _, v := range r.versions {
		if v.ID == id {
			return v, true
		}
	}
	return Version{}, false
}

func checkVersion(v Version) error {
	var problems []string
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, describeFieldError(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}
	if v.EffectiveFrom.IsZero() {
		problems = append(problems, "effective_from is required")
	}
	if v.EffectiveUntil != nil && !dateOnly(*v.EffectiveUntil).After(dateOnly(v.EffectiveFrom)) {
		problems = append(problems, "effective_until must be after effective_from")
	}
	if len(problems) > 0 {
		id := v.ID
		if id == "" {
			id = "<unnamed>"
		}
		return fmt.Errorf("%w %s: %s", ErrInvalidRuleSet, id, strings.Join(problems, "; "))
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
}

func formatRange(v Version) string {
	until := "open"
	if v.EffectiveUntil != nil {
		until = v.EffectiveUntil.Format(constants.DateFormat)
	}
	return v.EffectiveFrom.Format(constants.DateFormat) + ".." + until
}
