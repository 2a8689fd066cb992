package audit

import (
	"fmt"
	"sort"

	"github.com/julianstephens/fieldlog/internal/models"
	"github.com/julianstephens/fieldlog/internal/ruleset"
)

// RecordResult pairs a stored record with the flags it raises against the
// rest of the history.
type RecordResult struct {
	Record models.SessionRecord `json:"record"`
	Result ValidationResult     `json:"result"`
}

// AuditHistory re-validates every active record against all other active
// records and returns the results that carry at least one flag, ordered by
// record start. Soft-deleted records are neither audited nor compared against.
func (v *Validator) AuditHistory(records []models.SessionRecord, reg *ruleset.Registry) ([]RecordResult, error) {
	active := make([]models.SessionRecord, 0, len(records))
	for _, rec := range records {
		if !rec.IsDeleted() {
			active = append(active, rec)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].Start.Equal(active[j].Start) {
			return active[i].Start.Before(active[j].Start)
		}
		return active[i].ID < active[j].ID
	})

	var results []RecordResult
	for _, rec := range active {
		res, err := v.Validate(rec, active, reg)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if len(res.Flags) > 0 {
			results = append(results, RecordResult{Record: rec, Result: res})
		}
	}
	return results, nil
}
