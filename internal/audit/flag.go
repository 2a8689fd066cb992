package audit

import (
	"fmt"
	"strings"
)

// FlagKind identifies the rule that raised a flag.
type FlagKind string

const (
	KindOverlap                  FlagKind = "overlap"
	KindExcessiveDuration        FlagKind = "excessive_duration"
	KindMissingSupervisor        FlagKind = "missing_supervisor"
	KindMonthlyCapExceeded       FlagKind = "monthly_cap_exceeded"
	KindRatioBelowMinimum        FlagKind = "ratio_below_minimum"
	KindInvalidInterval          FlagKind = "invalid_interval"
	KindBelowMonthlyMinimum      FlagKind = "below_monthly_minimum"
	KindGroupSupervisionExceeded FlagKind = "group_supervision_exceeded"
)

// Severity decides whether a flag prevents persistence.
type Severity string

const (
	Blocking Severity = "blocking"
	Advisory Severity = "advisory"
)

// Flag is a single audit finding against a candidate record or a period.
type Flag struct {
	Kind             FlagKind `json:"kind"`
	Severity         Severity `json:"severity"`
	Message          string   `json:"message"`
	RelatedRecordIDs []string `json:"related_record_ids,omitempty"`
}

// ValidationResult is the outcome of validating one candidate record.
type ValidationResult struct {
	Accepted bool   `json:"accepted"`
	Flags    []Flag `json:"flags"`
}

// HasBlocking returns true if any flag prevents persistence
func (vr *ValidationResult) HasBlocking() bool {
	for _, f := range vr.Flags {
		if f.Severity == Blocking {
			return true
		}
	}
	return false
}

// Blocking returns the blocking flags in evaluation order
func (vr *ValidationResult) Blocking() []Flag {
	return vr.filter(Blocking)
}

// Advisory returns the advisory flags in evaluation order
func (vr *ValidationResult) Advisory() []Flag {
	return vr.filter(Advisory)
}

func (vr *ValidationResult) filter(s Severity) []Flag {
	var out []Flag
	for _, f := range vr.Flags {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// FormatReport returns a human-readable report of all flags
func (vr *ValidationResult) FormatReport() string {
	if len(vr.Flags) == 0 {
		return "No issues detected."
	}

	var b strings.Builder
	if blocking := vr.Blocking(); len(blocking) > 0 {
		b.WriteString("Blocking issues:\n")
		for _, f := range blocking {
			fmt.Fprintf(&b, "- [%s] %s\n", f.Kind, f.Message)
		}
	}
	if advisory := vr.Advisory(); len(advisory) > 0 {
		b.WriteString("Warnings:\n")
		for _, f := range advisory {
			fmt.Fprintf(&b, "- [%s] %s\n", f.Kind, f.Message)
		}
	}
	return b.String()
}
