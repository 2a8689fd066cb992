package ruleset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/fieldlog/internal/constants"
)

// ErrSchemaViolation is returned when a ruleset document does not match the
// document schema (unknown keys, wrong types, missing fields).
var ErrSchemaViolation = errors.New("ruleset document violates schema")

//go:embed defaults.yaml
var defaultDocument []byte

//go:embed schema.json
var schemaDocument []byte

const schemaURL = "https://fieldlog.dev/schemas/ruleset.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaDocument)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

type document struct {
	ProgressTargets *ProgressTargets           `yaml:"progress_targets"`
	Versions        map[string]versionDocument `yaml:"versions"`
}

type versionDocument struct {
	EffectiveFrom            string  `yaml:"effective_from"`
	EffectiveUntil           string  `yaml:"effective_until"`
	SupervisionRatioMin      float64 `yaml:"supervision_ratio_min"`
	ConcentratedRatioMin     float64 `yaml:"concentrated_ratio_min"`
	MonthlyHoursMin          float64 `yaml:"monthly_hours_min"`
	MonthlyHoursMax          float64 `yaml:"monthly_hours_max"`
	MaxSingleEntryHours      float64 `yaml:"max_single_entry_hours"`
	GroupSupervisionMaxShare float64 `yaml:"group_supervision_max_share"`
}

// Load parses a YAML ruleset document, checks it against the embedded schema
// and builds a Registry from its versions. Progress targets missing from the
// document fall back to DefaultProgressTargets.
func Load(r io.Reader) (*Registry, ProgressTargets, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ProgressTargets{}, fmt.Errorf("failed to read ruleset document: %w", err)
	}

	if err := checkSchema(data); err != nil {
		return nil, ProgressTargets{}, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ProgressTargets{}, fmt.Errorf("failed to decode ruleset document: %w", err)
	}

	ids := make([]string, 0, len(doc.Versions))
	for id := range doc.Versions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	versions := make([]Version, 0, len(ids))
	for _, id := range ids {
		v, err := doc.Versions[id].toVersion(id)
		if err != nil {
			return nil, ProgressTargets{}, err
		}
		versions = append(versions, v)
	}

	reg, err := NewRegistry(versions)
	if err != nil {
		return nil, ProgressTargets{}, err
	}

	targets := DefaultProgressTargets
	if doc.ProgressTargets != nil {
		if doc.ProgressTargets.Standard > 0 {
			targets.Standard = doc.ProgressTargets.Standard
		}
		if doc.ProgressTargets.Concentrated > 0 {
			targets.Concentrated = doc.ProgressTargets.Concentrated
		}
	}
	return reg, targets, nil
}

// LoadFile loads a ruleset document from disk.
func LoadFile(path string) (*Registry, ProgressTargets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ProgressTargets{}, fmt.Errorf("failed to open ruleset file: %w", err)
	}
	defer f.Close()

	reg, targets, err := Load(f)
	if err != nil {
		return nil, ProgressTargets{}, fmt.Errorf("%s: %w", path, err)
	}
	return reg, targets, nil
}

// LoadDefault loads the rules compiled into the binary.
func LoadDefault() (*Registry, ProgressTargets, error) {
	return Load(bytes.NewReader(defaultDocument))
}

// DefaultDocument returns a copy of the embedded YAML document.
func DefaultDocument() []byte {
	return bytes.Clone(defaultDocument)
}

func checkSchema(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("failed to compile ruleset schema: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	// The validator expects JSON-shaped values, so round-trip through encoding/json.
	encoded, err := json.Marshal(normalize(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	var payload any
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

// normalize rewrites non-string map keys (an unquoted version id such as 2022)
// so the tree can be JSON encoded.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case time.Time:
		return t.Format(constants.DateFormat)
	default:
		return v
	}
}

func (d versionDocument) toVersion(id string) (Version, error) {
	from, err := time.Parse(constants.DateFormat, d.EffectiveFrom)
	if err != nil {
		return Version{}, fmt.Errorf("%w %s: effective_from: %v", ErrInvalidRuleSet, id, err)
	}

	v := Version{
		ID:                       id,
		EffectiveFrom:            from,
		SupervisionRatioMin:      d.SupervisionRatioMin,
		ConcentratedRatioMin:     d.ConcentratedRatioMin,
		MonthlyHoursMin:          d.MonthlyHoursMin,
		MonthlyHoursMax:          d.MonthlyHoursMax,
		MaxSingleEntryHours:      d.MaxSingleEntryHours,
		GroupSupervisionMaxShare: d.GroupSupervisionMaxShare,
	}

	if d.EffectiveUntil != "" {
		until, err := time.Parse(constants.DateFormat, d.EffectiveUntil)
		if err != nil {
			return Version{}, fmt.Errorf("%w %s: effective_until: %v", ErrInvalidRuleSet, id, err)
		}
		v.EffectiveUntil = &until
	}
	return v, nil
}
