package rates

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table is an immutable in-memory rate table: one default rate per task type
// plus optional per-staff overrides. It satisfies billing.RateTable.
type Table struct {
	defaults map[string]float64
	customs  map[string]map[string]float64
}

// NewTable builds a Table from raw maps. Keys are used exactly as given;
// loaders are responsible for trimming.
func NewTable(defaults map[string]float64, customs map[string]map[string]float64) *Table {
	if defaults == nil {
		defaults = make(map[string]float64)
	}
	if customs == nil {
		customs = make(map[string]map[string]float64)
	}
	return &Table{defaults: defaults, customs: customs}
}

// HasType reports whether the task type has a default rate configured.
func (t *Table) HasType(taskType string) bool {
	_, ok := t.defaults[taskType]
	return ok
}

// DefaultRate returns the task type's default rate, zero when unconfigured.
func (t *Table) DefaultRate(taskType string) float64 {
	return t.defaults[taskType]
}

// CustomRate returns the per-staff override for the pair, if any.
func (t *Table) CustomRate(taskType, staffKey string) (float64, bool) {
	rate, ok := t.customs[taskType][staffKey]
	return rate, ok
}

// TypeCount returns the number of configured task types.
func (t *Table) TypeCount() int {
	return len(t.defaults)
}

// fileSchema mirrors the rates YAML document:
//
//	defaults:
//	  Play-by-play: 100000
//	custom:
//	  Play-by-play:
//	    S2: 150000
type fileSchema struct {
	Defaults map[string]float64            `yaml:"defaults"`
	Custom   map[string]map[string]float64 `yaml:"custom"`
}

// LoadFile loads a rate table from a YAML file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates from %s: %w", path, err)
	}
	return table, nil
}

// Parse builds a Table from YAML bytes. Task type and staff keys are
// trimmed; a custom rate for a task type with no default is rejected so a
// typo cannot silently split a rate across two spellings.
func Parse(data []byte) (*Table, error) {
	var doc fileSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rates: %w", err)
	}

	defaults := make(map[string]float64, len(doc.Defaults))
	for taskType, rate := range doc.Defaults {
		taskType = strings.TrimSpace(taskType)
		if taskType == "" {
			return nil, fmt.Errorf("rates: empty task type in defaults")
		}
		if rate < 0 {
			return nil, fmt.Errorf("rates: negative default rate for %q", taskType)
		}
		defaults[taskType] = rate
	}

	customs := make(map[string]map[string]float64, len(doc.Custom))
	for taskType, overrides := range doc.Custom {
		taskType = strings.TrimSpace(taskType)
		if _, ok := defaults[taskType]; !ok {
			return nil, fmt.Errorf("rates: custom rates for unknown task type %q", taskType)
		}
		byStaff := make(map[string]float64, len(overrides))
		for staffKey, rate := range overrides {
			staffKey = strings.TrimSpace(staffKey)
			if staffKey == "" {
				return nil, fmt.Errorf("rates: empty staff key under task type %q", taskType)
			}
			if rate < 0 {
				return nil, fmt.Errorf("rates: negative custom rate for %q/%q", taskType, staffKey)
			}
			byStaff[staffKey] = rate
		}
		customs[taskType] = byStaff
	}

	return NewTable(defaults, customs), nil
}
