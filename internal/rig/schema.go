package rig

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"compendcli/internal/errors"
)

// Cycle derivation methods. Reciprocating rigs count stroke reversals;
// rotary rigs integrate rotational speed over elapsed time.
const (
	CycleReciprocating = "reciprocating"
	CycleRotary        = "rotary"
)

// ColumnSpec declares one column the rig's acquisition software emits.
type ColumnSpec struct {
	Name     string `yaml:"name" validate:"required"`
	Unit     string `yaml:"unit"`
	Numeric  bool   `yaml:"numeric"`
	Required bool   `yaml:"required"`
}

// CycleSpec configures how the cycle-count column is derived. The exact
// formula is rig-calibration-specific, so it lives in the schema rather
// than in code.
type CycleSpec struct {
	Method string `yaml:"method" validate:"required,oneof=reciprocating rotary"`

	// TimeColumn names the elapsed-time column, required by both methods.
	TimeColumn string `yaml:"time_column" validate:"required"`

	// SpeedColumn names the rotational-speed column (rotary method).
	SpeedColumn string `yaml:"speed_column" validate:"required_if=Method rotary"`

	// StrokeColumn and FrictionColumn drive direction detection
	// (reciprocating method).
	StrokeColumn   string `yaml:"stroke_column" validate:"required_if=Method reciprocating"`
	FrictionColumn string `yaml:"friction_column"`

	// Scale converts integrated speed·time into revolutions, e.g. 1/60
	// when speed is in rpm and time in seconds.
	Scale float64 `yaml:"scale"`
}

// SummaryField locates a value inside the base file's per-step summary
// lines (the tab-indented lines Compend interleaves with the data).
type SummaryField struct {
	Label   string `yaml:"label" validate:"required"`
	Index   int    `yaml:"index" validate:"min=0"`
	Integer bool   `yaml:"integer"`
}

// Schema is the full data-driven description of one rig's file layout.
type Schema struct {
	Name string `yaml:"name" validate:"required"`

	// Columns is the expected column set of the base (low speed) file.
	Columns []ColumnSpec `yaml:"columns" validate:"required,min=1,dive"`

	// HSDColumns is the expected column set of high-speed fragment files.
	HSDColumns []ColumnSpec `yaml:"hsd_columns" validate:"dive"`

	Cycle CycleSpec `yaml:"cycle"`

	// Summary maps logical names (time, load, cycles) to their positions
	// in the base file's summary lines.
	Summary map[string]SummaryField `yaml:"summary"`

	// LengthFactor is the default wear-track central-region fraction used
	// by per-cycle summarizing.
	LengthFactor float64 `yaml:"length_factor" validate:"gte=0,lte=1"`
}

// RequiredColumns returns the names of columns that must appear in the
// base file's header, in declaration order.
func (s Schema) RequiredColumns() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Required {
			names = append(names, c.Name)
		}
	}
	return names
}

// RequiredHSDColumns returns the names of columns that must appear in a
// fragment file's header.
func (s Schema) RequiredHSDColumns() []string {
	var names []string
	for _, c := range s.HSDColumns {
		if c.Required {
			names = append(names, c.Name)
		}
	}
	return names
}

var validate = validator.New()

// Validate checks the schema's structural constraints.
func (s Schema) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.NewConfigError(fmt.Sprintf("rig schema %q is invalid", s.Name), err)
	}
	return nil
}

// Load reads a rig schema from a YAML file and validates it.
func Load(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, errors.NewConfigError(fmt.Sprintf("reading rig schema %s", path), err)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, errors.NewConfigError(fmt.Sprintf("parsing rig schema %s", path), err)
	}
	if s.LengthFactor == 0 {
		s.LengthFactor = DefaultLengthFactor
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Schema)
)

// Register makes a schema available by rig name. Built-in rigs register
// themselves at init time.
func Register(s Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Name] = s
	return nil
}

// Lookup returns the registered schema for a rig name.
func Lookup(name string) (Schema, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[name]
	if !ok {
		return Schema{}, errors.NewConfigError(fmt.Sprintf("unknown rig %q", name), nil)
	}
	return s, nil
}

// Names lists the registered rig names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
