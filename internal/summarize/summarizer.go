package summarize

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"compendcli/internal/digest"
	"compendcli/internal/errors"
	"compendcli/internal/measurement"
	"compendcli/internal/rig"
)

// Config holds the summarizer options.
type Config struct {
	// LengthFactor is the fraction of the wear track kept around its
	// center; 0 falls back to the rig schema's value.
	LengthFactor float64

	// DropColumns are removed from the summary, e.g. raw actuator input
	// channels that carry no analytical value.
	DropColumns []string

	// StripPrefix removes the "HSD " label prefix from the summary's
	// column names, giving the final analysis nomenclature.
	StripPrefix bool
}

// Summarizer reduces a digested high-speed table to one averaged row
// per cycle, restricted to the wear track's central region.
type Summarizer struct {
	logger *slog.Logger
	schema rig.Schema
	config Config
}

// NewSummarizer creates a summarizer for a rig schema.
func NewSummarizer(schema rig.Schema, logger *slog.Logger, config Config) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.LengthFactor == 0 {
		config.LengthFactor = schema.LengthFactor
	}
	return &Summarizer{logger: logger, schema: schema, config: config}
}

// PerCycle builds the per-cycle summary. Frictions enter in absolute
// value, every numeric column is averaged inside each cycle, and a
// coefficient-of-friction column is derived from the averaged friction
// and load.
func (s *Summarizer) PerCycle(table *measurement.Table) (*measurement.Table, error) {
	cycleIdx, ok := table.ColumnIndex(digest.CycleColumn)
	if !ok {
		return nil, errors.NewMalformedHeaderError(
			fmt.Sprintf("table has no %q column, digest the run first", digest.CycleColumn), nil)
	}

	working := table.Clone()
	if err := s.filterCentralRegion(working); err != nil {
		return nil, err
	}
	if err := absColumn(working, s.schema.Cycle.FrictionColumn); err != nil {
		return nil, err
	}

	summary, err := s.averagePerCycle(working, cycleIdx)
	if err != nil {
		return nil, err
	}
	if err := s.addCoF(summary); err != nil {
		return nil, err
	}

	for _, name := range s.config.DropColumns {
		summary.DropColumn(name)
	}
	if s.config.StripPrefix {
		for i, col := range summary.Columns {
			summary.Columns[i].Name = strings.TrimPrefix(col.Name, "HSD ")
		}
	}

	s.logger.Debug("per-cycle summary built",
		slog.Int("input_rows", len(table.Rows)),
		slog.Int("cycles", len(summary.Rows)))
	return summary, nil
}

// filterCentralRegion keeps only rows whose stroke lies inside the
// central fraction of the wear track. A length factor of 0.1 on a 10 mm
// track keeps everything within 0.5 mm of the center.
func (s *Summarizer) filterCentralRegion(table *measurement.Table) error {
	strokeIdx, ok := table.ColumnIndex(s.schema.Cycle.StrokeColumn)
	if !ok || len(table.Rows) == 0 {
		return nil
	}

	min, err := table.Float(0, strokeIdx)
	if err != nil {
		return err
	}
	max := min
	for i := 1; i < len(table.Rows); i++ {
		v, err := table.Float(i, strokeIdx)
		if err != nil {
			return err
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	upper := max * s.config.LengthFactor / 2
	lower := min * s.config.LengthFactor / 2

	kept := table.Rows[:0]
	for _, row := range table.Rows {
		v := row[strokeIdx].Num
		if v >= lower && v <= upper {
			kept = append(kept, row)
		}
	}
	table.Rows = kept
	return nil
}

// averagePerCycle groups rows by their cycle value and averages every
// numeric column. Non-numeric columns cannot be averaged and are left
// out, the cycle column comes first.
func (s *Summarizer) averagePerCycle(table *measurement.Table, cycleIdx int) (*measurement.Table, error) {
	type group struct {
		sums  []float64
		count int
	}

	numericIdx := make([]int, 0, len(table.Columns))
	for i, col := range table.Columns {
		if col.Numeric && i != cycleIdx {
			numericIdx = append(numericIdx, i)
		}
	}

	groups := make(map[float64]*group)
	var order []float64
	for r := range table.Rows {
		cycle, err := table.Float(r, cycleIdx)
		if err != nil {
			return nil, err
		}
		g, ok := groups[cycle]
		if !ok {
			g = &group{sums: make([]float64, len(numericIdx))}
			groups[cycle] = g
			order = append(order, cycle)
		}
		for j, idx := range numericIdx {
			v, err := table.Float(r, idx)
			if err != nil {
				return nil, err
			}
			g.sums[j] += v
		}
		g.count++
	}
	sort.Float64s(order)

	out := &measurement.Table{}
	cycleCol := table.Columns[cycleIdx]
	out.Columns = append(out.Columns, cycleCol)
	for _, idx := range numericIdx {
		out.Columns = append(out.Columns, table.Columns[idx])
	}

	for _, cycle := range order {
		g := groups[cycle]
		row := make(measurement.Row, 0, len(out.Columns))
		row = append(row, measurement.Num(cycle))
		for _, sum := range g.sums {
			row = append(row, measurement.Num(sum/float64(g.count)))
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// addCoF appends the coefficient-of-friction column, friction divided
// by load. Cycles under zero load get a zero coefficient.
func (s *Summarizer) addCoF(table *measurement.Table) error {
	frictionIdx, fok := table.ColumnIndex(s.schema.Cycle.FrictionColumn)
	loadIdx, lok := table.ColumnIndex(digest.LoadColumn)
	if !fok || !lok {
		return nil
	}

	values := make([]measurement.Value, len(table.Rows))
	for i := range table.Rows {
		friction := table.Rows[i][frictionIdx].Num
		load := table.Rows[i][loadIdx].Num
		if load == 0 {
			values[i] = measurement.Num(0)
			continue
		}
		values[i] = measurement.Num(friction / load)
	}
	return table.AddColumn(measurement.Column{Name: "HSD CoF", Numeric: true}, values)
}

// absColumn replaces the named column's values with their magnitudes.
func absColumn(table *measurement.Table, name string) error {
	if name == "" {
		return nil
	}
	idx, ok := table.ColumnIndex(name)
	if !ok {
		return nil
	}
	for i := range table.Rows {
		v, err := table.Float(i, idx)
		if err != nil {
			return err
		}
		table.Rows[i][idx] = measurement.Num(math.Abs(v))
	}
	return nil
}
