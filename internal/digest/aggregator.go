package digest

import (
	"context"
	"fmt"
	"log/slog"

	"compendcli/internal/errors"
	"compendcli/internal/files"
	"compendcli/internal/infrastructure"
	"compendcli/internal/measurement"
	"compendcli/internal/rig"
)

// Names of the columns a high-speed digest derives and appends.
const (
	CycleColumn = "HSD Cycle"
	LoadColumn  = "HSD Load"
)

// defaultRate stands in when a fragment preamble does not advertise its
// acquisition rate.
const defaultRate = 1.0

// Digester runs the digest operations for one rig schema.
type Digester struct {
	schema rig.Schema
	logger *slog.Logger
}

// NewDigester creates a digester for the given rig schema.
func NewDigester(schema rig.Schema, logger *slog.Logger) *Digester {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Digester{schema: schema, logger: logger}
}

// contextLogger decorates the digester's logger with the context's
// trace ID.
func (d *Digester) contextLogger(ctx context.Context) *slog.Logger {
	logger := d.logger
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}
	return logger
}

// Schema returns the rig schema the digester operates with.
func (d *Digester) Schema() rig.Schema {
	return d.schema
}

// DigestMainTestFile normalizes one base test file.
func (d *Digester) DigestMainTestFile(ctx context.Context, path string) (*measurement.Table, error) {
	logger := d.contextLogger(ctx).With(
		slog.String("rig", d.schema.Name),
		slog.String("file", path))

	table, err := Normalize(path, d.schema)
	if err != nil {
		logger.Error("normalizing base file failed", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("normalized base file",
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)))
	return table, nil
}

// DigestHSDFiles digests a full test run: it discovers the run's
// high-speed fragments, normalizes each, concatenates them preserving
// fragment and row order, and appends the derived time, load and
// cycle-count columns. A run with no fragments digests to the normalized
// base file unchanged.
func (d *Digester) DigestHSDFiles(ctx context.Context, basePath string) (*measurement.Table, error) {
	logger := d.contextLogger(ctx).With(
		slog.String("rig", d.schema.Name),
		slog.String("base", basePath))

	run, err := files.FindTestRun(basePath)
	if err != nil {
		logger.Error("test run discovery failed", slog.String("error", err.Error()))
		return nil, err
	}

	baseTable, markers, err := normalizeBase(basePath, d.schema)
	if err != nil {
		return nil, err
	}

	if !run.HasFragments() {
		logger.Info("no high speed fragments, returning normalized base file",
			slog.Int("rows", len(baseTable.Rows)))
		return baseTable, nil
	}

	logger.Info("digesting high speed fragments",
		slog.Int("fragments", len(run.Fragments)),
		slog.Int("markers", len(markers)))

	// The base file names each fragment in its fast-data marker line, so
	// markers pair with fragments by file name. Position in the file is
	// the fallback for markers whose name does not resolve.
	markerByName := make(map[string]HSDMarker, len(markers))
	for _, m := range markers {
		if m.FileName != "" {
			markerByName[m.FileName] = m
		}
	}

	var (
		aggregate *measurement.Table
		rate      float64
		nextTime  float64
		nextCycle float64
		lastLoad  float64
	)

	for i, frag := range run.Fragments {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewParsingError("digest cancelled", err)
		}

		table, fragRate, err := NormalizeHSD(frag.Path, d.schema)
		if err != nil {
			return nil, err
		}
		if rate == 0 {
			rate = fragRate
		}
		if rate == 0 {
			logger.Warn("no acquisition rate in fragment preamble, assuming 1 Hz",
				slog.String("fragment", frag.Name))
			rate = defaultRate
		}

		marker, ok := markerByName[frag.Name]
		if !ok {
			marker = HSDMarker{Time: nextTime, Load: lastLoad, Cycles: nextCycle}
			if i < len(markers) {
				marker = markers[i]
			}
		}

		if err := d.processFragment(table, rate, marker); err != nil {
			return nil, err
		}

		lastLoad = marker.Load
		if n := len(table.Rows); n > 0 {
			nextTime = marker.Time + float64(n)/rate
			cycleIdx, _ := table.ColumnIndex(CycleColumn)
			nextCycle = table.Rows[n-1][cycleIdx].Num
		}

		logger.Debug("fragment digested",
			slog.String("fragment", frag.Name),
			slog.Int("rows", len(table.Rows)))

		if aggregate == nil {
			aggregate = table
			continue
		}
		if err := aggregate.AppendTable(table); err != nil {
			return nil, err
		}
	}

	logger.Info("high speed digest complete",
		slog.Int("rows", len(aggregate.Rows)),
		slog.Int("columns", len(aggregate.Columns)))
	return aggregate, nil
}

// processFragment applies the per-fragment derivations: stroke
// centering, the synthetic time column, the carried-in load column and
// the cycle count.
func (d *Digester) processFragment(table *measurement.Table, rate float64, marker HSDMarker) error {
	if err := centerStroke(table, d.schema.Cycle.StrokeColumn); err != nil {
		return err
	}

	n := len(table.Rows)

	// Rigs whose fragments already record elapsed time keep that column;
	// otherwise a synthetic one is derived from the acquisition rate.
	if _, ok := table.ColumnIndex(d.schema.Cycle.TimeColumn); !ok {
		timeValues := linspace(marker.Time, marker.Time+float64(n)/rate, n)
		if err := table.AddColumn(
			measurement.Column{Name: d.schema.Cycle.TimeColumn, Unit: "s", Numeric: true}, timeValues); err != nil {
			return err
		}
	}

	loadValues := make([]measurement.Value, n)
	for i := range loadValues {
		loadValues[i] = measurement.Num(marker.Load)
	}
	if err := table.AddColumn(
		measurement.Column{Name: LoadColumn, Unit: "N", Numeric: true}, loadValues); err != nil {
		return err
	}

	cycles, err := DeriveCycles(table, d.schema.Cycle, marker.Cycles)
	if err != nil {
		return err
	}
	cycleValues := make([]measurement.Value, n)
	for i, c := range cycles {
		cycleValues[i] = measurement.Num(c)
	}
	return table.AddColumn(
		measurement.Column{Name: CycleColumn, Numeric: true}, cycleValues)
}

// centerStroke shifts the stroke column so its extremes sit symmetric
// around zero, the way the wear-track analysis expects it.
func centerStroke(table *measurement.Table, strokeColumn string) error {
	if strokeColumn == "" || len(table.Rows) == 0 {
		return nil
	}
	idx, ok := table.ColumnIndex(strokeColumn)
	if !ok {
		return nil
	}

	min, err := table.Float(0, idx)
	if err != nil {
		return err
	}
	max := min
	for i := 1; i < len(table.Rows); i++ {
		v, err := table.Float(i, idx)
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

	mid := (max + min) / 2
	if mid == 0 {
		return nil
	}
	for i := range table.Rows {
		table.Rows[i][idx] = measurement.Num(table.Rows[i][idx].Num - mid)
	}
	return nil
}

// linspace mirrors numpy's: n points from start to stop inclusive.
func linspace(start, stop float64, n int) []measurement.Value {
	values := make([]measurement.Value, n)
	if n == 0 {
		return values
	}
	if n == 1 {
		values[0] = measurement.Num(start)
		return values
	}
	step := (stop - start) / float64(n-1)
	for i := range values {
		values[i] = measurement.Num(start + float64(i)*step)
	}
	return values
}

// DigestTE38MainTestFile normalizes one TE 38 base test file.
func DigestTE38MainTestFile(ctx context.Context, path string) (*measurement.Table, error) {
	return NewDigester(rig.TE38(), nil).DigestMainTestFile(ctx, path)
}

// DigestTE38HSDFiles digests a TE 38 test run including its high speed
// fragments.
func DigestTE38HSDFiles(ctx context.Context, basePath string) (*measurement.Table, error) {
	return NewDigester(rig.TE38(), nil).DigestHSDFiles(ctx, basePath)
}

// OutputName returns the conventional output file name for a digested
// run, e.g. "run_HSD.TSV" for base name "run".
func OutputName(runName, format string) string {
	switch format {
	case "csv":
		return fmt.Sprintf("%s_HSD.csv", runName)
	case "xlsx":
		return fmt.Sprintf("%s_HSD.xlsx", runName)
	default:
		return fmt.Sprintf("%s_HSD.TSV", runName)
	}
}
