package digest

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"compendcli/internal/errors"
	"compendcli/internal/measurement"
	"compendcli/internal/rig"
)

// Line markers Compend 2000 writes into base test files.
const (
	markerTestStarted  = "Test started at"
	markerTestFinished = "Test finished"
	markerFastData     = "Fast data in"
	markerHighSpeed    = "High speed data"
)

// hsdPreambleLines is the number of preamble lines before a fragment
// file's header row.
const hsdPreambleLines = 4

// HSDMarker carries the running totals Compend records in the base file
// just before switching to a high speed capture. They seed the derived
// columns of the matching fragment.
type HSDMarker struct {
	FileName string
	Time     float64
	Load     float64
	Cycles   float64
}

// Normalize reads one raw base test file and produces a clean table:
// the pre-header preamble, blank lines, start/finish marker lines and
// fast-data marker lines are removed, line padding is stripped, the
// header is validated against the rig's column set, and numeric columns
// are coerced.
func Normalize(path string, schema rig.Schema) (*measurement.Table, error) {
	table, _, err := normalizeBase(path, schema)
	return table, err
}

// normalizeBase also returns the high-speed markers encountered between
// data rows, in file order.
func normalizeBase(path string, schema rig.Schema) (*measurement.Table, []HSDMarker, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NewMissingFileError(path, err)
		}
		return nil, nil, errors.NewStorageError(fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if err := skipUntil(scanner, markerTestStarted); err != nil {
		return nil, nil, errors.NewMalformedHeaderError(
			fmt.Sprintf("%s: no %q line found", path, markerTestStarted), err)
	}

	headerLine, ok := nextNonBlank(scanner)
	if !ok {
		return nil, nil, errors.NewMalformedHeaderError(
			fmt.Sprintf("%s: file ends before the header row", path), nil)
	}

	table := &measurement.Table{}
	for _, cell := range splitDataLine(headerLine) {
		name, unit := measurement.SplitLabel(cell)
		table.Columns = append(table.Columns, measurement.Column{Name: name, Unit: unit})
	}
	if err := validateHeader(table, schema.RequiredColumns()); err != nil {
		return nil, nil, err
	}

	var markers []HSDMarker
	var lastSummary map[string]float64
	rowNum := 0

	for scanner.Scan() {
		rowNum++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, markerTestFinished):
			continue
		case strings.HasPrefix(trimmed, markerFastData):
			marker := HSDMarker{FileName: extractFastDataName(trimmed)}
			if lastSummary != nil {
				marker.Time = lastSummary[rig.SummaryTime]
				marker.Load = lastSummary[rig.SummaryLoad]
				marker.Cycles = lastSummary[rig.SummaryCycles]
			}
			markers = append(markers, marker)
			continue
		}

		cells := splitDataLine(line)
		row := make(measurement.Row, len(cells))
		for i, cell := range cells {
			row[i] = measurement.Coerce(cell)
		}
		if err := table.Append(rowNum, row); err != nil {
			return nil, nil, err
		}
		lastSummary = extractSummary(line, schema.Summary)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.NewParsingError(fmt.Sprintf("%s: reading data rows", path), err)
	}

	markNumeric(table, schema.Columns)
	return table, markers, nil
}

// NormalizeHSD reads one high speed fragment file: skips the preamble,
// extracts the acquisition rate advertised there, validates the header
// against the rig's HSD column set and coerces the samples. A zero rate
// means the preamble did not advertise one.
func NormalizeHSD(path string, schema rig.Schema) (*measurement.Table, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.NewMissingFileError(path, err)
		}
		return nil, 0, errors.NewStorageError(fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rate float64
	for i := 0; i < hsdPreambleLines; i++ {
		if !scanner.Scan() {
			return nil, 0, errors.NewMalformedHeaderError(
				fmt.Sprintf("%s: file ends inside the preamble", path), scanner.Err())
		}
		line := scanner.Text()
		if strings.Contains(line, markerHighSpeed) {
			rate = extractAcquisitionRate(line)
		}
	}

	if !scanner.Scan() {
		return nil, 0, errors.NewMalformedHeaderError(
			fmt.Sprintf("%s: file ends before the header row", path), scanner.Err())
	}

	table := &measurement.Table{}
	for _, cell := range splitDataLine(scanner.Text()) {
		name, unit := measurement.SplitLabel(cell)
		table.Columns = append(table.Columns, measurement.Column{Name: name, Unit: unit})
	}
	if err := validateHeader(table, schema.RequiredHSDColumns()); err != nil {
		return nil, 0, err
	}

	rowNum := hsdPreambleLines + 1
	for scanner.Scan() {
		rowNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := splitDataLine(line)
		row := make(measurement.Row, len(cells))
		for i, cell := range cells {
			row[i] = measurement.Coerce(cell)
		}
		if err := table.Append(rowNum, row); err != nil {
			return nil, 0, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, errors.NewParsingError(fmt.Sprintf("%s: reading samples", path), err)
	}

	markNumeric(table, schema.HSDColumns)
	return table, rate, nil
}

// skipUntil consumes lines up to and including the first one starting
// with the given prefix.
func skipUntil(scanner *bufio.Scanner, prefix string) error {
	for scanner.Scan() {
		if strings.HasPrefix(strings.TrimSpace(scanner.Text()), prefix) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("prefix %q not found", prefix)
}

func nextNonBlank(scanner *bufio.Scanner) (string, bool) {
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			return scanner.Text(), true
		}
	}
	return "", false
}

// splitDataLine splits a raw line on tabs after stripping the padding
// tabs Compend puts at both ends of data rows.
func splitDataLine(line string) []string {
	return strings.Split(strings.Trim(line, "\t\r "), "\t")
}

// validateHeader checks that every required column is present.
func validateHeader(table *measurement.Table, required []string) error {
	for _, name := range required {
		if _, ok := table.ColumnIndex(name); ok {
			continue
		}
		have := make([]string, len(table.Columns))
		for i, c := range table.Columns {
			have[i] = c.Name
		}
		return errors.NewMalformedHeaderError(
			fmt.Sprintf("required column %q missing from header (%s)", name, strings.Join(have, ", ")), nil)
	}
	return nil
}

// markNumeric flags columns declared numeric by the schema, falling back
// to what actually parsed for undeclared ones.
func markNumeric(table *measurement.Table, specs []rig.ColumnSpec) {
	declared := make(map[string]bool, len(specs))
	for _, spec := range specs {
		declared[spec.Name] = spec.Numeric
	}
	for i, col := range table.Columns {
		if numeric, ok := declared[col.Name]; ok {
			table.Columns[i].Numeric = numeric
			continue
		}
		numeric := len(table.Rows) > 0
		for _, row := range table.Rows {
			if !row[i].IsNum {
				numeric = false
				break
			}
		}
		table.Columns[i].Numeric = numeric
	}
}

// extractSummary pulls the configured summary fields out of a raw data
// line. Field indices count tabs in the raw line, before padding is
// stripped, matching how Compend lays the lines out.
func extractSummary(line string, fields map[string]rig.SummaryField) map[string]float64 {
	if len(fields) == 0 {
		return nil
	}
	cells := strings.Split(strings.TrimRight(line, "\t\r "), "\t")
	out := make(map[string]float64, len(fields))
	for key, field := range fields {
		if field.Index >= len(cells) {
			return nil
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(cells[field.Index]), 64)
		if err != nil {
			return nil
		}
		if field.Integer {
			value = float64(int64(value))
		}
		out[key] = value
	}
	return out
}

// extractFastDataName returns the fragment file name from a
// "Fast data in <name> at <time>" marker line.
func extractFastDataName(line string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(line, markerFastData))
	if at := strings.Index(rest, " at "); at >= 0 {
		rest = rest[:at]
	}
	return strings.TrimSpace(rest)
}

// rateRe matches the sampling rate in the fragment preamble, e.g.
// "High speed data captured at 100 Hz".
var rateRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*Hz`)

// extractAcquisitionRate parses the rate out of the preamble line.
func extractAcquisitionRate(line string) float64 {
	m := rateRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	rate, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return rate
}
