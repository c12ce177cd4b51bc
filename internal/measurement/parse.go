package measurement

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"compendcli/internal/errors"
)

// unitRe matches the unit annotation Compend embeds in column labels,
// e.g. "Stroke (mm)" or "Contact Potential (mV)".
var unitRe = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)\s*$`)

// SplitLabel separates a raw header cell into its base name and unit
// annotation. Labels without an annotation come back with an empty unit.
func SplitLabel(cell string) (name, unit string) {
	trimmed := strings.TrimSpace(cell)
	if m := unitRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return trimmed, ""
}

// ParseTSV reads a tab-separated table whose first line is the header.
// Header cells are split into name and unit; data cells are coerced to
// numbers where they parse as such. A data row whose field count differs
// from the header's fails with a row-arity error.
func ParseTSV(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, errors.NewParsingError("reading header line", err)
		}
		return nil, errors.NewMalformedHeaderError("input has no header line", nil)
	}

	table := &Table{}
	for _, cell := range strings.Split(scanner.Text(), "\t") {
		name, unit := SplitLabel(cell)
		table.Columns = append(table.Columns, Column{Name: name, Unit: unit})
	}

	rowNum := 1
	for scanner.Scan() {
		rowNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		row := make(Row, len(cells))
		for i, cell := range cells {
			row[i] = Coerce(cell)
		}
		if err := table.Append(rowNum, row); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("reading line %d", rowNum+1), err)
	}

	markNumericColumns(table)
	return table, nil
}

// markNumericColumns flags a column numeric when every one of its cells
// coerced successfully. Empty tables leave the flags unset.
func markNumericColumns(t *Table) {
	if len(t.Rows) == 0 {
		return
	}
	for c := range t.Columns {
		numeric := true
		for _, row := range t.Rows {
			if !row[c].IsNum {
				numeric = false
				break
			}
		}
		t.Columns[c].Numeric = numeric
	}
}

// WriteTSV writes the table with its reconstructed header labels. The
// delimiter matches the instrument's convention.
func (t *Table) WriteTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label()
	}
	if err := cw.Write(header); err != nil {
		return errors.NewStorageError("writing header", err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, v := range row {
			record[j] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return errors.NewStorageError(fmt.Sprintf("writing row %d", i+1), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes the table comma-separated, for spreadsheet import.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label()
	}
	if err := cw.Write(header); err != nil {
		return errors.NewStorageError("writing header", err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, v := range row {
			record[j] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return errors.NewStorageError(fmt.Sprintf("writing row %d", i+1), err)
		}
	}
	cw.Flush()
	return cw.Error()
}
