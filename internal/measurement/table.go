package measurement

import (
	"fmt"
	"strconv"
	"strings"

	"compendcli/internal/errors"
)

// Column describes one table column: the base name with the unit
// annotation split out of it, plus whether the column carries numbers.
type Column struct {
	Name    string
	Unit    string
	Numeric bool
}

// Label reconstructs the display label for the column, reattaching the
// unit annotation when one is present.
func (c Column) Label() string {
	if c.Unit == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Unit)
}

// Value is one typed scalar field of a measurement row. Text preserves
// the source cell verbatim; Num/IsNum carry the coerced numeric form.
type Value struct {
	Text  string
	Num   float64
	IsNum bool
}

// Num returns a numeric value with no source text behind it.
func Num(f float64) Value {
	return Value{Num: f, IsNum: true}
}

// Str returns a plain text value.
func Str(s string) Value {
	return Value{Text: s}
}

// Coerce builds a value from a source cell, attempting numeric conversion.
func Coerce(cell string) Value {
	trimmed := strings.TrimSpace(cell)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Value{Text: cell, Num: f, IsNum: true}
	}
	return Value{Text: cell}
}

// String formats the value for TSV output. Coerced values keep their
// source text so round-tripping does not reformat the instrument's output.
func (v Value) String() string {
	if v.Text != "" {
		return strings.TrimSpace(v.Text)
	}
	if v.IsNum {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return ""
}

// Row is one measurement sample, field order matching Table.Columns.
type Row []Value

// Table is an ordered sequence of rows plus their header. Every row has
// exactly len(Columns) fields.
type Table struct {
	Columns []Column
	Rows    []Row
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ColumnValues returns the values of the named column in row order.
func (t *Table) ColumnValues(name string) ([]Value, error) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, errors.NewParsingError(fmt.Sprintf("column %q not present", name), nil)
	}
	values := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Append adds one row, enforcing the arity invariant. rowNum is the
// 1-based source position used in the error message.
func (t *Table) Append(rowNum int, row Row) error {
	if len(row) != len(t.Columns) {
		return errors.NewRowArityError(rowNum, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AppendTable concatenates another table's rows onto this one, preserving
// order. The tables must share the same column layout.
func (t *Table) AppendTable(other *Table) error {
	if len(other.Columns) != len(t.Columns) {
		return errors.NewMalformedHeaderError(
			fmt.Sprintf("cannot concatenate: %d columns vs %d", len(other.Columns), len(t.Columns)), nil)
	}
	for i, c := range other.Columns {
		if c.Name != t.Columns[i].Name {
			return errors.NewMalformedHeaderError(
				fmt.Sprintf("cannot concatenate: column %d is %q, expected %q", i, c.Name, t.Columns[i].Name), nil)
		}
	}
	t.Rows = append(t.Rows, other.Rows...)
	return nil
}

// AddColumn appends a new column with one value per existing row.
func (t *Table) AddColumn(col Column, values []Value) error {
	if len(values) != len(t.Rows) {
		return errors.NewParsingError(
			fmt.Sprintf("column %q has %d values for %d rows", col.Name, len(values), len(t.Rows)), nil)
	}
	t.Columns = append(t.Columns, col)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// DropColumn removes the named column from the header and every row.
// Dropping an absent column is a no-op.
func (t *Table) DropColumn(name string) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return
	}
	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	for i, row := range t.Rows {
		t.Rows[i] = append(row[:idx], row[idx+1:]...)
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append(Row(nil), row...)
	}
	return out
}

// Float returns the numeric value at (row, column index).
func (t *Table) Float(row, col int) (float64, error) {
	v := t.Rows[row][col]
	if !v.IsNum {
		return 0, errors.NewParsingError(
			fmt.Sprintf("row %d column %q is not numeric: %q", row+1, t.Columns[col].Name, v.Text), nil)
	}
	return v.Num, nil
}
