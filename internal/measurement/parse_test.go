package measurement

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "compendcli/internal/errors"
)

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		cell string
		name string
		unit string
	}{
		{"Stroke (mm)", "Stroke", "mm"},
		{"Contact Potential (mV)", "Contact Potential", "mV"},
		{"Friction (N)", "Friction", "N"},
		{"Cycle", "Cycle", ""},
		{"  Load (N)  ", "Load", "N"},
		{"CoF", "CoF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			name, unit := SplitLabel(tt.cell)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.unit, unit)
		})
	}
}

func TestParseTSV(t *testing.T) {
	input := "Time (s)\tStroke (mm)\tNotes\n" +
		"0.0\t1.25\tok\n" +
		"0.1\t-1.25\tok\n"

	table, err := ParseTSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, table.Columns, 3)
	assert.Equal(t, Column{Name: "Time", Unit: "s", Numeric: true}, table.Columns[0])
	assert.Equal(t, Column{Name: "Stroke", Unit: "mm", Numeric: true}, table.Columns[1])
	assert.Equal(t, Column{Name: "Notes", Numeric: false}, table.Columns[2])

	require.Len(t, table.Rows, 2)
	assert.Equal(t, -1.25, table.Rows[1][1].Num)
	assert.Equal(t, "ok", table.Rows[1][2].Text)
}

func TestParseTSV_SkipsBlankLines(t *testing.T) {
	input := "A\tB\n1\t2\n\n3\t4\n"

	table, err := ParseTSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestParseTSV_RowArity(t *testing.T) {
	input := "A\tB\n1\t2\n1\t2\t3\n"

	_, err := ParseTSV(strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, apperrors.IsRowArity(err))
}

func TestParseTSV_Empty(t *testing.T) {
	_, err := ParseTSV(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedHeader(err))
}

func TestWriteTSV_RoundTrip(t *testing.T) {
	input := "Time (s)\tStroke (mm)\n0.0\t1.25\n0.1\t-1.25\n"

	table, err := ParseTSV(strings.NewReader(input))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteTSV(&buf))

	again, err := ParseTSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, again.Columns)
	assert.Equal(t, len(table.Rows), len(again.Rows))
	for i := range table.Rows {
		for j := range table.Rows[i] {
			assert.Equal(t, table.Rows[i][j].Num, again.Rows[i][j].Num)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	table := sampleTable()

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Time (s),Stroke (mm)", lines[0])
	assert.Equal(t, "0,1.5", lines[1])
}
