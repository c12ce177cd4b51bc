package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// BaseHeader is the header row of a synthetic TE 38 base file, padded
// with the tabs Compend puts at both ends of every table line.
const BaseHeader = "\tTime (s)\tThis Step\tStep Time (s)\tTest Time (s)\tFrequency (Hz)\tAmplitude (mm)\tLoad (N)\tFriction (N)\tCoF\tContact Potential (mV)\tTotal Cycles\tTemperature (C)\tStroke (mm)\t"

// SummaryRow is one tab-indented data line of a base file. Only the
// fields the digest reads back are parameters; the rest get plausible
// constants.
type SummaryRow struct {
	TestTime float64
	Load     float64
	Cycles   int
}

// Line renders the row in Compend's padded tab layout.
func (r SummaryRow) Line() string {
	cells := []string{
		"", // leading padding tab
		fmt.Sprintf("%.1f", r.TestTime),
		"1",
		fmt.Sprintf("%.1f", r.TestTime),
		fmt.Sprintf("%.1f", r.TestTime),
		"5",
		"2.0",
		fmt.Sprintf("%.1f", r.Load),
		"1.2",
		"0.012",
		"3.5",
		fmt.Sprintf("%d", r.Cycles),
		"25.0",
		"1.1",
		"", // trailing padding tab
	}
	return strings.Join(cells, "\t")
}

// BaseFileOption mutates the synthesized base file line list.
type BaseFileOption func(*baseFile)

type baseFile struct {
	preamble []string
	events   []string
}

// WithFastData appends a "Fast data in" marker line referencing the
// named fragment file after all rows written so far.
func WithFastData(fragmentName string) BaseFileOption {
	return func(b *baseFile) {
		b.events = append(b.events, fmt.Sprintf("Fast data in %s at 10:05:00", fragmentName))
	}
}

// WithRow appends one summary data row.
func WithRow(row SummaryRow) BaseFileOption {
	return func(b *baseFile) {
		b.events = append(b.events, row.Line())
	}
}

// WithRawLine appends a verbatim line, for malformed-input tests.
func WithRawLine(line string) BaseFileOption {
	return func(b *baseFile) {
		b.events = append(b.events, line)
	}
}

// BaseFileContent builds the text of a synthetic base test file:
// preamble noise, the start marker, the header, the event lines in
// order, and the finish marker.
func BaseFileContent(opts ...BaseFileOption) string {
	b := &baseFile{
		preamble: []string{
			"COMPEND 2000 TE 38",
			"Operator: test",
			"",
			"Test started at 10:00:00 on 01/02/26",
		},
	}
	for _, opt := range opts {
		opt(b)
	}

	lines := append([]string{}, b.preamble...)
	lines = append(lines, BaseHeader)
	lines = append(lines, b.events...)
	lines = append(lines, "Test finished at 11:00:00 on 01/02/26")
	return strings.Join(lines, "\n") + "\n"
}

// FragmentHeader is the header row of a synthetic high speed fragment.
const FragmentHeader = "HSD Stroke (mm)\tHSD Friction (N)\tHSD Force Input (N)\tHSD Contact Potential (mV)"

// FragmentContent builds the text of a high speed fragment file: the
// four preamble lines (one advertising the acquisition rate), the
// header, and one sample row per stroke/friction pair.
func FragmentContent(rate float64, stroke, friction []float64) string {
	lines := []string{
		"COMPEND 2000 HSD capture",
		fmt.Sprintf("High speed data captured at %g Hz", rate),
		fmt.Sprintf("Points: %d", len(stroke)),
		"Step: 1",
		FragmentHeader,
	}
	for i := range stroke {
		lines = append(lines, fmt.Sprintf("%g\t%g\t0.1\t2.0", stroke[i], friction[i]))
	}
	return strings.Join(lines, "\n") + "\n"
}

// TriangleStroke produces cycles of a reciprocating stroke signal:
// samplesPerHalf points rising from -amplitude to +amplitude, then the
// same number falling back, repeated.
func TriangleStroke(amplitude float64, samplesPerHalf, halves int) []float64 {
	var out []float64
	step := 2 * amplitude / float64(samplesPerHalf-1)
	for h := 0; h < halves; h++ {
		for i := 0; i < samplesPerHalf; i++ {
			v := -amplitude + float64(i)*step
			if h%2 == 1 {
				v = -v
			}
			out = append(out, v)
		}
	}
	return out
}

// WriteFile writes content into dir under name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

// WriteTestRun writes a base file plus fragments into dir and returns
// the base file's path. Fragment i gets suffix -h00(i+1).
func WriteTestRun(t *testing.T, dir, name, base string, fragments []string) string {
	t.Helper()
	basePath := WriteFile(t, dir, name+".TSV", base)
	for i, frag := range fragments {
		WriteFile(t, dir, fmt.Sprintf("%s-h%03d.TSV", name, i+1), frag)
	}
	return basePath
}
