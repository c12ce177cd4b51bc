package digest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "compendcli/internal/errors"
	"compendcli/internal/rig"
	"compendcli/internal/shared/testutil"
)

// twoFragmentRun writes a base file with two fast-data markers and two
// matching fragments, and returns the base path.
func twoFragmentRun(t *testing.T, dir string) string {
	t.Helper()

	base := testutil.BaseFileContent(
		testutil.WithRow(testutil.SummaryRow{TestTime: 50, Load: 30, Cycles: 100}),
		testutil.WithFastData("run-h001.TSV"),
		testutil.WithRow(testutil.SummaryRow{TestTime: 80, Load: 30, Cycles: 200}),
		testutil.WithFastData("run-h002.TSV"),
	)

	stroke := testutil.TriangleStroke(1.0, 5, 4)
	friction := make([]float64, len(stroke))
	for i := range friction {
		friction[i] = 0.5
	}

	frag1 := testutil.FragmentContent(10, stroke, friction)
	frag2 := testutil.FragmentContent(10, stroke, friction)
	return testutil.WriteTestRun(t, dir, "run", base, []string{frag1, frag2})
}

func TestDigestHSDFiles(t *testing.T) {
	basePath := twoFragmentRun(t, t.TempDir())

	table, err := DigestTE38HSDFiles(context.Background(), basePath)
	require.NoError(t, err)

	// 20 samples per fragment, order preserving concatenation
	require.Len(t, table.Rows, 40)

	for _, name := range []string{"HSD Stroke", "HSD Friction", "HSD Time", "HSD Load", "HSD Cycle"} {
		_, ok := table.ColumnIndex(name)
		assert.True(t, ok, "column %q missing from digest", name)
	}

	timeIdx, _ := table.ColumnIndex("HSD Time")
	loadIdx, _ := table.ColumnIndex("HSD Load")
	cycleIdx, _ := table.ColumnIndex("HSD Cycle")

	// fragment one starts at its marker's test time, 10 Hz for 20 samples
	assert.InDelta(t, 50.0, table.Rows[0][timeIdx].Num, 1e-9)
	assert.InDelta(t, 52.0, table.Rows[19][timeIdx].Num, 1e-9)
	// fragment two starts at its own marker
	assert.InDelta(t, 80.0, table.Rows[20][timeIdx].Num, 1e-9)

	assert.Equal(t, 30.0, table.Rows[0][loadIdx].Num)

	// cycle counts seed from the base file's running totals
	assert.Equal(t, 101.0, table.Rows[0][cycleIdx].Num)
	assert.GreaterOrEqual(t, table.Rows[20][cycleIdx].Num, 200.0)

	cycles := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		cycles[i] = row[cycleIdx].Num
	}
	assertNonDecreasing(t, cycles)
}

func TestDigestHSDFiles_OrderPreserved(t *testing.T) {
	dir := t.TempDir()

	base := testutil.BaseFileContent(
		testutil.WithRow(testutil.SummaryRow{TestTime: 1, Load: 10, Cycles: 1}),
		testutil.WithFastData("run-h001.TSV"),
		testutil.WithFastData("run-h002.TSV"),
	)
	// distinguishable contact potential values per fragment row
	frag1 := testutil.FragmentContent(10, []float64{1, 2, 3}, []float64{0.1, 0.2, 0.3})
	frag2 := testutil.FragmentContent(10, []float64{4, 5}, []float64{0.4, 0.5})
	basePath := testutil.WriteTestRun(t, dir, "run", base, []string{frag1, frag2})

	table, err := DigestTE38HSDFiles(context.Background(), basePath)
	require.NoError(t, err)
	require.Len(t, table.Rows, 5)

	frictionIdx, _ := table.ColumnIndex("HSD Friction")
	var got []float64
	for _, row := range table.Rows {
		got = append(got, row[frictionIdx].Num)
	}
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5}, got)
}

func TestDigestHSDFiles_MarkersListedOutOfOrder(t *testing.T) {
	dir := t.TempDir()

	// the base file names h002's capture before h001's; pairing goes by
	// the file name in the marker line, not by position
	base := testutil.BaseFileContent(
		testutil.WithRow(testutil.SummaryRow{TestTime: 80, Load: 40, Cycles: 200}),
		testutil.WithFastData("run-h002.TSV"),
		testutil.WithRow(testutil.SummaryRow{TestTime: 50, Load: 30, Cycles: 100}),
		testutil.WithFastData("run-h001.TSV"),
	)
	frag := testutil.FragmentContent(10, []float64{-1, 0, 1}, []float64{0.5, 0.5, 0.5})
	basePath := testutil.WriteTestRun(t, dir, "run", base, []string{frag, frag})

	table, err := DigestTE38HSDFiles(context.Background(), basePath)
	require.NoError(t, err)
	require.Len(t, table.Rows, 6)

	timeIdx, _ := table.ColumnIndex("HSD Time")
	loadIdx, _ := table.ColumnIndex("HSD Load")
	cycleIdx, _ := table.ColumnIndex("HSD Cycle")

	// fragment h001 seeds from its own marker despite being listed second
	assert.InDelta(t, 50.0, table.Rows[0][timeIdx].Num, 1e-9)
	assert.Equal(t, 30.0, table.Rows[0][loadIdx].Num)
	assert.Equal(t, 101.0, table.Rows[0][cycleIdx].Num)

	assert.InDelta(t, 80.0, table.Rows[3][timeIdx].Num, 1e-9)
	assert.Equal(t, 40.0, table.Rows[3][loadIdx].Num)
	assert.Equal(t, 201.0, table.Rows[3][cycleIdx].Num)
}

func TestDigestHSDFiles_NoRateWarns(t *testing.T) {
	dir := t.TempDir()

	base := testutil.BaseFileContent(
		testutil.WithRow(testutil.SummaryRow{TestTime: 5, Load: 10, Cycles: 1}),
		testutil.WithFastData("run-h001.TSV"),
	)
	// preamble without an acquisition rate line
	frag := strings.Join([]string{
		"COMPEND 2000 capture",
		"Operator: test",
		"Points: 3",
		"Step: 1",
		testutil.FragmentHeader,
		"-1\t0.5\t0.1\t2.0",
		"0\t0.5\t0.1\t2.0",
		"1\t0.5\t0.1\t2.0",
	}, "\n") + "\n"
	basePath := testutil.WriteTestRun(t, dir, "run", base, []string{frag})

	logger, buf := testutil.NewCaptureLogger()
	d := NewDigester(rig.TE38(), logger)

	table, err := d.DigestHSDFiles(context.Background(), basePath)
	require.NoError(t, err)

	assert.True(t, buf.HasMessage("no acquisition rate"), "expected the 1 Hz fallback warning")
	assert.True(t, buf.HasAttr("rig", "te38"))

	// the time column degrades to 1 Hz: 3 samples spanning one second each
	timeIdx, _ := table.ColumnIndex("HSD Time")
	assert.InDelta(t, 5.0, table.Rows[0][timeIdx].Num, 1e-9)
	assert.InDelta(t, 8.0, table.Rows[2][timeIdx].Num, 1e-9)
}

func TestDigestHSDFiles_NoFragments(t *testing.T) {
	dir := t.TempDir()
	base := testutil.BaseFileContent(
		testutil.WithRow(testutil.SummaryRow{TestTime: 1, Load: 10, Cycles: 1}),
	)
	basePath := testutil.WriteFile(t, dir, "solo.TSV", base)

	digested, err := DigestTE38HSDFiles(context.Background(), basePath)
	require.NoError(t, err)

	normalized, err := DigestTE38MainTestFile(context.Background(), basePath)
	require.NoError(t, err)

	// a run without high speed data digests to the normalized base file
	assert.Equal(t, normalized, digested)
}

func TestDigestHSDFiles_MissingBase(t *testing.T) {
	dir := t.TempDir()
	// fragments alone do not make a run
	testutil.WriteFile(t, dir, "run-h001.TSV", testutil.FragmentContent(10, []float64{1}, []float64{1}))

	_, err := DigestTE38HSDFiles(context.Background(), filepath.Join(dir, "run.TSV"))
	require.Error(t, err)
	assert.True(t, apperrors.IsMissingFile(err))
}

func TestDigestHSDFiles_FragmentGap(t *testing.T) {
	dir := t.TempDir()
	base := testutil.BaseFileContent(
		testutil.WithRow(testutil.SummaryRow{TestTime: 1, Load: 10, Cycles: 1}),
	)
	testutil.WriteFile(t, dir, "run.TSV", base)
	frag := testutil.FragmentContent(10, []float64{1}, []float64{1})
	testutil.WriteFile(t, dir, "run-h001.TSV", frag)
	testutil.WriteFile(t, dir, "run-h002.TSV", frag)
	testutil.WriteFile(t, dir, "run-h004.TSV", frag)

	_, err := DigestTE38HSDFiles(context.Background(), filepath.Join(dir, "run.TSV"))
	require.Error(t, err)
	assert.True(t, apperrors.IsFragmentGap(err))
}

func TestDigestHSDFiles_Cancelled(t *testing.T) {
	basePath := twoFragmentRun(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DigestTE38HSDFiles(ctx, basePath)
	assert.Error(t, err)
}

func TestCenterStroke(t *testing.T) {
	table := strokeTable([]float64{0, 1, 2, 3, 4}, constant(1, 5))

	require.NoError(t, centerStroke(table, "HSD Stroke"))

	idx, _ := table.ColumnIndex("HSD Stroke")
	assert.Equal(t, -2.0, table.Rows[0][idx].Num)
	assert.Equal(t, 2.0, table.Rows[4][idx].Num)
}

func TestLinspace(t *testing.T) {
	values := linspace(50, 52, 5)
	require.Len(t, values, 5)
	assert.Equal(t, 50.0, values[0].Num)
	assert.Equal(t, 52.0, values[4].Num)
	assert.InDelta(t, 50.5, values[1].Num, 1e-9)

	single := linspace(7, 9, 1)
	require.Len(t, single, 1)
	assert.Equal(t, 7.0, single[0].Num)

	assert.Empty(t, linspace(0, 1, 0))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "run_HSD.TSV", OutputName("run", "tsv"))
	assert.Equal(t, "run_HSD.csv", OutputName("run", "csv"))
	assert.Equal(t, "run_HSD.xlsx", OutputName("run", "xlsx"))
	assert.Equal(t, "run_HSD.TSV", OutputName("run", ""))
}

func TestNewDigester_Schema(t *testing.T) {
	d := NewDigester(rig.TE38(), nil)
	assert.Equal(t, "te38", d.Schema().Name)
}
