package digest

import (
	"fmt"
	"math"

	"compendcli/internal/errors"
	"compendcli/internal/measurement"
	"compendcli/internal/rig"
)

// DeriveCycles computes the cycle-count column for a table according to
// the rig's configured method, starting from initial. The result has one
// integer value per row and is monotonically non-decreasing.
func DeriveCycles(table *measurement.Table, spec rig.CycleSpec, initial float64) ([]float64, error) {
	switch spec.Method {
	case rig.CycleRotary:
		return rotaryCycles(table, spec, initial)
	case rig.CycleReciprocating:
		return reciprocatingCycles(table, spec, initial)
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unknown cycle method %q", spec.Method), nil)
	}
}

// rotaryCycles integrates rotational speed over elapsed time. Scale
// converts the integral into revolutions (1/60 for rpm against seconds);
// an unset scale means the units already agree.
func rotaryCycles(table *measurement.Table, spec rig.CycleSpec, initial float64) ([]float64, error) {
	timeIdx, ok := table.ColumnIndex(spec.TimeColumn)
	if !ok {
		return nil, errors.NewMalformedHeaderError(
			fmt.Sprintf("time column %q not present", spec.TimeColumn), nil)
	}
	speedIdx, ok := table.ColumnIndex(spec.SpeedColumn)
	if !ok {
		return nil, errors.NewMalformedHeaderError(
			fmt.Sprintf("speed column %q not present", spec.SpeedColumn), nil)
	}

	scale := spec.Scale
	if scale == 0 {
		scale = 1
	}

	cycles := make([]float64, len(table.Rows))
	revs := initial
	prevTime := math.NaN()
	for i := range table.Rows {
		t, err := table.Float(i, timeIdx)
		if err != nil {
			return nil, err
		}
		speed, err := table.Float(i, speedIdx)
		if err != nil {
			return nil, err
		}
		if !math.IsNaN(prevTime) && t > prevTime {
			revs += speed * (t - prevTime) * scale
		}
		prevTime = t
		cycles[i] = math.Floor(revs)
	}
	return cycles, nil
}

// reciprocatingCycles counts stroke reversals: a cycle completes each
// time the movement direction returns to the direction the run started
// with. Direction comes from the friction signal when it crosses zero,
// otherwise from the stroke deltas.
func reciprocatingCycles(table *measurement.Table, spec rig.CycleSpec, initial float64) ([]float64, error) {
	dirs, err := directions(table, spec)
	if err != nil {
		return nil, err
	}
	return assignCycles(dirs, initial), nil
}

// directions yields the per-row movement sign (+1/-1).
func directions(table *measurement.Table, spec rig.CycleSpec) ([]int, error) {
	if len(table.Rows) == 0 {
		return nil, nil
	}

	// The friction signal carries direction when the rig records signed
	// forces. All-positive friction means the sign was lost, so fall
	// back to stroke movement.
	if spec.FrictionColumn != "" {
		if idx, ok := table.ColumnIndex(spec.FrictionColumn); ok {
			signs, negative, err := columnSigns(table, idx)
			if err != nil {
				return nil, err
			}
			if negative {
				return signs, nil
			}
		}
	}

	strokeIdx, ok := table.ColumnIndex(spec.StrokeColumn)
	if !ok {
		return nil, errors.NewMalformedHeaderError(
			fmt.Sprintf("stroke column %q not present", spec.StrokeColumn), nil)
	}

	dirs := make([]int, len(table.Rows))
	prev, err := table.Float(0, strokeIdx)
	if err != nil {
		return nil, err
	}
	last := 1
	for i := 1; i < len(table.Rows); i++ {
		cur, err := table.Float(i, strokeIdx)
		if err != nil {
			return nil, err
		}
		// A flat delta keeps the previous direction going.
		if s := sign(cur - prev); s != 0 {
			last = s
		}
		dirs[i] = last
		prev = cur
	}
	// The first row has no delta behind it; it moves with the second.
	if len(dirs) > 1 {
		dirs[0] = dirs[1]
	} else {
		dirs[0] = 1
	}
	return dirs, nil
}

// columnSigns returns the sign of each value in the column and whether
// any value was negative.
func columnSigns(table *measurement.Table, idx int) ([]int, bool, error) {
	signs := make([]int, len(table.Rows))
	negative := false
	for i := range table.Rows {
		v, err := table.Float(i, idx)
		if err != nil {
			return nil, false, err
		}
		signs[i] = sign(v)
		if signs[i] < 0 {
			negative = true
		}
	}
	return signs, negative, nil
}

// assignCycles turns a direction sequence into cycle counts starting at
// initial. The count increments every time the direction flips back to
// the sequence's initial sign, including on the first row.
func assignCycles(dirs []int, initial float64) []float64 {
	if len(dirs) == 0 {
		return nil
	}

	cycles := make([]float64, len(dirs))
	cycle := initial
	initialSign := dirs[0]
	former := -initialSign
	for i, s := range dirs {
		if s == initialSign && former != s {
			cycle++
		}
		former = s
		cycles[i] = cycle
	}
	return cycles
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
