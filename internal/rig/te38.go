package rig

// DefaultLengthFactor keeps per-cycle summaries to the central tenth of
// the wear track.
const DefaultLengthFactor = 0.1

// Summary field keys shared by all rigs.
const (
	SummaryTime   = "time"
	SummaryLoad   = "load"
	SummaryCycles = "cycles"
)

// TE38 returns the schema for the TE 38 reciprocating rig as driven by
// Compend 2000. Column layout and the summary-line positions follow the
// files the software writes; the cycle method counts stroke reversals.
func TE38() Schema {
	return Schema{
		Name: "te38",
		Columns: []ColumnSpec{
			{Name: "Time", Unit: "s", Numeric: true, Required: true},
			{Name: "This Step", Numeric: true},
			{Name: "Step Time", Unit: "s", Numeric: true},
			{Name: "Test Time", Unit: "s", Numeric: true, Required: true},
			{Name: "Frequency", Unit: "Hz", Numeric: true},
			{Name: "Amplitude", Unit: "mm", Numeric: true},
			{Name: "Load", Unit: "N", Numeric: true, Required: true},
			{Name: "Friction", Unit: "N", Numeric: true},
			{Name: "CoF", Numeric: true},
			{Name: "Contact Potential", Unit: "mV", Numeric: true},
			{Name: "Total Cycles", Numeric: true, Required: true},
			{Name: "Temperature", Unit: "C", Numeric: true},
			{Name: "Stroke", Unit: "mm", Numeric: true, Required: true},
		},
		HSDColumns: []ColumnSpec{
			{Name: "HSD Stroke", Unit: "mm", Numeric: true, Required: true},
			{Name: "HSD Friction", Unit: "N", Numeric: true, Required: true},
			{Name: "HSD Force Input", Unit: "N", Numeric: true},
			{Name: "HSD Contact Potential", Unit: "mV", Numeric: true},
		},
		Cycle: CycleSpec{
			Method:         CycleReciprocating,
			TimeColumn:     "HSD Time",
			StrokeColumn:   "HSD Stroke",
			FrictionColumn: "HSD Friction",
		},
		// Positions inside the raw tab-indented summary lines, counted
		// before padding is stripped.
		Summary: map[string]SummaryField{
			SummaryTime:   {Label: "Test Time", Index: 4},
			SummaryLoad:   {Label: "Load (N)", Index: 7},
			SummaryCycles: {Label: "Total Cycles", Index: 11, Integer: true},
		},
		LengthFactor: DefaultLengthFactor,
	}
}

func init() {
	if err := Register(TE38()); err != nil {
		panic(err)
	}
}
