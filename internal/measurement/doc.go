// Package measurement holds the in-memory table model shared by all
// digest operations: an ordered sequence of typed rows plus a header
// that maps column names to positions and units.
//
// Tables are read once from a TSV stream, transformed functionally, and
// written back out. The single structural invariant is that every row
// carries exactly as many fields as the header declares columns; Append
// and ParseTSV enforce it and report violations as row-arity errors.
package measurement
