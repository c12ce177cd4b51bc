// Package digest turns raw Compend 2000 output into analysis-ready
// tables.
//
// Two operations exist, mirroring the two kinds of files the software
// writes. DigestMainTestFile cleans a single base test file: it drops
// the preamble and marker lines, strips line padding, validates the
// header against the rig schema and coerces numeric columns.
// DigestHSDFiles digests a whole test run: it discovers the run's
// numbered high-speed fragments, normalizes each one, concatenates them
// in fragment order and appends derived time, load and cycle-count
// columns.
//
// The cycle formula is rig-specific and comes from the schema: TE 38
// style reciprocating rigs count stroke reversals, rotary rigs
// integrate rotational speed over elapsed time.
//
// Everything is a single-shot batch transform. Failures abort the whole
// digestion and no partial output is produced.
package digest
