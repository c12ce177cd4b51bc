// Package files provides discovery of test-run file families and the
// output-side file operations of a digest.
//
// Discovery follows the Compend 2000 naming convention: a test named
// "run" lives in run.TSV plus optional high-speed fragments run-h001.TSV,
// run-h002.TSV and so on. Fragment numbering must be contiguous from 1;
// FindTestRun reports a gap as a structural error rather than silently
// digesting an incomplete run.
package files
