// Package summarize reduces digested high-speed tables to one averaged
// row per cycle, the form wear analyses actually consume. Rows outside
// the wear track's central region are filtered out first so reversal
// artifacts at the stroke ends do not skew the averages.
package summarize
