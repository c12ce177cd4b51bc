// Package exporter persists digested tables as TSV, CSV or XLSX files.
// Every write is all-or-nothing: the rendered output moves into place
// with a single rename.
package exporter
