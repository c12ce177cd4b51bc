package exporter

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"compendcli/internal/errors"
	"compendcli/internal/files"
	"compendcli/internal/measurement"
)

// Supported output formats.
const (
	FormatTSV  = "tsv"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// utf8BOM helps Excel recognize CSV output as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer persists digested tables. All writes are atomic: the table is
// rendered in memory and moved into place in one rename, so an aborted
// digest leaves no partial output file behind.
type Writer struct {
	manager *files.Manager
	logger  *slog.Logger

	// BOMPrefix prepends a UTF-8 BOM to CSV output for Excel compatibility.
	BOMPrefix bool
}

// NewWriter creates a writer whose relative paths resolve under outputDir.
func NewWriter(outputDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{manager: files.NewManager(outputDir), logger: logger}
}

// Write persists the table in the given format.
func (w *Writer) Write(path, format string, table *measurement.Table) error {
	w.logger.Info("writing digested table",
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("rows", len(table.Rows)))

	switch strings.ToLower(format) {
	case FormatTSV, "":
		return w.writeDelimited(path, table, false)
	case FormatCSV:
		return w.writeDelimited(path, table, true)
	case FormatXLSX:
		return w.writeXLSX(path, table)
	default:
		return errors.NewConfigError(fmt.Sprintf("unsupported output format %q", format), nil)
	}
}

// writeDelimited renders the table as TSV or CSV and writes it atomically.
func (w *Writer) writeDelimited(path string, table *measurement.Table, comma bool) error {
	var buf bytes.Buffer
	var err error
	if comma {
		if w.BOMPrefix {
			buf.Write(utf8BOM)
		}
		err = table.WriteCSV(&buf)
	} else {
		err = table.WriteTSV(&buf)
	}
	if err != nil {
		return err
	}
	if err := w.manager.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return errors.NewStorageError(fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
