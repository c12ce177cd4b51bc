package exporter

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"compendcli/internal/errors"
	"compendcli/internal/measurement"
)

// sheetName is the single worksheet digested tables export into.
const sheetName = "Data"

// writeXLSX renders the table as a workbook with typed numeric cells and
// writes it atomically.
func (w *Writer) writeXLSX(path string, table *measurement.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return errors.NewStorageError("creating worksheet", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.NewStorageError("removing default worksheet", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Label()
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.NewStorageError("writing header row", err)
	}

	for r, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for c, v := range row {
			if v.IsNum {
				cells[c] = v.Num
			} else {
				cells[c] = v.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return errors.NewStorageError(fmt.Sprintf("addressing row %d", r+2), err)
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return errors.NewStorageError(fmt.Sprintf("writing row %d", r+2), err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return errors.NewStorageError("rendering workbook", err)
	}
	if err := w.manager.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return errors.NewStorageError(fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
