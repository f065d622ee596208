package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WorkbookWriter writes tables as sheets of a single XLSX file.
type WorkbookWriter struct {
	dir    string
	logger *slog.Logger
}

// NewWorkbookWriter creates a writer for workbooks under dir.
func NewWorkbookWriter(dir string, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{dir: dir, logger: logger}
}

// Write saves tables to <dir>/<name>, one sheet per table in order. The
// header row is bold and frozen.
func (w *WorkbookWriter) Write(name string, tables []Table) (string, error) {
	if len(tables) == 0 {
		return "", fmt.Errorf("no tables to write")
	}

	fullPath := name
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(w.dir, name)
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return "", fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return "", fmt.Errorf("failed to add sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t, headerStyle); err != nil {
			return "", fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	tmp := filepath.Join(dir, "."+filepath.Base(fullPath)+".tmp")
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move workbook into place: %w", err)
	}

	w.logger.Debug("workbook written",
		slog.String("path", fullPath),
		slog.Int("sheets", len(tables)))
	return fullPath, nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	sw, err := f.NewStreamWriter(t.Name)
	if err != nil {
		return err
	}

	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}
