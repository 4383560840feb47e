// Package export writes processed documents to xlsx workbooks.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"docextract/internal/processing"
	"docextract/internal/report"
)

// SheetName is the worksheet holding document rows.
const SheetName = "Documents"

var columnWidths = map[string]float64{
	"A": 28, // file
	"B": 18, // type
	"C": 10, // status
	"D": 22, // identifier
	"E": 32, // name
	"N": 48, // errors
	"O": 20, // processed at
}

// BuildWorkbook returns an xlsx file with one row per item below a bold,
// frozen header row.
func BuildWorkbook(items []processing.BatchItem, processedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	activeIndex, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(activeIndex)

	for i, h := range report.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(report.Headers), 1)
	_ = f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle)

	for r, row := range report.BuildRows(items, processedAt) {
		for c, v := range row.Values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(SheetName, cell, v)
		}
	}

	for col, width := range columnWidths {
		_ = f.SetColWidth(SheetName, col, col, width)
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	return f, nil
}

// WriteFile builds the workbook and saves it to path.
func WriteFile(path string, items []processing.BatchItem, processedAt time.Time) error {
	f, err := BuildWorkbook(items, processedAt)
	if err != nil {
		return err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
