package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is used when WriteXLSX is given no sheet name
const DefaultSheet = "Sheet1"

// WriteXLSX saves a header row and data rows as a single-sheet workbook.
// Cell values keep their Go types so numbers stay numeric in the sheet.
func WriteXLSX(filePath, sheet string, headers []string, rows [][]interface{}) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", filePath, err)
	}
	return nil
}
