package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

// Export writes records to a new workbook at path, one row per record in the
// order given, under a bold header row
func Export(path string, records models.RecordSet) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(file.GetSheetName(0), DefaultSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeHeader(file, DefaultSheet); err != nil {
		return err
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(rowWidth)
	if err := file.SetCellStyle(DefaultSheet, "A1", last+"1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := file.SetColWidth(DefaultSheet, "A", "B", 16); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := encodeRow(r)
		if err := file.SetSheetRow(DefaultSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %s: %w", r.ID, err)
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
