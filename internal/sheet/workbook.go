// Package sheet stores records as spreadsheet rows in an .xlsx workbook.
//
// Row layout, one record per row, with an optional header row whose first
// cell is "ID":
//
//	ID, Date, SUR_O, SUR_D, KDC_O, KDC_D, CKU_O, CKU_D, EMB_O, EMB_D, LMN_O, LMN_D, Total_O, Total_D
package sheet

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

// DefaultSheet is the sheet name used for new workbooks
const DefaultSheet = "Dispatch"

// Column count of a full row
const rowWidth = 2 + 2*5 + 2

// Header returns the header row
func Header() []string {
	h := make([]string, 0, rowWidth)
	h = append(h, "ID", "Date")
	for _, u := range models.Units {
		h = append(h, string(u)+"_O", string(u)+"_D")
	}
	return append(h, "Total_O", "Total_D")
}

// Workbook is an .xlsx file holding the row store. Rows are read from and
// written to the first sheet. All methods are safe for concurrent use.
type Workbook struct {
	mu    sync.Mutex
	path  string
	file  *excelize.File
	sheet string
}

// Open loads the workbook at path, creating it with a header row if it does
// not exist
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return create(path)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	sheet := file.GetSheetName(0)
	if sheet == "" {
		_ = file.Close()
		return nil, fmt.Errorf("opening workbook: no worksheet found in %s", path)
	}
	return &Workbook{path: path, file: file, sheet: sheet}, nil
}

func create(path string) (*Workbook, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating workbook directory: %w", err)
		}
	}

	file := excelize.NewFile()
	if err := file.SetSheetName(file.GetSheetName(0), DefaultSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeHeader(file, DefaultSheet); err != nil {
		return nil, err
	}
	if err := file.SaveAs(path); err != nil {
		return nil, fmt.Errorf("saving workbook: %w", err)
	}
	return &Workbook{path: path, file: file, sheet: DefaultSheet}, nil
}

func writeHeader(file *excelize.File, sheet string) error {
	header := Header()
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := file.SetSheetRow(sheet, "A1", &cells); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Path returns the workbook file path
func (w *Workbook) Path() string {
	return w.path
}

// Rows decodes every data row, in sheet order
func (w *Workbook) Rows() (models.RecordSet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.rawRows()
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	records := models.RecordSet{}
	for _, row := range rows {
		if !isDataRow(row) {
			continue
		}
		records = append(records, decodeRow(row))
	}
	return records, nil
}

// Upsert writes a record over the row with the same id, or as a new last
// row. A resent save therefore never duplicates a row.
func (w *Workbook) Upsert(r models.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.rawRows()
	if err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}
	target := len(rows) + 1
	for i, row := range rows {
		if len(row) > 0 && cellID(row[0]) == r.ID {
			target = i + 1
			break
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, target)
	if err != nil {
		return err
	}

	row := encodeRow(r)
	if err := w.file.SetSheetRow(w.sheet, cell, &row); err != nil {
		return fmt.Errorf("writing row %s: %w", r.ID, err)
	}
	return w.save()
}

// Delete removes the first row whose ID cell matches id exactly. It reports
// whether a row was found.
func (w *Workbook) Delete(id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.rawRows()
	if err != nil {
		return false, fmt.Errorf("reading rows: %w", err)
	}

	for i, row := range rows {
		if len(row) == 0 || cellID(row[0]) != id {
			continue
		}
		if err := w.file.RemoveRow(w.sheet, i+1); err != nil {
			return false, fmt.Errorf("removing row %d: %w", i+1, err)
		}
		return true, w.save()
	}
	return false, nil
}

// rawRows reads cell values without number formats, so date-formatted cells
// come back as serials rather than display text like "3/1/25"
func (w *Workbook) rawRows() ([][]string, error) {
	return w.file.GetRows(w.sheet, excelize.Options{RawCellValue: true})
}

func (w *Workbook) save() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// Close releases the workbook
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func isDataRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.TrimSpace(row[0])
	return first != "" && first != "ID"
}

func encodeRow(r models.Record) []any {
	row := make([]any, 0, rowWidth)
	row = append(row, r.ID, r.Date)
	for _, u := range models.Units {
		v := r.Unit(u)
		row = append(row, v.OrderValue, v.DispatchValue)
	}
	return append(row, r.TotalOrder, r.TotalDispatch)
}

// decodeRow reads a row the way the hosted store does: totals are taken as
// stored, short rows read as zeros
func decodeRow(row []string) models.Record {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	r := models.Record{
		ID:            cellID(cell(0)),
		Date:          cellDate(cell(1)),
		Units:         make(map[models.UnitKey]models.UnitValue, len(models.Units)),
		TotalOrder:    cellAmount(cell(12)),
		TotalDispatch: cellAmount(cell(13)),
	}
	col := 2
	for _, u := range models.Units {
		r.Units[u] = models.UnitValue{
			OrderValue:    cellAmount(cell(col)),
			DispatchValue: cellAmount(cell(col + 1)),
		}
		col += 2
	}
	return r
}

func cellAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// cellID undoes the exponent notation some writers use for numeric ids
func cellID(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cellDate accepts YYYY-MM-DD text, a text timestamp or an Excel date serial
func cellDate(s string) string {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(models.DateLayout)
			}
		}
		return s
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return s
	}
	return t.Format(models.DateLayout)
}
