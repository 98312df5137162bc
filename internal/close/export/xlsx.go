package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/closeboard/internal/close"
	"github.com/odyssey-erp/closeboard/internal/domain"
)

// SheetName is the worksheet holding the report.
const SheetName = "Fechamentos"

// ContentTypeXLSX is the media type of WriteReportXLSX output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	headerFill     = "3498DB"
	completedFill  = "D4EDDA"
	inProgressFill = "FFEAA7"
	pendingFill    = "FFEEEE"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// WriteReportXLSX renders the rows into a single-sheet workbook: bold header,
// one fill colour per status and thin borders on every cell.
func WriteReportXLSX(w io.Writer, rows []close.ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "F", 15); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "G", "G", 30); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Border: thinBorder,
	})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	rowStyles := make(map[domain.Status]int, len(domain.Statuses))
	for status, color := range map[domain.Status]string{
		domain.StatusPending:    pendingFill,
		domain.StatusInProgress: inProgressFill,
		domain.StatusCompleted:  completedFill,
	} {
		id, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
			Border: thinBorder,
		})
		if err != nil {
			return fmt.Errorf("export: row style: %w", err)
		}
		rowStyles[status] = id
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := writeRow(f, 1, header, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		values := []any{
			row.CompanyCode,
			row.CompetencyLabel,
			row.StatusLabel,
			row.StartedLabel,
			row.CompletedLabel,
			elapsedCell(row),
			row.Notes,
		}
		if err := writeRow(f, i+2, values, rowStyles[row.Status]); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeRow(f *excelize.File, rowNum int, values []any, style int) error {
	first, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, first, &values); err != nil {
		return fmt.Errorf("export: row %d: %w", rowNum, err)
	}
	if err := f.SetCellStyle(SheetName, first, last, style); err != nil {
		return fmt.Errorf("export: style row %d: %w", rowNum, err)
	}
	return nil
}

// elapsedCell writes positive day counts as numbers.
func elapsedCell(row close.ReportRow) any {
	if row.ElapsedDays > 0 {
		return row.ElapsedDays
	}
	return row.ElapsedLabel
}
