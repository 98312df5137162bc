// Package export renders closing reports as CSV and XLSX documents.
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/odyssey-erp/closeboard/internal/close"
	"github.com/odyssey-erp/closeboard/internal/competency"
)

// Header is the column set shared by every report format.
var Header = []string{"Código", "Competência", "Status", "Data Início", "Data Conclusão", "Dias Decorridos", "Observações"}

// FileName returns the download name for a competency report, e.g.
// Fechamento_Jan-2024.xlsx.
func FileName(comp competency.YearMonth, ext string) string {
	return "Fechamento_" + strings.Replace(comp.Label(), "/", "-", 1) + "." + ext
}

// WriteReportCSV serialises report rows to CSV.
func WriteReportCSV(w io.Writer, rows []close.ReportRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(cells(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func cells(row close.ReportRow) []string {
	return []string{
		row.CompanyCode,
		row.CompetencyLabel,
		row.StatusLabel,
		row.StartedLabel,
		row.CompletedLabel,
		row.ElapsedLabel,
		row.Notes,
	}
}
