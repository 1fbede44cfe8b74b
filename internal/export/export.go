// Package export renders built tables as downloadable files. CSV text
// itself comes from the flatten package; this package adds XLSX rendering
// and the HTTP attachment plumbing shared by both formats.
package export

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lodgeops/propex/internal/flatten"
)

// Filename builds the attachment name: <prefix>_<propertyID>_<timestamp>.<ext>.
func Filename(prefix, propertyID, ext string) string {
	ts := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", prefix, propertyID, ts, ext)
}

// WriteCSV writes a table as a CSV attachment.
func WriteCSV(w http.ResponseWriter, t flatten.Table, filename string) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%s`, filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	_, err := w.Write([]byte(flatten.RenderCSV(t)))
	return err
}

// WriteXLSX writes a table as an XLSX attachment. Scalar cell values keep
// their native types so numbers stay numbers in the spreadsheet; anything
// else is stringified the same way the CSV renderer does.
func WriteXLSX(w http.ResponseWriter, t flatten.Table, filename string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, row := range t.Rows {
		cells := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = cellValue(row[col])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%s`, filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case string, float64, bool, int:
		return v
	default:
		return flatten.Stringify(v)
	}
}
