package export

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/lodgeops/propex/internal/flatten"
)

func TestFilename(t *testing.T) {
	name := Filename("sources", "6000", "csv")
	if !strings.HasPrefix(name, "sources_6000_") || !strings.HasSuffix(name, ".csv") {
		t.Errorf("Filename() = %q", name)
	}
}

func TestWriteCSV(t *testing.T) {
	table := flatten.Table{
		Columns: []string{"a"},
		Rows:    []flatten.Row{{"a": "1"}},
	}

	rec := httptest.NewRecorder()
	if err := WriteCSV(rec, table, "sources_6000_x.csv"); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "sources_6000_x.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got, want := rec.Body.String(), "\"a\"\n\"1\""; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestWriteXLSX_Roundtrip(t *testing.T) {
	table := flatten.Table{
		Columns: []string{"name", "amount", "rules"},
		Rows: []flatten.Row{
			{"name": "VAT", "amount": float64(10), "rules": map[string]any{"min": float64(2)}},
			{"name": "City", "amount": float64(3.5), "rules": ""},
		},
	}

	rec := httptest.NewRecorder()
	if err := WriteXLSX(rec, table, "taxes_fees_6000_x.xlsx"); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d sheet rows, want header + 2", len(rows))
	}
	if rows[0][0] != "name" || rows[0][2] != "rules" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][0] != "VAT" || rows[1][1] != "10" {
		t.Errorf("data row = %v", rows[1])
	}
	// Nested values land as their JSON text.
	if rows[1][2] != `{"min":2}` {
		t.Errorf("stringified cell = %q", rows[1][2])
	}
}
