package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestReadRowsCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"Day,Activity,Price,Notes",
		"",
		"2026-04-01,Louvre visit,25,book ahead",
		"2026-04-02,Seine cruise,,",
		"2026-04-03,Dinner at Chez Paul,60",
	}, "\n")

	rows, err := ReadRows("plan.csv", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0]["Activity"] != "Louvre visit" || rows[0]["Price"] != "25" {
		t.Errorf("row 0 = %v", rows[0])
	}
	// Blank and short cells still produce keys.
	if v, ok := rows[1]["Price"]; !ok || v != "" {
		t.Errorf("row 1 Price = %q, present %v; want empty string", v, ok)
	}
	if v, ok := rows[2]["Notes"]; !ok || v != "" {
		t.Errorf("row 2 Notes = %q, present %v; want empty string", v, ok)
	}
}

func TestReadRowsCSVBlankHeaderGetsPositionalName(t *testing.T) {
	csvData := "Day,,Price\n2026-04-01,Museum,25\n"

	rows, err := ReadRows("plan.csv", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if rows[0]["column_2"] != "Museum" {
		t.Errorf("row = %v, want column_2 key", rows[0])
	}
}

func TestReadRowsEmptyFile(t *testing.T) {
	if _, err := ReadRows("plan.csv", strings.NewReader("")); !errors.Is(err, ErrNoRows) {
		t.Errorf("empty file error = %v, want ErrNoRows", err)
	}
	if _, err := ReadRows("plan.csv", strings.NewReader("Day,Activity\n")); !errors.Is(err, ErrNoRows) {
		t.Errorf("header-only file error = %v, want ErrNoRows", err)
	}
}

func TestReadRowsUnsupportedExtension(t *testing.T) {
	if _, err := ReadRows("plan.numbers", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadRowsXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := [][]interface{}{
		{"Fecha", "Actividad", "Precio"},
		{"2026-05-10", "Sagrada Familia", 33},
		{"2026-05-11", "Tapas tour", "45"},
	}
	for r, row := range cells {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows, err := ReadRows("plan.xlsx", &buf)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["Actividad"] != "Sagrada Familia" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["Precio"] != "45" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2026-04-01", "2026-04-01", false},
		{"01/04/2026", "2026-04-01", false},
		{"April 1, 2026", "2026-04-01", false},
		{"1 Apr 2026", "2026-04-01", false},
		{"arrival on 2026-04-01 early", "2026-04-01", false},
		{"", "", true},
		{"sometime in spring", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tt.input, err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestCombineDateTime(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		clock string
		want  string
	}{
		{"iso with 24h clock", "2026-04-01", "14:30", "2026-04-01T14:30:00Z"},
		{"12h clock", "2026-04-01", "2:30 PM", "2026-04-01T14:30:00Z"},
		{"no clock defaults to midnight", "2026-04-01", "", "2026-04-01T00:00:00Z"},
		{"junk clock defaults to midnight", "2026-04-01", "mid-morning", "2026-04-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CombineDateTime(tt.date, tt.clock)
			if err != nil {
				t.Fatalf("CombineDateTime: %v", err)
			}
			if got.Format(time.RFC3339) != tt.want {
				t.Errorf("CombineDateTime(%q, %q) = %s, want %s", tt.date, tt.clock, got.Format(time.RFC3339), tt.want)
			}
		})
	}
}
