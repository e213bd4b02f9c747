package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	rpdf "rsc.io/pdf"
)

// ErrNoRows is returned when a file parses cleanly but holds no data rows.
var ErrNoRows = errors.New("file contains no data rows")

// ErrUnsupportedFormat is returned for file extensions the importer does
// not understand.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ReadRows loads a spreadsheet-like file into rows keyed by column header.
// The format is chosen by file extension: .csv, .xlsx/.xlsm, or .pdf.
// Blank cells come through as empty strings, never as missing keys.
func ReadRows(filename string, r io.Reader) ([]map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(data)
	case ".xlsx", ".xlsm":
		return readXLSX(data)
	case ".pdf":
		return readPDF(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func readCSV(data []byte) ([]map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are common in hand-made sheets
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return recordsToRows(records)
}

func readXLSX(data []byte) ([]map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoRows
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	return recordsToRows(records)
}

// readPDF turns each text line of a PDF itinerary into a single-column
// row, which the normalizer treats like free-form spreadsheet cells.
func readPDF(data []byte) (rows []map[string]string, err error) {
	// rsc.io/pdf panics on malformed files.
	defer func() {
		if recovered := recover(); recovered != nil {
			rows = nil
			err = fmt.Errorf("pdf parser panic: %v", recovered)
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	for _, line := range strings.Split(builder.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, map[string]string{"text": line})
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// recordsToRows keys each record by the header row. Header cells that are
// blank get positional names so no column is dropped.
func recordsToRows(records [][]string) ([]map[string]string, error) {
	var headers []string
	rows := make([]map[string]string, 0, len(records))

	for _, record := range records {
		if isBlankRecord(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, cell := range record {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					cell = fmt.Sprintf("column_%d", i+1)
				}
				headers[i] = cell
			}
			continue
		}

		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
