/*
Package sheet reads rectangular tables out of spreadsheet exports.

PURPOSE:
  Rosters and hours catalogs arrive either as xlsx workbooks or as CSV
  exports of the same sheet. Both are reduced here to [][]string so that
  the roster and catalog packages never care which one they got.

CSV HANDLING:
  - UTF-8 BOM is stripped
  - Variable field counts are allowed (short rows are common in exports)
  - Lazy quotes are accepted

XLSX HANDLING:
  - Cell values are read as displayed (formatted), via excelize GetRows
  - Blank sheet name selects the first sheet

SEE ALSO:
  - roster/matrix.go: Roster matrix built from these rows
  - catalog/sources.go: Catalog row sources
*/
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/roster-ledger/generic"
)

// Format identifies a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// xlsx/zip local file header magic
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// FormatOf picks a format from a file name, falling back to content sniffing.
func FormatOf(name string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	if bytes.HasPrefix(head, zipMagic) {
		return FormatXLSX, nil
	}
	if len(head) > 0 {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", generic.ErrUnsupportedFormat, name)
}

// Read parses r according to format. sheetName only applies to xlsx.
func Read(r io.Reader, format Format, sheetName string) ([][]string, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r, sheetName)
	default:
		return nil, fmt.Errorf("%w: %s", generic.ErrUnsupportedFormat, format)
	}
}

// ReadFile opens path and reads it with the format implied by its name.
func ReadFile(path, sheetName string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format, err := FormatOf(path, data)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data), format, sheetName)
}

// ReadCSV reads every record. An empty input yields no rows and no error.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, bomUTF8)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// ReadXLSX reads one sheet of a workbook.
func ReadXLSX(r io.Reader, sheetName string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

// Cell returns row[i] trimmed, or "" when the row is short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
