package sheet_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/sheet"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name string
		file string
		head []byte
		want sheet.Format
	}{
		{name: "csv extension", file: "roster.CSV", want: sheet.FormatCSV},
		{name: "txt extension", file: "roster.txt", want: sheet.FormatCSV},
		{name: "xlsx extension", file: "roster.xlsx", want: sheet.FormatXLSX},
		{name: "zip magic", file: "upload", head: []byte{'P', 'K', 0x03, 0x04, 0x14}, want: sheet.FormatXLSX},
		{name: "sniffed text", file: "upload", head: []byte("a,b\n"), want: sheet.FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sheet.FormatOf(tt.file, tt.head)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := sheet.FormatOf("upload.bin", nil)
	assert.ErrorIs(t, err, generic.ErrUnsupportedFormat)
}

func TestRead_UnknownFormat(t *testing.T) {
	_, err := sheet.Read(strings.NewReader("x"), "ods", "")
	assert.ErrorIs(t, err, generic.ErrUnsupportedFormat)
}

func TestReadCSV_RaggedRowsAndBOM(t *testing.T) {
	rows, err := sheet.ReadCSV(strings.NewReader("\ufeffCode,Hours\nLD,12.5,extra\nE\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Code", "Hours"}, {"LD", "12.5", "extra"}, {"E"}}, rows)

	rows, err = sheet.ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadXLSX_NamedAndFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Hours")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"first"}))
	require.NoError(t, f.SetSheetRow("Hours", "A1", &[]any{"Code", "Hours"}))
	require.NoError(t, f.SetSheetRow("Hours", "A2", &[]any{"LD", "12.5"}))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)

	rows, err := sheet.ReadXLSX(bytes.NewReader(buf.Bytes()), "Hours")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Code", "Hours"}, {"LD", "12.5"}}, rows)

	rows, err = sheet.ReadXLSX(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"first"}}, rows)

	_, err = sheet.ReadXLSX(bytes.NewReader(buf.Bytes()), "Missing")
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hours.csv")
	require.NoError(t, os.WriteFile(path, []byte("Code,Hours\nN,12.5\n"), 0644))

	rows, err := sheet.ReadFile(path, "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = sheet.ReadFile(filepath.Join(t.TempDir(), "absent.csv"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCell(t *testing.T) {
	row := []string{" LD ", "E"}
	assert.Equal(t, "LD", sheet.Cell(row, 0))
	assert.Equal(t, "", sheet.Cell(row, 5))
	assert.Equal(t, "", sheet.Cell(row, -1))
}
