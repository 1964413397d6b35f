/*
Package roster turns a monthly roster matrix into per-ward staff records.

PURPOSE:
  A roster matrix is the sheet ward managers fill in: one row per staff
  member, identity columns on the left, one column per date. This package
  reads that sheet, picks out the rows of one ward, and folds each row's
  classified cells into a StaffRecord while the run's ledgers collect the
  redeployment, hours-owed and paid-back entries.

MATRIX SHAPE:
  Header: employee id | department | role | name | <date> | <date> | ...
  - Identity columns are found by header name, else by position 0-3
  - Any other header that parses as a date is a date column
  - Headers that are neither (totals, notes) are ignored

FATAL SHAPES (abort the ward, report zero staff):
  - no data rows
  - no date columns

SEE ALSO:
  - ward.go:      Department matching and synonyms
  - record.go:    StaffRecord and its derived fields
  - aggregate.go: Staff Aggregator and ward processing
*/
package roster

import (
	"io"
	"sort"
	"strings"

	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/sheet"
)

// =============================================================================
// MATRIX
// =============================================================================

// Matrix is a roster sheet split into its header and data rows.
type Matrix struct {
	Header []string
	Rows   [][]string
}

// NewMatrix takes the first non-blank row as the header. Fully blank rows
// after it are dropped.
func NewMatrix(rows [][]string) Matrix {
	var m Matrix
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if m.Header == nil {
			m.Header = row
			continue
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

// ReadMatrix reads a roster export in the given format.
func ReadMatrix(r io.Reader, format sheet.Format, sheetName string) (Matrix, error) {
	rows, err := sheet.Read(r, format, sheetName)
	if err != nil {
		return Matrix{}, err
	}
	return NewMatrix(rows), nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// LAYOUT
// =============================================================================

// DateColumn is a header cell that parsed as a date.
type DateColumn struct {
	Index int
	Date  generic.TimePoint
}

// Layout locates the identity and date columns of a matrix.
type Layout struct {
	ID         int
	Department int
	Role       int
	Name       int
	Dates      []DateColumn // ascending by date
}

type identityField int

const (
	fieldID identityField = iota
	fieldDepartment
	fieldRole
	fieldName
)

var headerAliases = map[identityField][]string{
	fieldID:         {"EMPLOYEEID", "EMPLOYEENUMBER", "EMPLOYEENO", "STAFFID", "EMPID", "ID", "ASSIGNMENTNUMBER"},
	fieldDepartment: {"DEPARTMENT", "DEPT", "WARD", "UNIT"},
	fieldRole:       {"ROLE", "JOBTITLE", "POSITION", "GRADE", "BAND"},
	fieldName:       {"NAME", "STAFFNAME", "EMPLOYEENAME", "FULLNAME"},
}

// Layout inspects the header. It fails when the matrix has no data rows or
// no date columns.
func (m Matrix) Layout() (Layout, error) {
	if len(m.Rows) == 0 {
		return Layout{}, generic.ErrNoDataRows
	}

	found := map[identityField]int{}
	used := map[int]bool{}
	for i, h := range m.Header {
		key := generic.CompactKey(h)
		for field, aliases := range headerAliases {
			if _, done := found[field]; done {
				continue
			}
			if contains(aliases, key) {
				found[field] = i
				used[i] = true
				break
			}
		}
	}

	var dates []DateColumn
	for i, h := range m.Header {
		if used[i] {
			continue
		}
		if d, ok := generic.ParseRosterDate(h); ok {
			dates = append(dates, DateColumn{Index: i, Date: d})
		}
	}
	if len(dates) == 0 {
		return Layout{}, generic.ErrNoDateColumns
	}
	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].Date.Before(dates[j].Date)
	})

	isDate := make(map[int]bool, len(dates))
	for _, d := range dates {
		isDate[d.Index] = true
	}
	// Positional fallback for identity columns the header didn't name.
	for field := fieldID; field <= fieldName; field++ {
		if _, ok := found[field]; ok {
			continue
		}
		pos := int(field)
		if used[pos] || isDate[pos] {
			found[field] = -1
			continue
		}
		found[field] = pos
		used[pos] = true
	}

	return Layout{
		ID:         found[fieldID],
		Department: found[fieldDepartment],
		Role:       found[fieldRole],
		Name:       found[fieldName],
		Dates:      dates,
	}, nil
}

// StaffRef reads the identity columns of a row.
func (l Layout) StaffRef(row []string, ward string) StaffRef {
	return StaffRef{
		EmployeeID: sheet.Cell(row, l.ID),
		Name:       sheet.Cell(row, l.Name),
		Role:       sheet.Cell(row, l.Role),
		Ward:       ward,
	}
}

// DepartmentOf reads a row's department cell.
func (l Layout) DepartmentOf(row []string) string {
	return sheet.Cell(row, l.Department)
}

// Cells returns a row's date cells in date order, including empty ones.
func (l Layout) Cells(row []string, employeeRef string) []RosterCell {
	cells := make([]RosterCell, len(l.Dates))
	for i, d := range l.Dates {
		raw := ""
		if d.Index < len(row) {
			raw = row[d.Index]
		}
		cells[i] = RosterCell{EmployeeRef: employeeRef, Date: d.Date, RawValue: raw}
	}
	return cells
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// ReadXLSX reads a roster workbook. A blank sheet name means the first sheet.
func ReadXLSX(r io.Reader, sheetName string) (Matrix, error) {
	return ReadMatrix(r, sheet.FormatXLSX, sheetName)
}

// ReadCSV reads a roster CSV export.
func ReadCSV(r io.Reader) (Matrix, error) {
	return ReadMatrix(r, sheet.FormatCSV, "")
}
