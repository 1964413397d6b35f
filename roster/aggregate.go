package roster

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/ledger"
	"github.com/warp/roster-ledger/shift"
)

// =============================================================================
// ANOMALIES
// =============================================================================

// Anomaly kinds raised by ward processing itself. Classifier advisories
// keep their shift.AdvisoryKind name.
const (
	AnomalyMalformedRoster = "malformed_roster"
	AnomalyEmptyWard       = "empty_ward"
)

// Anomaly is a data-quality finding kept on the run for operators.
type Anomaly struct {
	Kind       string
	Ward       string
	EmployeeID string
	StaffName  string
	Date       generic.TimePoint
	Code       string
	Message    string
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor folds roster rows into staff records. The zero value is not
// usable; Classifier is required.
type Processor struct {
	Classifier      *shift.Classifier
	Wards           *WardMatcher
	ContractedHours decimal.Decimal
	Logger          *zap.Logger

	// OnClassified, when set, sees every classified non-empty cell.
	OnClassified func(shift.Classified)
}

func (p *Processor) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Processor) contracted() decimal.Decimal {
	if p.ContractedHours.IsZero() {
		return DefaultContractedHours
	}
	return p.ContractedHours
}

// Aggregate classifies one staff member's cells in date order, appends the
// implied ledger entries to book and returns the finalized record together
// with the advisories raised along the way. Empty cells are skipped.
func (p *Processor) Aggregate(ref StaffRef, cells []RosterCell, book *ledger.Book) (StaffRecord, []Anomaly) {
	ordered := make([]RosterCell, len(cells))
	copy(ordered, cells)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	acc := newAccumulator(ref, p.contracted())
	aliases := p.Wards.Aliases(ref.Ward)
	var anomalies []Anomaly

	for _, cell := range ordered {
		staff := shift.Staff{
			EmployeeID:  ref.EmployeeID,
			Name:        ref.Name,
			Role:        ref.Role,
			Ward:        ref.Ward,
			WardAliases: aliases,
			Date:        cell.Date,
		}
		classified, ok := p.Classifier.ClassifyCell(cell.RawValue, staff)
		if !ok {
			continue
		}
		if p.OnClassified != nil {
			p.OnClassified(classified)
		}
		acc.apply(classified.Effect())
		if book != nil {
			book.Record(classified, staff)
		}
		for _, a := range classified.Advisories {
			anomalies = append(anomalies, Anomaly{
				Kind:       string(a.Kind),
				Ward:       ref.Ward,
				EmployeeID: ref.EmployeeID,
				StaffName:  ref.Name,
				Date:       cell.Date,
				Code:       classified.Code,
				Message:    a.Message,
			})
		}
	}
	return acc.finalize(), anomalies
}

// Aggregate folds cells into a record against cat without touching any
// ledger or logger.
func Aggregate(ref StaffRef, cells []RosterCell, cat *catalog.Catalog) StaffRecord {
	p := &Processor{Classifier: shift.NewClassifier(cat, nil)}
	rec, _ := p.Aggregate(ref, cells, nil)
	return rec
}

// =============================================================================
// WARD PROCESSING
// =============================================================================

// WardReport is the outcome of one ward. Err is set, and Staff empty, when
// the roster shape made the ward impossible to process.
type WardReport struct {
	Ward      string
	Staff     []StaffRecord
	Totals    StaffRecord
	Anomalies []Anomaly
	Err       error
}

// ProcessWard aggregates every row of matrix whose department matches ward.
// A malformed matrix fails this ward only; the error is returned in the
// report, never panicked or propagated.
func (p *Processor) ProcessWard(matrix Matrix, ward string, book *ledger.Book) WardReport {
	log := p.logger().With(zap.String("ward", ward))
	report := WardReport{Ward: ward}

	layout, err := matrix.Layout()
	if err != nil {
		report.Err = &generic.MalformedRosterError{Ward: ward, Reason: err.Error(), Err: err}
		report.Totals = Sum(ward, nil)
		report.Anomalies = append(report.Anomalies, Anomaly{
			Kind:    AnomalyMalformedRoster,
			Ward:    ward,
			Message: report.Err.Error(),
		})
		log.Error("ward aborted", zap.Error(report.Err))
		return report
	}

	for _, row := range matrix.Rows {
		if !p.Wards.Match(layout.DepartmentOf(row), ward) {
			continue
		}
		ref := layout.StaffRef(row, ward)
		if ref.Key() == "" {
			continue
		}
		rec, anomalies := p.Aggregate(ref, layout.Cells(row, ref.Key()), book)
		report.Staff = append(report.Staff, rec)
		report.Anomalies = append(report.Anomalies, anomalies...)
	}

	if len(report.Staff) == 0 {
		report.Anomalies = append(report.Anomalies, Anomaly{
			Kind:    AnomalyEmptyWard,
			Ward:    ward,
			Message: "no roster rows matched ward " + ward,
		})
		log.Warn("no roster rows matched ward")
	}
	report.Totals = Sum(ward, report.Staff)

	log.Info("ward processed",
		zap.Int("staff", len(report.Staff)),
		zap.Int("anomalies", len(report.Anomalies)),
		zap.String("net_ward_hours", report.Totals.NetWardHours.String()),
	)
	return report
}
