package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/sheet"
)

// Column positions shared by the local sheet and the remote lookup.
const (
	colCode = iota
	colDescriptor
	colFinanceTag
	colHours
)

// =============================================================================
// PURE RESOLUTION
// =============================================================================

// Resolve applies the tier order to already-read rows. It is a pure
// function of its inputs and never merges tiers.
func Resolve(localRows, remoteRows [][]string) ([]Entry, Tier) {
	if entries := ParseRows(localRows); len(entries) > 0 {
		return entries, TierLocal
	}
	if entries := ParseRows(remoteRows); len(entries) > 0 {
		return entries, TierRemote
	}
	return DefaultEntries(), TierDefault
}

// ParseRows maps columns A-D to entries, keeping rows with a code and
// positive hours.
func ParseRows(rows [][]string) []Entry {
	var entries []Entry
	for _, row := range rows {
		code := generic.NormalizeCode(sheet.Cell(row, colCode))
		if code == "" {
			continue
		}
		hours, err := decimal.NewFromString(sheet.Cell(row, colHours))
		if err != nil || !hours.IsPositive() {
			continue
		}
		tag := generic.NormalizeCode(sheet.Cell(row, colFinanceTag))
		if tag == "" {
			tag = FinanceBillable
		}
		entries = append(entries, Entry{
			Code:       code,
			Hours:      hours,
			Descriptor: sheet.Cell(row, colDescriptor),
			FinanceTag: tag,
		})
	}
	return entries
}

// =============================================================================
// RESOLVER - Reads sources, then resolves
// =============================================================================

// Resolver reads the two configured sources and resolves a catalog.
// Either source may be nil.
type Resolver struct {
	Local  RowSource
	Remote RowSource
	Logger *zap.Logger
}

// NewResolver creates a resolver over the given sources.
func NewResolver(local, remote RowSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{Local: local, Remote: remote, Logger: logger}
}

// Resolve reads both sources and returns the winning tier's catalog.
// The remote source is only read when the local one yields nothing.
func (r *Resolver) Resolve(ctx context.Context) *Catalog {
	log := r.logger()

	localRows := r.read(ctx, r.Local)
	if entries := ParseRows(localRows); len(entries) > 0 {
		log.Info("hours catalog resolved", zap.String("tier", string(TierLocal)), zap.Int("entries", len(entries)))
		return New(entries, TierLocal)
	}

	remoteRows := r.read(ctx, r.Remote)
	entries, tier := Resolve(nil, remoteRows)
	if tier == TierDefault {
		log.Warn("hours catalog sources empty, using default table", zap.Int("entries", len(entries)))
	} else {
		log.Info("hours catalog resolved", zap.String("tier", string(tier)), zap.Int("entries", len(entries)))
	}
	return New(entries, tier)
}

func (r *Resolver) read(ctx context.Context, src RowSource) [][]string {
	if src == nil {
		return nil
	}
	rows, err := src.Rows(ctx)
	if err != nil {
		r.logger().Warn("hours catalog source unreadable, treating as empty",
			zap.String("source", src.Name()), zap.Error(err))
		return nil
	}
	return rows
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
