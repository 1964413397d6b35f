package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/sheet"
)

// RowSource yields raw catalog rows. An error means the source could not be
// read at all; the resolver treats that as an empty source.
type RowSource interface {
	Name() string
	Rows(ctx context.Context) ([][]string, error)
}

// =============================================================================
// STATIC SOURCE
// =============================================================================

// StaticSource serves rows held in memory (uploads, tests).
type StaticSource struct {
	Label string
	Data  [][]string
}

func (s StaticSource) Name() string { return s.Label }

func (s StaticSource) Rows(context.Context) ([][]string, error) {
	return s.Data, nil
}

// =============================================================================
// FILE SOURCE - xlsx or csv on disk
// =============================================================================

// FileSource reads a local workbook or CSV export. Sheet applies to xlsx only.
type FileSource struct {
	Path  string
	Sheet string
}

func (s FileSource) Name() string {
	if s.Sheet != "" {
		return s.Path + "#" + s.Sheet
	}
	return s.Path
}

func (s FileSource) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := sheet.ReadFile(s.Path, s.Sheet)
	if err != nil {
		return nil, &generic.SourceError{Source: s.Name(), Err: err}
	}
	return rows, nil
}

// =============================================================================
// HTTP SOURCE - shared lookup published as CSV
// =============================================================================

// HTTPSource fetches a CSV export of the shared lookup table.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Name() string { return s.URL }

func (s HTTPSource) Rows(ctx context.Context) ([][]string, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &generic.SourceError{Source: s.URL, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &generic.SourceError{Source: s.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &generic.SourceError{Source: s.URL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	rows, err := sheet.ReadCSV(resp.Body)
	if err != nil {
		return nil, &generic.SourceError{Source: s.URL, Err: err}
	}
	return rows, nil
}
