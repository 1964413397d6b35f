// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/roster-ledger/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	entries     map[key][]generic.Entry
	idempotency map[string]bool
}

type key struct {
	RunID generic.RunID
	Kind  generic.EntryKind
}

func NewMemory() *Memory {
	return &Memory{
		entries:     make(map[key][]generic.Entry),
		idempotency: make(map[string]bool),
	}
}

// AppendBatch adds entries atomically.
func (m *Memory) AppendBatch(_ context.Context, es []generic.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first (atomic check)
	batch := make(map[string]bool, len(es))
	for _, e := range es {
		if e.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[e.IdempotencyKey] || batch[e.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		batch[e.IdempotencyKey] = true
	}

	for _, e := range es {
		m.appendLocked(e)
	}
	return nil
}

func (m *Memory) appendLocked(e generic.Entry) {
	k := key{RunID: e.RunID, Kind: e.Kind}
	es := m.entries[k]

	// Keep Seq order; equal Seq keeps arrival order.
	i := sort.Search(len(es), func(i int) bool {
		return es[i].Seq > e.Seq
	})
	es = append(es, generic.Entry{})
	copy(es[i+1:], es[i:])
	es[i] = e
	m.entries[k] = es

	if e.IdempotencyKey != "" {
		m.idempotency[e.IdempotencyKey] = true
	}
}

func (m *Memory) Load(_ context.Context, runID generic.RunID, kind generic.EntryKind) ([]generic.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := key{RunID: runID, Kind: kind}
	result := make([]generic.Entry, len(m.entries[k]))
	copy(result, m.entries[k])
	return result, nil
}

func (m *Memory) LoadByEntity(_ context.Context, runID generic.RunID, entityID generic.EntityID) ([]generic.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kinds := []generic.EntryKind{generic.KindToilDebt, generic.KindPayback, generic.KindRedeployment}
	var result []generic.Entry
	for _, kind := range kinds {
		for _, e := range m.entries[key{RunID: runID, Kind: kind}] {
			if e.EntityID == entityID {
				result = append(result, e)
			}
		}
	}
	return result, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}
