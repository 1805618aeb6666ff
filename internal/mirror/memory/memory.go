// Package memory provides an in-process transaction mirror used by worker
// tests.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/mirror"
)

type Mirror struct {
	mu   sync.RWMutex
	rows map[string]core.Transaction
}

var _ mirror.TransactionMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[string]core.Transaction)}
}

func (m *Mirror) Upsert(ctx context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[tx.ID] = tx
	return nil
}

func (m *Mirror) Remove(ctx context.Context, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, transactionID)
	return nil
}

// Row returns the mirrored transaction, if present.
func (m *Mirror) Row(transactionID string) (core.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.rows[transactionID]
	return tx, ok
}

// Len returns the number of mirrored rows.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
