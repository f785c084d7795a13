// Package memory holds an in-memory ledger appender for tests and local
// development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tahseel/internal/core"
	ports "tahseel/internal/sheets"
)

type Row struct {
	Transaction core.Transaction
	StudentName string
}

type Ledger struct {
	mu   sync.Mutex
	rows []Row
}

var _ ports.LedgerAppender = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) AppendTransaction(_ context.Context, t core.Transaction, studentName string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, Row{Transaction: t, StudentName: studentName})
	return fmt.Sprintf("memory!A%d", len(l.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (l *Ledger) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}
