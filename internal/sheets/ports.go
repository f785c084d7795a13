package sheets

import (
	"context"

	"tahseel/internal/core"
)

// LedgerAppender writes one ledger row to the external spreadsheet.
// studentName is empty for movements with no student (expenses).
type LedgerAppender interface {
	AppendTransaction(ctx context.Context, t core.Transaction, studentName string) (rowRef string, err error)
}
