// Package worker exports committed ledger rows to the external spreadsheet.
// Exports are cursor-driven: the worker remembers the last exported
// transaction id and catches up from there, so the ledger table itself stays
// append-only and untouched.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tahseel/internal/amqp"
	"tahseel/internal/core"
	"tahseel/internal/sheets"
	"tahseel/internal/storage"
)

type ExportWorker struct {
	storage   *storage.SQLiteRepository
	ledger    sheets.LedgerAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, ledger sheets.LedgerAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleLedgerEvent processes one AMQP ledger event. The event payload is
// only a nudge; the worker always exports from the cursor, so duplicate or
// reordered deliveries are harmless.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event", "kind", msg.Kind, "id", msg.ID)

	// Plan events carry no ledger row. Nothing to export yet.
	if msg.Kind == amqp.EventPlanCreated {
		return nil
	}

	return w.ProcessPendingExports(ctx)
}

// ProcessPendingExports exports up to batchSize ledger rows past the cursor,
// advancing the cursor after each successful append. A mid-batch failure
// leaves the cursor on the last exported row, so the next run resumes there.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	cursor, err := w.storage.ExportCursor(ctx)
	if err != nil {
		return fmt.Errorf("read export cursor: %w", err)
	}

	pending, err := w.storage.TransactionsAfter(ctx, cursor, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Exporting ledger rows", "count", len(pending), "cursor", cursor)

	for _, t := range pending {
		studentName, err := w.studentName(ctx, t.StudentID)
		if err != nil {
			return fmt.Errorf("resolve student for transaction %d: %w", t.ID, err)
		}

		ref, err := w.ledger.AppendTransaction(ctx, t, studentName)
		if err != nil {
			return fmt.Errorf("append transaction %d: %w", t.ID, err)
		}

		if err := w.storage.SetExportCursor(ctx, t.ID); err != nil {
			// The row is already on the sheet; failing here means it may be
			// exported twice on the next run. The transaction id column lets
			// reconciliation spot that.
			slog.ErrorContext(ctx, "Failed to advance export cursor",
				"transaction_id", t.ID, "error", err)
			return fmt.Errorf("advance export cursor: %w", err)
		}

		slog.InfoContext(ctx, "Exported ledger row",
			"transaction_id", t.ID,
			"sheets_ref", ref,
			"amount", t.Amount)
	}

	return nil
}

// StartupExportCheck drains the whole export backlog at worker startup,
// recovering from missed AMQP messages or worker downtime.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	cursor, err := w.storage.ExportCursor(ctx)
	if err != nil {
		return fmt.Errorf("read export cursor for startup check: %w", err)
	}
	slog.InfoContext(ctx, "Startup export check", "cursor", cursor)

	for {
		before, err := w.storage.ExportCursor(ctx)
		if err != nil {
			return err
		}
		if err := w.ProcessPendingExports(ctx); err != nil {
			return err
		}
		after, err := w.storage.ExportCursor(ctx)
		if err != nil {
			return err
		}
		if after == before {
			return nil
		}
	}
}

func (w *ExportWorker) studentName(ctx context.Context, studentID int64) (string, error) {
	if studentID == 0 {
		return "", nil
	}
	student, err := w.storage.GetStudent(ctx, studentID)
	if errors.Is(err, core.ErrStudentNotFound) {
		// Students are never deleted, but guard anyway: export the row
		// without a name rather than wedging the whole backlog.
		slog.WarnContext(ctx, "Transaction references unknown student", "student_id", studentID)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return student.Name, nil
}
