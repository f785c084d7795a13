package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tahseel/internal/amqp"
	"tahseel/internal/core"
	"tahseel/internal/sheets/memory"
	"tahseel/internal/storage"
)

func newTestWorker(t *testing.T, batchSize int) (*ExportWorker, *storage.SQLiteRepository, *memory.Ledger) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	ledger := memory.New()
	return NewExportWorker(repo, ledger, batchSize), repo, ledger
}

func addExpenses(t *testing.T, repo *storage.SQLiteRepository, n int) {
	t.Helper()
	now := time.Date(2025, 9, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		if _, err := repo.InsertExpense(context.Background(), 10, "supplies", "cash", now); err != nil {
			t.Fatalf("InsertExpense: %v", err)
		}
	}
}

func TestProcessPendingExports(t *testing.T) {
	w, repo, ledger := newTestWorker(t, 10)
	ctx := context.Background()
	addExpenses(t, repo, 3)

	if err := w.ProcessPendingExports(ctx); err != nil {
		t.Fatalf("ProcessPendingExports: %v", err)
	}

	rows := ledger.Rows()
	if len(rows) != 3 {
		t.Fatalf("exported %d rows, want 3", len(rows))
	}
	if rows[0].Transaction.ID >= rows[1].Transaction.ID {
		t.Errorf("rows not exported oldest first")
	}

	cursor, err := repo.ExportCursor(ctx)
	if err != nil {
		t.Fatalf("ExportCursor: %v", err)
	}
	if cursor != rows[2].Transaction.ID {
		t.Errorf("cursor = %d, want %d", cursor, rows[2].Transaction.ID)
	}

	// A second run finds nothing new.
	if err := w.ProcessPendingExports(ctx); err != nil {
		t.Fatalf("ProcessPendingExports (second run): %v", err)
	}
	if len(ledger.Rows()) != 3 {
		t.Errorf("second run re-exported rows: %d total", len(ledger.Rows()))
	}
}

func TestProcessPendingExportsBatchLimit(t *testing.T) {
	w, repo, ledger := newTestWorker(t, 2)
	ctx := context.Background()
	addExpenses(t, repo, 5)

	if err := w.ProcessPendingExports(ctx); err != nil {
		t.Fatalf("ProcessPendingExports: %v", err)
	}
	if len(ledger.Rows()) != 2 {
		t.Errorf("exported %d rows, want batch of 2", len(ledger.Rows()))
	}
}

func TestStartupExportCheckDrainsBacklog(t *testing.T) {
	w, repo, ledger := newTestWorker(t, 2)
	ctx := context.Background()
	addExpenses(t, repo, 5)

	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatalf("StartupExportCheck: %v", err)
	}
	if len(ledger.Rows()) != 5 {
		t.Errorf("exported %d rows, want full backlog of 5", len(ledger.Rows()))
	}
}

func TestHandleLedgerEvent(t *testing.T) {
	w, repo, ledger := newTestWorker(t, 10)
	ctx := context.Background()

	// Plan events carry no ledger row.
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEventMessage(amqp.EventPlanCreated, 1)); err != nil {
		t.Fatalf("HandleLedgerEvent(plan): %v", err)
	}
	if len(ledger.Rows()) != 0 {
		t.Errorf("plan event exported %d rows", len(ledger.Rows()))
	}

	addExpenses(t, repo, 1)
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEventMessage(amqp.EventExpenseRecorded, 1)); err != nil {
		t.Fatalf("HandleLedgerEvent(expense): %v", err)
	}
	if len(ledger.Rows()) != 1 {
		t.Errorf("expense event exported %d rows, want 1", len(ledger.Rows()))
	}
}

func TestExportsIncludeStudentName(t *testing.T) {
	w, repo, ledger := newTestWorker(t, 10)
	ctx := context.Background()

	id, err := repo.CreateStudent(ctx, core.Student{
		Name:         "Huda Salem",
		Grade:        "Grade 4",
		AcademicYear: "2025-2026",
		CreatedAt:    "2025-09-01",
		Status:       core.StatusActive,
	})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	start, _ := core.ParseDate("2025-09-01")
	if err := repo.CreateInstallments(ctx, id, core.BuildSchedule(300, 1, start)); err != nil {
		t.Fatalf("CreateInstallments: %v", err)
	}
	pending, _ := repo.PendingInstallments(ctx)
	if _, err := repo.SettleInstallment(ctx, pending[0].ID, 300, "cash", time.Now()); err != nil {
		t.Fatalf("SettleInstallment: %v", err)
	}

	if err := w.ProcessPendingExports(ctx); err != nil {
		t.Fatalf("ProcessPendingExports: %v", err)
	}
	rows := ledger.Rows()
	if len(rows) != 1 {
		t.Fatalf("exported %d rows, want 1", len(rows))
	}
	if rows[0].StudentName != "Huda Salem" {
		t.Errorf("student name = %q, want Huda Salem", rows[0].StudentName)
	}
}

type failingLedger struct{ calls int }

func (f *failingLedger) AppendTransaction(context.Context, core.Transaction, string) (string, error) {
	f.calls++
	if f.calls > 1 {
		return "", errors.New("quota exceeded")
	}
	return "memory!A1", nil
}

func TestCursorStopsOnAppendFailure(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	ctx := context.Background()
	addExpenses(t, repo, 3)

	w := NewExportWorker(repo, &failingLedger{}, 10)
	if err := w.ProcessPendingExports(ctx); err == nil {
		t.Fatal("expected error from failing appender")
	}

	// Only the first row made it out; the cursor must point at it so the
	// next run resumes with the second row.
	cursor, err := repo.ExportCursor(ctx)
	if err != nil {
		t.Fatalf("ExportCursor: %v", err)
	}
	if cursor != 1 {
		t.Errorf("cursor = %d, want 1", cursor)
	}
}
