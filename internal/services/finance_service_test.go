package services

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"tahseel/internal/catalog"
	"tahseel/internal/core"
	"tahseel/internal/storage"
)

func newTestService(t *testing.T) *FinanceService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	svc := NewFinanceService(repo, nil, catalog.Default())
	svc.now = func() time.Time {
		return time.Date(2025, 9, 5, 10, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func enroll(t *testing.T, svc *FinanceService, name string) int64 {
	t.Helper()
	id, err := svc.AddStudent(context.Background(), core.Student{
		Name:         name,
		Grade:        "Grade 5",
		AcademicYear: "2025-2026",
		ParentPhone:  "0771112222",
	})
	if err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	return id
}

func TestAddStudentValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		student core.Student
		wantErr error
	}{
		{"missing name", core.Student{Grade: "Grade 1", AcademicYear: "2025-2026"}, core.ErrEmptyName},
		{"missing grade", core.Student{Name: "Sara", AcademicYear: "2025-2026"}, core.ErrEmptyGrade},
		{"missing year", core.Student{Name: "Sara", Grade: "Grade 1"}, core.ErrEmptyAcademicYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddStudent(ctx, tt.student); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	id := enroll(t, svc, "Sara Mahmoud")
	if id <= 0 {
		t.Errorf("id = %d, want positive", id)
	}
}

func TestUpdateStudentUnknownIDSucceeds(t *testing.T) {
	svc := newTestService(t)

	err := svc.UpdateStudent(context.Background(), core.Student{
		ID:           9999,
		Name:         "Nobody",
		Grade:        "Grade 2",
		AcademicYear: "2025-2026",
	})
	if err != nil {
		t.Errorf("UpdateStudent on unknown id = %v, want nil", err)
	}
}

func TestCreateFeePlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := enroll(t, svc, "Karim Faisal")

	t.Run("rejects bad input", func(t *testing.T) {
		if _, err := svc.CreateFeePlan(ctx, id, 0, 4, "2025-09-01"); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("zero total error = %v", err)
		}
		if _, err := svc.CreateFeePlan(ctx, id, 1000, 0, "2025-09-01"); !errors.Is(err, core.ErrInvalidCount) {
			t.Errorf("zero count error = %v", err)
		}
		if _, err := svc.CreateFeePlan(ctx, id, 1000, 4, "09/01/2025"); !errors.Is(err, core.ErrInvalidDate) {
			t.Errorf("bad date error = %v", err)
		}
		if _, err := svc.CreateFeePlan(ctx, 9999, 1000, 4, "2025-09-01"); !errors.Is(err, core.ErrStudentNotFound) {
			t.Errorf("unknown student error = %v", err)
		}

		pending, err := svc.PendingInstallments(ctx)
		if err != nil {
			t.Fatalf("PendingInstallments: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("rejected plans left %d installments", len(pending))
		}
	})

	t.Run("stores the schedule", func(t *testing.T) {
		plan, err := svc.CreateFeePlan(ctx, id, 1000, 3, "2025-09-01")
		if err != nil {
			t.Fatalf("CreateFeePlan: %v", err)
		}
		if len(plan) != 3 {
			t.Fatalf("plan length = %d, want 3", len(plan))
		}
		var sum float64
		for _, inst := range plan {
			sum += inst.Amount
		}
		if math.Abs(sum-1000) > 1e-9 {
			t.Errorf("plan sums to %v, want 1000", sum)
		}

		pending, err := svc.PendingInstallments(ctx)
		if err != nil {
			t.Fatalf("PendingInstallments: %v", err)
		}
		if len(pending) != 3 {
			t.Errorf("pending = %d, want 3", len(pending))
		}
	})
}

func TestSettleInstallment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := enroll(t, svc, "Nadia Tarek")
	if _, err := svc.CreateFeePlan(ctx, id, 600, 2, "2025-09-01"); err != nil {
		t.Fatalf("CreateFeePlan: %v", err)
	}
	pending, _ := svc.PendingInstallments(ctx)

	t.Run("rejects bad input", func(t *testing.T) {
		if _, err := svc.SettleInstallment(ctx, pending[0].ID, -5, "cash"); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("negative amount error = %v", err)
		}
		if _, err := svc.SettleInstallment(ctx, pending[0].ID, 300, ""); !errors.Is(err, core.ErrEmptyPaymentMethod) {
			t.Errorf("empty method error = %v", err)
		}
		if _, err := svc.SettleInstallment(ctx, pending[0].ID, 300, "cowrie shells"); !errors.Is(err, core.ErrUnknownMethod) {
			t.Errorf("unknown method error = %v", err)
		}
		if _, err := svc.SettleInstallment(ctx, 9999, 300, "cash"); !errors.Is(err, core.ErrInstallmentNotFound) {
			t.Errorf("unknown installment error = %v", err)
		}
	})

	t.Run("settles and records the payment", func(t *testing.T) {
		txnID, err := svc.SettleInstallment(ctx, pending[0].ID, 275.50, "cash")
		if err != nil {
			t.Fatalf("SettleInstallment: %v", err)
		}
		if txnID <= 0 {
			t.Errorf("transaction id = %d, want positive", txnID)
		}

		left, _ := svc.PendingInstallments(ctx)
		if len(left) != 1 {
			t.Errorf("pending after settle = %d, want 1", len(left))
		}

		stats, err := svc.DailyStats(ctx)
		if err != nil {
			t.Fatalf("DailyStats: %v", err)
		}
		if math.Abs(stats.Total-275.50) > 1e-9 {
			t.Errorf("daily total = %v, want 275.50", stats.Total)
		}
		if len(stats.Transactions) != 1 {
			t.Errorf("recent transactions = %d, want 1", len(stats.Transactions))
		}
	})
}

func TestRecordExpense(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordExpense(ctx, 0, "chalk", "cash"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero amount error = %v", err)
	}
	if _, err := svc.RecordExpense(ctx, 50, "  ", "cash"); !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("blank description error = %v", err)
	}
	if _, err := svc.RecordExpense(ctx, 50, "chalk", "barter"); !errors.Is(err, core.ErrUnknownMethod) {
		t.Errorf("unknown method error = %v", err)
	}

	id, err := svc.RecordExpense(ctx, 120, "water bill", "bank transfer")
	if err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}
	if id <= 0 {
		t.Errorf("id = %d, want positive", id)
	}

	// Expenses are outgoing and never inflate the daily payment total.
	stats, err := svc.DailyStats(ctx)
	if err != nil {
		t.Fatalf("DailyStats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("daily total = %v, want 0", stats.Total)
	}
}

func TestSearchStudents(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	enroll(t, svc, "Rania Adel")
	enroll(t, svc, "Bilal Hamza")

	all, err := svc.SearchStudents(ctx, "   ")
	if err != nil {
		t.Fatalf("SearchStudents: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("blank query matched %d, want 2 (full roster)", len(all))
	}

	matches, err := svc.SearchStudents(ctx, "RANIA")
	if err != nil {
		t.Fatalf("SearchStudents: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "Rania Adel" {
		t.Errorf("search matched %+v", matches)
	}
}

func TestDailyStatsOverdue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := enroll(t, svc, "Tariq Nasser")

	// First installment due 2025-08-20 is past the fixed clock, the second
	// (2025-09-19) is not.
	if _, err := svc.CreateFeePlan(ctx, id, 400, 2, "2025-08-20"); err != nil {
		t.Fatalf("CreateFeePlan: %v", err)
	}

	stats, err := svc.DailyStats(ctx)
	if err != nil {
		t.Fatalf("DailyStats: %v", err)
	}
	if stats.OverdueCount != 1 {
		t.Errorf("overdue = %d, want 1", stats.OverdueCount)
	}
}
