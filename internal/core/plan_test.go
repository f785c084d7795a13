package core

import (
	"math"
	"testing"
	"time"
)

func TestBuildScheduleEqualSplit(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	plan := BuildSchedule(1000, 10, start)

	if len(plan) != 10 {
		t.Fatalf("expected 10 installments, got %d", len(plan))
	}
	wantDates := []string{
		"2025-09-01", "2025-10-01", "2025-10-31", "2025-11-30", "2025-12-30",
		"2026-01-29", "2026-02-28", "2026-03-30", "2026-04-29", "2026-05-29",
	}
	for i, inst := range plan {
		if inst.Sequence != i+1 {
			t.Errorf("installment %d: sequence = %d", i, inst.Sequence)
		}
		if inst.Amount != 100.00 {
			t.Errorf("installment %d: amount = %v, want 100.00", i, inst.Amount)
		}
		if inst.DueDate != wantDates[i] {
			t.Errorf("installment %d: due date = %s, want %s", i, inst.DueDate, wantDates[i])
		}
	}
}

func TestBuildScheduleRemainderOnLast(t *testing.T) {
	cases := []struct {
		total float64
		count int
	}{
		{1000, 3},
		{999.99, 7},
		{100, 6},
		{0.03, 2},
		{4500, 12},
		// Totals too small for a cent-rounded split: rounding up the
		// per-installment amount would overshoot the total and drive the
		// final amount to zero or below.
		{0.05, 7},
		{0.01, 2},
		{1.00, 300},
	}
	for _, tc := range cases {
		plan := BuildSchedule(tc.total, tc.count, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
		if len(plan) != tc.count {
			t.Fatalf("total=%v count=%d: got %d installments", tc.total, tc.count, len(plan))
		}
		var sum float64
		for _, inst := range plan {
			if inst.Amount <= 0 {
				t.Errorf("total=%v count=%d seq=%d: non-positive amount %v", tc.total, tc.count, inst.Sequence, inst.Amount)
			}
			sum += inst.Amount
		}
		if math.Abs(sum-tc.total) > 1e-9 {
			t.Errorf("total=%v count=%d: amounts sum to %v", tc.total, tc.count, sum)
		}
		// All but the last installment share the same amount.
		for i := 0; i < tc.count-1; i++ {
			if plan[i].Amount != plan[0].Amount {
				t.Errorf("total=%v count=%d: installment %d amount %v differs from %v", tc.total, tc.count, i+1, plan[i].Amount, plan[0].Amount)
			}
		}
	}
}

func TestBuildScheduleCadence(t *testing.T) {
	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	plan := BuildSchedule(300, 4, start)
	for i, inst := range plan {
		want := start.AddDate(0, 0, 30*i).Format(DateLayout)
		if inst.DueDate != want {
			t.Errorf("installment %d: due %s, want %s", i+1, inst.DueDate, want)
		}
	}
}
