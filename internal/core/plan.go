package core

import "time"

// Days between consecutive installments. The plan approximates "monthly"
// with a fixed 30-day cadence rather than calendar months.
const installmentCadenceDays = 30

// ScheduledInstallment is one row of a generated fee plan before it is
// persisted.
type ScheduledInstallment struct {
	Sequence int
	Amount   float64
	DueDate  string
}

// BuildSchedule splits totalFees into count equal installments due every 30
// days starting at start. Per-installment amounts are rounded to cents and
// the final installment absorbs the rounding remainder, so the amounts
// always sum exactly to totalFees. When cent rounding would push any
// installment to zero or below (tiny totals split many ways), the raw
// division is kept instead so every amount stays positive.
//
// Callers must validate totalFees > 0 and count > 0 first; BuildSchedule
// assumes both.
func BuildSchedule(totalFees float64, count int, start time.Time) []ScheduledInstallment {
	per := roundCents(totalFees / float64(count))
	last := roundCents(totalFees - per*float64(count-1))
	if per <= 0 || last <= 0 {
		per = totalFees / float64(count)
		last = totalFees - per*float64(count-1)
	}
	plan := make([]ScheduledInstallment, count)
	for i := 0; i < count; i++ {
		amount := per
		if i == count-1 {
			amount = last
		}
		plan[i] = ScheduledInstallment{
			Sequence: i + 1,
			Amount:   amount,
			DueDate:  start.AddDate(0, 0, installmentCadenceDays*i).Format(DateLayout),
		}
	}
	return plan
}
