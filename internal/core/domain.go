package core

import (
	"errors"
	"strings"
	"time"
)

// Layouts for the date strings persisted in the ledger. Calendar dates are
// stored as YYYY-MM-DD; transaction and settlement timestamps additionally
// carry the wall-clock time.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

const (
	KindPayment TransactionKind = "payment"
	KindExpense TransactionKind = "expense"
)

const (
	StatusPending InstallmentStatus = "pending"
	StatusPaid    InstallmentStatus = "paid"
)

// StatusActive is the implicit status of newly enrolled students.
const StatusActive = "active"

type (
	TransactionKind   string
	InstallmentStatus string

	// Student is one enrolled student. CreatedAt is the enrollment date
	// (YYYY-MM-DD); students are never deleted, only edited.
	Student struct {
		ID           int64
		Name         string
		Grade        string
		AcademicYear string
		ParentPhone  string
		CreatedAt    string
		Status       string
	}

	// Transaction is one row of the append-only cash-movement ledger.
	// StudentID is zero for movements with no student (expenses).
	Transaction struct {
		ID            int64
		StudentID     int64
		Date          string
		Amount        float64
		Kind          TransactionKind
		Description   string
		PaymentMethod string
	}

	// Installment is one scheduled partial payment obligation. PaidAmount
	// and PaidDate stay zero/empty until settlement.
	Installment struct {
		ID         int64
		StudentID  int64
		Sequence   int
		Amount     float64
		PaidAmount float64
		DueDate    string
		PaidDate   string
		Status     InstallmentStatus
	}

	// PendingInstallment is an installment joined with its student's name,
	// as shown in the collection queue.
	PendingInstallment struct {
		ID          int64
		StudentName string
		Sequence    int
		DueDate     string
		Amount      float64
		PaidAmount  float64
	}

	// DailyTransaction is a ledger row joined with the student name for the
	// dashboard's recent-movements list.
	DailyTransaction struct {
		Date          string
		StudentName   string
		Amount        float64
		PaymentMethod string
	}

	// DailyStats is the dashboard snapshot for "today".
	DailyStats struct {
		Total        float64
		Transactions []DailyTransaction
		OverdueCount int64
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidCount        = errors.New("installment count must be greater than zero")
	ErrEmptyName           = errors.New("student name is required")
	ErrEmptyGrade          = errors.New("grade is required")
	ErrEmptyAcademicYear   = errors.New("academic year is required")
	ErrEmptyPaymentMethod  = errors.New("payment method is required")
	ErrEmptyDescription    = errors.New("description is required")
	ErrUnknownMethod       = errors.New("unknown payment method")
	ErrStudentNotFound     = errors.New("student not found")
	ErrInstallmentNotFound = errors.New("installment not found")
)

// ParseDate parses a calendar date in the ledger's canonical YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Validate checks the fields a student row must carry before insert/update.
// Academic year was enforced by the original UI layer; the service surface is
// that boundary here, so it is validated alongside name and grade.
func (s Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(s.Grade) == "" {
		return ErrEmptyGrade
	}
	if strings.TrimSpace(s.AcademicYear) == "" {
		return ErrEmptyAcademicYear
	}
	return nil
}
