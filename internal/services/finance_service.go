package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tahseel/internal/amqp"
	"tahseel/internal/catalog"
	"tahseel/internal/core"
	"tahseel/internal/storage"
)

// FinanceService orchestrates the school's money flows across SQLite and
// AMQP: enrollment, fee plans, installment settlement, expenses and the
// daily dashboard.
type FinanceService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	catalog    *catalog.Catalog
	now        func() time.Time
}

func NewFinanceService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, cat *catalog.Catalog) *FinanceService {
	return &FinanceService{
		storage:    storage,
		amqpClient: amqpClient,
		catalog:    cat,
		now:        time.Now,
	}
}

// AddStudent enrolls a new student and returns the assigned id. Enrollment
// date and active status are stamped here.
func (s *FinanceService) AddStudent(ctx context.Context, student core.Student) (int64, error) {
	if err := student.Validate(); err != nil {
		return 0, err
	}
	student.CreatedAt = s.now().Format(core.DateLayout)
	student.Status = core.StatusActive

	id, err := s.storage.CreateStudent(ctx, student)
	if err != nil {
		return 0, fmt.Errorf("add student: %w", err)
	}

	slog.InfoContext(ctx, "Student enrolled", "id", id, "name", student.Name, "grade", student.Grade)
	return id, nil
}

// UpdateStudent overwrites the student's editable fields. Unknown ids are a
// silent no-op: the row simply stays absent.
func (s *FinanceService) UpdateStudent(ctx context.Context, student core.Student) error {
	if err := student.Validate(); err != nil {
		return err
	}

	affected, err := s.storage.UpdateStudent(ctx, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if affected == 0 {
		slog.WarnContext(ctx, "Update matched no student", "id", student.ID)
	}
	return nil
}

// StudentDetails returns one student's editable fields for the edit form.
func (s *FinanceService) StudentDetails(ctx context.Context, id int64) (core.Student, error) {
	return s.storage.GetStudent(ctx, id)
}

// Students returns the brief roster (id, name, grade) for selection lists.
func (s *FinanceService) Students(ctx context.Context) ([]core.Student, error) {
	return s.storage.ListStudents(ctx)
}

// StudentsFull returns the roster with all editable fields.
func (s *FinanceService) StudentsFull(ctx context.Context) ([]core.Student, error) {
	return s.storage.ListStudentsFull(ctx)
}

// SearchStudents filters the full roster by name or parent phone,
// case-insensitively. An empty query returns everyone.
func (s *FinanceService) SearchStudents(ctx context.Context, query string) ([]core.Student, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.storage.ListStudentsFull(ctx)
	}
	return s.storage.SearchStudents(ctx, query)
}

// CreateFeePlan splits totalFees into count installments due every 30 days
// from startDate and stores them atomically for the student.
func (s *FinanceService) CreateFeePlan(ctx context.Context, studentID int64, totalFees float64, count int, startDate string) ([]core.ScheduledInstallment, error) {
	if totalFees <= 0 {
		return nil, core.ErrInvalidAmount
	}
	if count <= 0 {
		return nil, core.ErrInvalidCount
	}
	start, err := core.ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.storage.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}

	plan := core.BuildSchedule(totalFees, count, start)
	if err := s.storage.CreateInstallments(ctx, studentID, plan); err != nil {
		return nil, fmt.Errorf("create fee plan: %w", err)
	}

	slog.InfoContext(ctx, "Fee plan created",
		"student_id", studentID,
		"total", totalFees,
		"installments", count)
	s.publishEvent(ctx, amqp.EventPlanCreated, studentID)

	return plan, nil
}

// PendingInstallments returns the collection queue, soonest due first.
func (s *FinanceService) PendingInstallments(ctx context.Context) ([]core.PendingInstallment, error) {
	return s.storage.PendingInstallments(ctx)
}

// SettleInstallment marks the installment paid with the submitted amount and
// appends the payment to the ledger, returning the new transaction id.
func (s *FinanceService) SettleInstallment(ctx context.Context, installmentID int64, amount float64, method string) (int64, error) {
	if amount <= 0 {
		return 0, core.ErrInvalidAmount
	}
	if err := s.checkMethod(method); err != nil {
		return 0, err
	}

	txnID, err := s.storage.SettleInstallment(ctx, installmentID, amount, method, s.now())
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Installment settled",
		"installment_id", installmentID,
		"transaction_id", txnID,
		"amount", amount,
		"method", method)
	s.publishEvent(ctx, amqp.EventPaymentRecorded, txnID)

	return txnID, nil
}

// RecordExpense appends an outgoing movement to the ledger, returning the
// new transaction id.
func (s *FinanceService) RecordExpense(ctx context.Context, amount float64, description, method string) (int64, error) {
	if amount <= 0 {
		return 0, core.ErrInvalidAmount
	}
	if strings.TrimSpace(description) == "" {
		return 0, core.ErrEmptyDescription
	}
	if err := s.checkMethod(method); err != nil {
		return 0, err
	}

	id, err := s.storage.InsertExpense(ctx, amount, description, method, s.now())
	if err != nil {
		return 0, fmt.Errorf("record expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded", "id", id, "amount", amount, "description", description)
	s.publishEvent(ctx, amqp.EventExpenseRecorded, id)

	return id, nil
}

// DailyStats builds the dashboard snapshot for the current day: total
// payments, the latest movements and the overdue installment count.
func (s *FinanceService) DailyStats(ctx context.Context) (core.DailyStats, error) {
	day := s.now().Format(core.DateLayout)

	total, err := s.storage.DailyTotal(ctx, day)
	if err != nil {
		return core.DailyStats{}, fmt.Errorf("daily stats: %w", err)
	}
	recent, err := s.storage.RecentTransactions(ctx, day, 10)
	if err != nil {
		return core.DailyStats{}, fmt.Errorf("daily stats: %w", err)
	}
	overdue, err := s.storage.OverdueCount(ctx, day)
	if err != nil {
		return core.DailyStats{}, fmt.Errorf("daily stats: %w", err)
	}

	return core.DailyStats{
		Total:        total,
		Transactions: recent,
		OverdueCount: overdue,
	}, nil
}

// PaymentMethods exposes the configured method catalog for form rendering.
func (s *FinanceService) PaymentMethods() []string {
	return s.catalog.PaymentMethods
}

// Grades exposes the configured grade catalog for form rendering.
func (s *FinanceService) Grades() []string {
	return s.catalog.Grades
}

func (s *FinanceService) checkMethod(method string) error {
	if strings.TrimSpace(method) == "" {
		return core.ErrEmptyPaymentMethod
	}
	if !s.catalog.ValidMethod(method) {
		return core.ErrUnknownMethod
	}
	return nil
}

// publishEvent notifies consumers about a ledger change. Publishing is best
// effort: the database write already committed, so broker trouble never
// fails the request.
func (s *FinanceService) publishEvent(ctx context.Context, kind string, id int64) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger event", "kind", kind)
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, kind, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "id", id, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *FinanceService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close finance service: %v", errs)
	}

	return nil
}
