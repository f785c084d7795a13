// Package storage implements the SQLite persistence layer: schema
// migrations and all SQL issued by the finance ledger.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tahseel/internal/core"

	_ "modernc.org/sqlite"
)

// pendingInstallmentsLimit caps the collection queue; the UI shows the
// soonest-due rows only.
const pendingInstallmentsLimit = 50

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- students ---

// CreateStudent inserts a new student row and returns its id. CreatedAt and
// Status are taken from the passed student (the service stamps them).
func (r *SQLiteRepository) CreateStudent(ctx context.Context, s core.Student) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO students (name, grade, academic_year, parent_phone, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, s.Grade, s.AcademicYear, nullString(s.ParentPhone), s.CreatedAt, s.Status)
	if err != nil {
		return 0, fmt.Errorf("insert student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("student insert id: %w", err)
	}
	return id, nil
}

// UpdateStudent overwrites the mutable fields unconditionally. A zero
// rows-affected count is not an error (last writer wins, silent on unknown
// ids).
func (r *SQLiteRepository) UpdateStudent(ctx context.Context, s core.Student) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET name = ?, grade = ?, academic_year = ?, parent_phone = ?
		WHERE id = ?`,
		s.Name, s.Grade, s.AcademicYear, nullString(s.ParentPhone), s.ID)
	if err != nil {
		return 0, fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update student rows affected: %w", err)
	}
	return affected, nil
}

// GetStudent returns one student's full mutable field set, or
// core.ErrStudentNotFound.
func (r *SQLiteRepository) GetStudent(ctx context.Context, id int64) (core.Student, error) {
	var (
		s     core.Student
		year  sql.NullString
		phone sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, grade, academic_year, parent_phone
		FROM students WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Grade, &year, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Student{}, core.ErrStudentNotFound
	}
	if err != nil {
		return core.Student{}, fmt.Errorf("get student: %w", err)
	}
	s.AcademicYear = year.String
	s.ParentPhone = phone.String
	return s, nil
}

// ListStudents returns the brief listing (id, name, grade) that feeds
// selection lists, name ascending.
func (r *SQLiteRepository) ListStudents(ctx context.Context) ([]core.Student, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, grade FROM students ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []core.Student
	for rows.Next() {
		var s core.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Grade); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListStudentsFull returns every student with the management view's field
// set, name ascending.
func (r *SQLiteRepository) ListStudentsFull(ctx context.Context) ([]core.Student, error) {
	return r.queryStudentsFull(ctx, `
		SELECT id, name, grade, academic_year, parent_phone
		FROM students ORDER BY name ASC`)
}

// SearchStudents filters the full listing by a case-insensitive substring
// match over name or phone. LIKE wildcards in the query are escaped so the
// operator's input always matches literally.
func (r *SQLiteRepository) SearchStudents(ctx context.Context, query string) ([]core.Student, error) {
	pattern := "%" + escapeLikePattern(query) + "%"
	return r.queryStudentsFull(ctx, `
		SELECT id, name, grade, academic_year, parent_phone
		FROM students
		WHERE name LIKE ? ESCAPE '\' OR parent_phone LIKE ? ESCAPE '\'
		ORDER BY name ASC`, pattern, pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

func (r *SQLiteRepository) queryStudentsFull(ctx context.Context, q string, args ...any) ([]core.Student, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []core.Student
	for rows.Next() {
		var (
			s     core.Student
			year  sql.NullString
			phone sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Grade, &year, &phone); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		s.AcademicYear = year.String
		s.ParentPhone = phone.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- installments ---

// CreateInstallments persists a generated fee plan in one transaction. A
// failure on any row rolls back the whole plan; no partial plan is ever
// stored.
func (r *SQLiteRepository) CreateInstallments(ctx context.Context, studentID int64, plan []core.ScheduledInstallment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO installments (student_id, sequence, amount, due_date, status)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare installment insert: %w", err)
	}
	defer stmt.Close()

	for _, inst := range plan {
		if _, err := stmt.ExecContext(ctx, studentID, inst.Sequence, inst.Amount, inst.DueDate, core.StatusPending); err != nil {
			return fmt.Errorf("insert installment %d: %w", inst.Sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	return nil
}

// PendingInstallments returns the collection queue: up to 50 pending
// installments joined with the student name, soonest due date first.
func (r *SQLiteRepository) PendingInstallments(ctx context.Context) ([]core.PendingInstallment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, s.name, i.sequence, i.due_date, i.amount, i.paid_amount
		FROM installments i
		JOIN students s ON i.student_id = s.id
		WHERE i.status = ?
		ORDER BY i.due_date ASC
		LIMIT ?`, core.StatusPending, pendingInstallmentsLimit)
	if err != nil {
		return nil, fmt.Errorf("list pending installments: %w", err)
	}
	defer rows.Close()

	var out []core.PendingInstallment
	for rows.Next() {
		var p core.PendingInstallment
		if err := rows.Scan(&p.ID, &p.StudentName, &p.Sequence, &p.DueDate, &p.Amount, &p.PaidAmount); err != nil {
			return nil, fmt.Errorf("scan pending installment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SettleInstallment marks the installment paid and appends the matching
// payment transaction as one atomic unit; both writes commit together or
// not at all. The submitted amount is recorded as-is even when it differs
// from the scheduled amount. Returns the new transaction id, or
// core.ErrInstallmentNotFound with no writes when the id is unknown.
func (r *SQLiteRepository) SettleInstallment(ctx context.Context, installmentID int64, amount float64, method string, now time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin settlement transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		studentID   int64
		studentName string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT i.student_id, s.name
		FROM installments i
		JOIN students s ON i.student_id = s.id
		WHERE i.id = ?`, installmentID).
		Scan(&studentID, &studentName)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrInstallmentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("look up installment: %w", err)
	}

	timestamp := now.Format(core.TimestampLayout)

	if _, err := tx.ExecContext(ctx, `
		UPDATE installments SET status = ?, paid_amount = ?, paid_date = ?
		WHERE id = ?`,
		core.StatusPaid, amount, timestamp, installmentID); err != nil {
		return 0, fmt.Errorf("mark installment paid: %w", err)
	}

	description := fmt.Sprintf("Installment #%d for student %s", installmentID, studentName)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (student_id, date, amount, type, description, payment_method)
		VALUES (?, ?, ?, ?, ?, ?)`,
		studentID, timestamp, amount, core.KindPayment, description, method)
	if err != nil {
		return 0, fmt.Errorf("record payment transaction: %w", err)
	}
	txnID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("payment transaction id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit settlement: %w", err)
	}
	return txnID, nil
}

// --- ledger ---

// InsertExpense appends an expense transaction with no student reference.
func (r *SQLiteRepository) InsertExpense(ctx context.Context, amount float64, description, method string, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (student_id, date, amount, type, description, payment_method)
		VALUES (NULL, ?, ?, ?, ?, ?)`,
		now.Format(core.TimestampLayout), amount, core.KindExpense, description, method)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}
	return id, nil
}

// DailyTotal sums payment-type transactions whose date falls on the given
// day (YYYY-MM-DD). Days with no payments report 0.
func (r *SQLiteRepository) DailyTotal(ctx context.Context, day string) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE date LIKE ? || '%' AND type = ?`, day, core.KindPayment).
		Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum daily payments: %w", err)
	}
	return total, nil
}

// RecentTransactions returns the given day's latest movements joined with
// the student name, newest first.
func (r *SQLiteRepository) RecentTransactions(ctx context.Context, day string, limit int) ([]core.DailyTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.date, s.name, t.amount, t.payment_method
		FROM transactions t
		JOIN students s ON t.student_id = s.id
		WHERE t.date LIKE ? || '%'
		ORDER BY t.date DESC
		LIMIT ?`, day, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()

	var out []core.DailyTransaction
	for rows.Next() {
		var (
			t      core.DailyTransaction
			method sql.NullString
		)
		if err := rows.Scan(&t.Date, &t.StudentName, &t.Amount, &method); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.PaymentMethod = method.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// OverdueCount counts pending installments due strictly before the given
// day.
func (r *SQLiteRepository) OverdueCount(ctx context.Context, day string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(id) FROM installments
		WHERE due_date < ? AND status = ?`, day, core.StatusPending).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count overdue installments: %w", err)
	}
	return count, nil
}

// GetInstallment returns one installment row, or core.ErrInstallmentNotFound.
func (r *SQLiteRepository) GetInstallment(ctx context.Context, id int64) (core.Installment, error) {
	var (
		inst     core.Installment
		paidDate sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, sequence, amount, paid_amount, due_date, paid_date, status
		FROM installments WHERE id = ?`, id).
		Scan(&inst.ID, &inst.StudentID, &inst.Sequence, &inst.Amount, &inst.PaidAmount, &inst.DueDate, &paidDate, &inst.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Installment{}, core.ErrInstallmentNotFound
	}
	if err != nil {
		return core.Installment{}, fmt.Errorf("get installment: %w", err)
	}
	inst.PaidDate = paidDate.String
	return inst, nil
}

// GetTransaction fetches one ledger row by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		t         core.Transaction
		studentID sql.NullInt64
		method    sql.NullString
		desc      sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, date, amount, type, description, payment_method
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &studentID, &t.Date, &t.Amount, &t.Kind, &desc, &method)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.StudentID = studentID.Int64
	t.Description = desc.String
	t.PaymentMethod = method.String
	return t, nil
}

// TransactionsAfter returns up to limit ledger rows with id greater than
// afterID, oldest first. Used by the export worker's cursor catch-up.
func (r *SQLiteRepository) TransactionsAfter(ctx context.Context, afterID int64, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, date, amount, type, description, payment_method
		FROM transactions
		WHERE id > ?
		ORDER BY id ASC
		LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions after %d: %w", afterID, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t         core.Transaction
			studentID sql.NullInt64
			method    sql.NullString
			desc      sql.NullString
		)
		if err := rows.Scan(&t.ID, &studentID, &t.Date, &t.Amount, &t.Kind, &desc, &method); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.StudentID = studentID.Int64
		t.Description = desc.String
		t.PaymentMethod = method.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// ExportCursor returns the id of the last transaction exported to the
// external ledger.
func (r *SQLiteRepository) ExportCursor(ctx context.Context) (int64, error) {
	var cursor int64
	err := r.db.QueryRowContext(ctx,
		`SELECT cursor FROM export_state WHERE id = 1`).Scan(&cursor)
	if err != nil {
		return 0, fmt.Errorf("read export cursor: %w", err)
	}
	return cursor, nil
}

// SetExportCursor advances the export cursor.
func (r *SQLiteRepository) SetExportCursor(ctx context.Context, cursor int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE export_state SET cursor = ? WHERE id = 1`, cursor); err != nil {
		return fmt.Errorf("set export cursor: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
