package http

import (
	"fmt"
	"net/http"

	"tahseel/internal/core"
	"tahseel/internal/log"
)

func (s *Server) handleCreateFeePlan(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	studentID, ok := ParseID(r.Form.Get("student_id"))
	if !ok {
		UnprocessableEntityError("Invalid student id").Write(w)
		return
	}
	totalFees, err := core.ParseAmount(r.Form.Get("total_fees"))
	if err != nil {
		UnprocessableEntityError("Invalid total fees").Write(w)
		return
	}
	count, ok := ParseCount(r.Form.Get("count"))
	if !ok {
		UnprocessableEntityError("Invalid installment count").Write(w)
		return
	}
	startDate := FormValue(r, "start_date")

	plan, err := s.finance.CreateFeePlan(r.Context(), studentID, totalFees, count, startDate)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create fee plan",
			log.FieldError, err,
			log.FieldStudentID, studentID,
			log.FieldAmount, totalFees,
			log.FieldCount, count)
		errorFor(err).Write(w)
		return
	}

	SuccessResponse(fmt.Sprintf("Fee plan created: %d installments of %s starting %s",
		len(plan), core.FormatAmount(plan[0].Amount), plan[0].DueDate)).
		TriggerPlanCreated(studentID).
		TriggerFormReset().
		Write(w)
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	installmentID, ok := ParseID(r.Form.Get("installment_id"))
	if !ok {
		UnprocessableEntityError("Invalid installment id").Write(w)
		return
	}
	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}
	method := FormValue(r, "method")

	txnID, err := s.finance.SettleInstallment(r.Context(), installmentID, amount, method)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to settle installment",
			log.FieldError, err,
			log.FieldInstallmentID, installmentID,
			log.FieldAmount, amount)
		errorFor(err).Write(w)
		return
	}

	SuccessResponse(fmt.Sprintf("Installment #%d paid: %s (%s)",
		installmentID, core.FormatAmount(amount), method)).
		TriggerInstallmentPaid(installmentID).
		Trigger("ledger:changed", map[string]int64{"transaction_id": txnID}).
		Write(w)
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}
	description := FormValue(r, "description")
	method := FormValue(r, "method")

	id, err := s.finance.RecordExpense(r.Context(), amount, description, method)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to record expense",
			log.FieldError, err, log.FieldAmount, amount)
		errorFor(err).Write(w)
		return
	}

	SuccessResponse(fmt.Sprintf("Expense recorded (#%d): %s %s",
		id, description, core.FormatAmount(amount))).
		TriggerExpenseRecorded(id).
		TriggerFormReset().
		Write(w)
}
