package http

import (
	"net/http"

	"tahseel/internal/core"
	"tahseel/internal/log"
)

// handleDailyStatsPartial renders today's snapshot: total collected, the
// latest movements and the overdue installment count.
func (s *Server) handleDailyStatsPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	stats, err := s.finance.DailyStats(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Daily stats error", log.FieldError, err)
		_, _ = w.Write([]byte(`<section id="daily-stats" class="daily-stats"><div class="placeholder">Error loading daily stats</div></section>`))
		return
	}

	data := struct {
		Total        string
		Transactions []core.DailyTransaction
		OverdueCount int64
	}{
		Total:        core.FormatAmount(stats.Total),
		Transactions: stats.Transactions,
		OverdueCount: stats.OverdueCount,
	}

	if err := s.templates.ExecuteTemplate(w, "daily_stats.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			log.FieldError, err, "template", "daily_stats.html")
		_, _ = w.Write([]byte(`<section id="daily-stats" class="daily-stats"><div class="placeholder">Error rendering daily stats</div></section>`))
	}
}

// handlePendingPartial renders the collection queue, soonest due first.
func (s *Server) handlePendingPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	pending, err := s.finance.PendingInstallments(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Pending installments error", log.FieldError, err)
		_, _ = w.Write([]byte(`<section id="pending-installments" class="pending-installments"><div class="placeholder">Error loading installments</div></section>`))
		return
	}

	type row struct {
		ID          int64
		StudentName string
		Sequence    int
		DueDate     string
		Amount      string
	}
	data := struct {
		Rows []row
	}{}
	for _, p := range pending {
		data.Rows = append(data.Rows, row{
			ID:          p.ID,
			StudentName: p.StudentName,
			Sequence:    p.Sequence,
			DueDate:     p.DueDate,
			Amount:      core.FormatAmount(p.Amount),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "pending_installments.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			log.FieldError, err, "template", "pending_installments.html")
		_, _ = w.Write([]byte(`<section id="pending-installments" class="pending-installments"><div class="placeholder">Error rendering installments</div></section>`))
	}
}
