package http

import (
	"net/http"

	"expensetracker/internal/core"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query(), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload, err := s.expenses.Report(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newReportView(from, to, s.currency(r), payload)).Write(w)
}

func (s *Server) handleDailyTotal(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r.URL.Query(), "date", s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, count, err := s.expenses.DailyTotal(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency := s.currency(r)
	NewJSONResponse().Body(map[string]any{
		"date":      date.String(),
		"total":     total.StringFixed(2),
		"formatted": total.Format(currency),
		"count":     count,
		"currency":  currency,
	}).Write(w)
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
