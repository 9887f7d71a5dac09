package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, category, err := req.fields()
	if err != nil {
		writeError(w, r, err)
		return
	}
	ts := s.now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	e, err := core.NewExpense(sanitizeInput(req.Title), amount, category, sanitizeInput(req.Notes), req.ReceiptImageURIs, ts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	check := true
	if req.CheckDuplicates != nil {
		check = *req.CheckDuplicates
	} else if prefs, err := s.prefs.Load(r.Context()); err == nil {
		check = prefs.DuplicateCheck
	} else {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Preferences unavailable, using duplicate check", log.FieldError, err)
	}

	created, err := s.expenses.Create(r.Context(), e, services.CreateOptions{CheckDuplicates: check})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+created.ID).
		Body(newExpenseView(created)).
		Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f storage.Filter
	if v := q.Get("from"); v != "" {
		d, err := parseDateParam(q, "from", core.Date{})
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.From = &d
	}
	if v := q.Get("to"); v != "" {
		d, err := parseDateParam(q, "to", core.Date{})
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.To = &d
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Category = c
	}
	f.Query = sanitizeInput(q.Get("q"))

	expenses, err := s.expenses.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newExpenseViews(expenses)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newExpenseView(e)).Write(w)
}

// handleUpdateExpense replaces an expense. Without a timestamp the stored one
// is kept.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	existing, err := s.expenses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, category, err := req.fields()
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated := existing
	updated.Title = sanitizeInput(req.Title)
	updated.Amount = amount
	updated.Category = category
	updated.Notes = sanitizeInput(req.Notes)
	updated.ReceiptImageURIs = append([]string(nil), req.ReceiptImageURIs...)
	if req.Timestamp != nil {
		updated.Timestamp = *req.Timestamp
		updated.Date = core.DateOf(*req.Timestamp)
	}

	if err := s.expenses.Update(r.Context(), updated); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newExpenseView(updated)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
