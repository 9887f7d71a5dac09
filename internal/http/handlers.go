package http

import (
	"context"
	"net/http"
	"time"

	"expensetracker/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports whether the expense store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// currency is the display currency for a request: the currency query
// parameter, else the stored preference.
func (s *Server) currency(r *http.Request) string {
	if c := sanitizeInput(r.URL.Query().Get("currency")); c != "" {
		return c
	}
	p, err := s.prefs.Load(r.Context())
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Preferences unavailable", log.FieldError, err)
		return s.defaultCurrency
	}
	return p.CurrencySymbol
}
