package http

import (
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/preferences"
)

type preferencesRequest struct {
	CurrencySymbol   *string `json:"currencySymbol"`
	ExportFormat     *string `json:"exportFormat"`
	DuplicateCheck   *bool   `json:"duplicateCheck"`
	LastUsedCategory *string `json:"lastUsedCategory"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.prefs.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

// handleUpdatePreferences applies a partial update; absent fields are kept.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var body preferencesRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	u := preferences.Update{
		CurrencySymbol: body.CurrencySymbol,
		DuplicateCheck: body.DuplicateCheck,
	}
	if body.ExportFormat != nil {
		f, err := export.ParseFormat(*body.ExportFormat)
		if err != nil {
			writeError(w, r, badRequestf("%v", err))
			return
		}
		u.ExportFormat = &f
	}
	if body.LastUsedCategory != nil {
		c, err := core.ParseCategory(*body.LastUsedCategory)
		if err != nil {
			writeError(w, r, err)
			return
		}
		u.LastUsedCategory = &c
	}

	p, err := s.prefs.Apply(r.Context(), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}
