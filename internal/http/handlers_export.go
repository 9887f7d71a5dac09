package http

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/export"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

type exportRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Format    string `json:"format"`
	Currency  string `json:"currency"`
}

// handleStartExport starts an export job. Format and currency default to the
// stored preferences.
func (s *Server) handleStartExport(w http.ResponseWriter, r *http.Request) {
	var body exportRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := s.prefs.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	req := services.ExportRequest{
		Format:         prefs.ExportFormat,
		CurrencySymbol: prefs.CurrencySymbol,
	}
	if strings.TrimSpace(body.Format) != "" {
		if req.Format, err = export.ParseFormat(body.Format); err != nil {
			writeError(w, r, badRequestf("%v", err))
			return
		}
	}
	if c := sanitizeInput(body.Currency); c != "" {
		req.CurrencySymbol = c
	}
	q := url.Values{"from": {body.StartDate}, "to": {body.EndDate}}
	if req.Start, req.End, err = parseRange(q, s.today()); err != nil {
		writeError(w, r, err)
		return
	}

	snap := s.jobs.Submit(req)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Export submitted",
		log.NewFields().WithExport(snap.ID, string(req.Format), req.Start, req.End).ToSlice()...)
	NewJSONResponse().
		Status(http.StatusAccepted).
		Header("Location", "/api/exports/"+snap.ID).
		Body(snap).
		Write(w)
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.jobs.List()).Write(w)
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleCancelExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.jobs.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

// handleDownloadExport streams a completed artifact.
func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if snap.State != services.StateComplete || snap.Result == nil {
		ErrorResponse(http.StatusConflict, fmt.Sprintf("export is %s", snap.State)).Write(w)
		return
	}

	rc, err := s.artifacts.Open(r.Context(), snap.Result.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", snap.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, snap.Result.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Artifact download interrupted",
			log.FieldExportID, snap.ID, log.FieldError, err)
	}
}
