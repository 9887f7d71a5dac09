// Package http serves the expense and export API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/artifact"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/preferences"
	"expensetracker/internal/services"
)

// Deps are the services the API is built on.
type Deps struct {
	Expenses    *services.ExpenseService
	Jobs        *services.ExportJobs
	Preferences *preferences.Service
	Artifacts   artifact.Sink

	// Ready, when set, backs /readyz.
	Ready func(context.Context) error

	Logger             *log.Logger
	RateLimitPerMinute int
	DefaultCurrency    string
}

type Server struct {
	http.Server

	expenses        *services.ExpenseService
	jobs            *services.ExportJobs
	prefs           *preferences.Service
	artifacts       artifact.Sink
	ready           func(context.Context) error
	defaultCurrency string
	now             func() time.Time

	limiter      *ratelimit.Limiter
	stopLimiter  context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		expenses:        d.Expenses,
		jobs:            d.Jobs,
		prefs:           d.Preferences,
		artifacts:       d.Artifacts,
		ready:           d.Ready,
		defaultCurrency: d.DefaultCurrency,
		now:             time.Now,
		limiter:         ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopLimiter = cancel
	go s.limiter.Run(ctx)

	s.Handler = s.routes(d.Logger.WithComponent(log.ComponentHTTP))
	return s
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	detector := security.NewDetector()

	r := chi.NewRouter()
	r.Use(trace.Middleware)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(trace.FromRequest))
	r.Use(log.AccessLog(detector.ExtractClientIP))
	r.Use(detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
		}))

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/{id}", s.handleGetExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Get("/reports", s.handleReport)
		r.Get("/reports/daily-total", s.handleDailyTotal)

		r.Route("/exports", func(r chi.Router) {
			r.Get("/", s.handleListExports)
			r.Post("/", s.handleStartExport)
			r.Get("/{id}", s.handleGetExport)
			r.Delete("/{id}", s.handleCancelExport)
			r.Get("/{id}/download", s.handleDownloadExport)
		})

		r.Get("/preferences", s.handleGetPreferences)
		r.Put("/preferences", s.handleUpdatePreferences)
	})
	return r
}

// Shutdown stops background work and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopLimiter()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
