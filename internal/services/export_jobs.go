package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"expensetracker/internal/export"
	"expensetracker/internal/log"
)

// ErrJobNotFound is returned for unknown export job ids.
var ErrJobNotFound = errors.New("export job not found")

// ExportCompletion describes a finished export job.
type ExportCompletion struct {
	ID          string
	Format      export.Format
	State       ExportState
	Location    string
	RecordCount int
	Error       string
	FinishedAt  time.Time
}

// CompletionNotifier is told about every job that reaches a terminal state.
type CompletionNotifier interface {
	NotifyExportCompleted(ctx context.Context, c ExportCompletion) error
}

// JobSnapshot is a point-in-time view of an export job.
type JobSnapshot struct {
	ID         string        `json:"id"`
	State      ExportState   `json:"state"`
	Format     export.Format `json:"format"`
	Start      string        `json:"startDate"`
	End        string        `json:"endDate"`
	Progress   export.Event  `json:"progress"`
	Result     *ExportResult `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
}

// ExportJobs tracks exports started on behalf of clients. Each job runs
// independently; concurrent requests are neither queued nor deduplicated.
type ExportJobs struct {
	ctx         context.Context
	coordinator *ExportCoordinator
	notifier    CompletionNotifier
	logger      *log.Logger

	mu   sync.RWMutex
	jobs map[string]*ExportRun
	wg   sync.WaitGroup
}

// NewExportJobs creates the registry. Jobs run under ctx, so cancelling it
// cancels every job. notifier may be nil.
func NewExportJobs(ctx context.Context, coordinator *ExportCoordinator, notifier CompletionNotifier, logger *log.Logger) *ExportJobs {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportJobs{
		ctx:         ctx,
		coordinator: coordinator,
		notifier:    notifier,
		logger:      logger.WithComponent(log.ComponentExport),
		jobs:        make(map[string]*ExportRun),
	}
}

// Submit starts an export and returns its snapshot.
func (j *ExportJobs) Submit(req ExportRequest) JobSnapshot {
	run := j.coordinator.Start(j.ctx, req, nil)

	j.mu.Lock()
	j.jobs[run.ID] = run
	j.mu.Unlock()

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		<-run.Done()
		j.notify(run)
	}()
	return snapshot(run)
}

func (j *ExportJobs) notify(run *ExportRun) {
	if j.notifier == nil || run.State() == StateCancelled {
		return
	}
	res, err := run.Result()
	c := ExportCompletion{
		ID:          run.ID,
		Format:      run.Request.Format,
		State:       run.State(),
		Location:    res.Location,
		RecordCount: res.RecordCount,
		FinishedAt:  run.FinishedAt(),
	}
	if err != nil {
		c.Error = err.Error()
	}
	if err := j.notifier.NotifyExportCompleted(context.WithoutCancel(j.ctx), c); err != nil {
		j.logger.Warn("Failed to publish export completion", log.FieldExportID, run.ID, log.FieldError, err)
	}
}

func (j *ExportJobs) Get(id string) (JobSnapshot, error) {
	j.mu.RLock()
	run, ok := j.jobs[id]
	j.mu.RUnlock()
	if !ok {
		return JobSnapshot{}, ErrJobNotFound
	}
	return snapshot(run), nil
}

// Cancel stops a running job. Cancelling a finished job has no effect.
func (j *ExportJobs) Cancel(id string) (JobSnapshot, error) {
	j.mu.RLock()
	run, ok := j.jobs[id]
	j.mu.RUnlock()
	if !ok {
		return JobSnapshot{}, ErrJobNotFound
	}
	if !run.State().Terminal() {
		run.Cancel()
		<-run.Done()
	}
	return snapshot(run), nil
}

// List returns every job, newest first.
func (j *ExportJobs) List() []JobSnapshot {
	j.mu.RLock()
	out := make([]JobSnapshot, 0, len(j.jobs))
	for _, run := range j.jobs {
		out = append(out, snapshot(run))
	}
	j.mu.RUnlock()

	slices.SortFunc(out, func(a, b JobSnapshot) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Prune forgets terminal jobs that finished before cutoff and returns how many.
func (j *ExportJobs) Prune(cutoff time.Time) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for id, run := range j.jobs {
		if run.State().Terminal() && run.FinishedAt().Before(cutoff) {
			delete(j.jobs, id)
			n++
		}
	}
	return n
}

// Wait blocks until every submitted job has finished and been reported.
func (j *ExportJobs) Wait() {
	j.wg.Wait()
}

func snapshot(run *ExportRun) JobSnapshot {
	s := JobSnapshot{
		ID:        run.ID,
		State:     run.State(),
		Format:    run.Request.Format,
		Start:     run.Request.Start.String(),
		End:       run.Request.End.String(),
		Progress:  run.Progress(),
		CreatedAt: run.CreatedAt,
	}
	if s.State.Terminal() {
		res, err := run.Result()
		if err != nil {
			s.Error = err.Error()
		} else if s.State == StateComplete {
			s.Result = &res
		}
		at := run.FinishedAt()
		s.FinishedAt = &at
	}
	return s
}
