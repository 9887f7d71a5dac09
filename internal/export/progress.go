package export

import "sync"

// ProgressFunc receives progress events. It is called synchronously from the
// export goroutine and must not block.
type ProgressFunc func(message string, percent int)

// Event is one progress report.
type Event struct {
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

// Tracker forwards progress events while keeping the delivered percentages
// inside [0,100] and non-decreasing. After Stop nothing more is delivered.
type Tracker struct {
	mu      sync.Mutex
	fn      ProgressFunc
	last    int
	started bool
	stopped bool
}

// NewTracker wraps fn, which may be nil.
func NewTracker(fn ProgressFunc) *Tracker {
	return &Tracker{fn: fn}
}

// Report delivers an event. Percentages below the last delivered value are
// raised to it.
func (t *Tracker) Report(message string, percent int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	percent = min(max(percent, 0), 100)
	if t.started && percent < t.last {
		percent = t.last
	}
	t.last, t.started = percent, true
	if t.fn != nil {
		t.fn(message, percent)
	}
}

// Func returns Report as a ProgressFunc, for handing to sub-steps.
func (t *Tracker) Func() ProgressFunc { return t.Report }

// Stop silences the tracker.
func (t *Tracker) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Last returns the last delivered percentage.
func (t *Tracker) Last() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (p ProgressFunc) report(message string, percent int) {
	if p != nil {
		p(message, percent)
	}
}
