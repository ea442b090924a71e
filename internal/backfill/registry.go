package backfill

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run is the observable state of one backfill invocation
type Run struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Operation string    `json:"operation"`
	StartedAt time.Time `json:"startedAt"`

	mu       sync.Mutex
	progress Progress
	tally    *Tally
	err      string
	done     bool
}

// Observe records live progress; it satisfies ProgressFunc
func (r *Run) Observe(p Progress) {
	r.mu.Lock()
	r.progress = p
	r.mu.Unlock()
}

// RunStatus is the serializable snapshot of a run
type RunStatus struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Operation string    `json:"operation"`
	StartedAt time.Time `json:"startedAt"`
	Running   bool      `json:"running"`
	Progress  Progress  `json:"progress"`
	Tally     *Tally    `json:"tally,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Status returns a consistent snapshot of the run
func (r *Run) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunStatus{
		ID:        r.ID,
		Owner:     r.Owner,
		Operation: r.Operation,
		StartedAt: r.StartedAt,
		Running:   !r.done,
		Progress:  r.progress,
		Tally:     r.tally,
		Error:     r.err,
	}
}

// ErrRunActive is returned when a backfill is already running for the
// same owner and operation
var ErrRunActive = fmt.Errorf("backfill already running")

// Registry tracks backfill runs so callers can observe live progress and
// so at most one run per owner and operation is active at a time
type Registry struct {
	mu   sync.Mutex
	runs map[string]*Run
}

// NewRegistry creates an empty run registry
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

func runKey(owner, operation string) string {
	return owner + "/" + operation
}

// Begin registers a new run, rejecting it with ErrRunActive while a run
// for the same owner and operation is still in flight. Finished runs are
// kept until replaced so their final tally stays queryable.
func (reg *Registry) Begin(owner, operation string) (*Run, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	key := runKey(owner, operation)
	if existing, ok := reg.runs[key]; ok {
		existing.mu.Lock()
		active := !existing.done
		existing.mu.Unlock()
		if active {
			return nil, ErrRunActive
		}
	}

	run := &Run{
		ID:        uuid.NewString(),
		Owner:     owner,
		Operation: operation,
		StartedAt: time.Now(),
	}
	reg.runs[key] = run
	return run, nil
}

// Finish marks a run complete with its final tally
func (reg *Registry) Finish(run *Run, tally Tally, err error) {
	run.mu.Lock()
	defer run.mu.Unlock()
	run.tally = &tally
	if err != nil {
		run.err = err.Error()
	}
	run.done = true
}

// Get returns the latest run for an owner and operation
func (reg *Registry) Get(owner, operation string) (*Run, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	run, ok := reg.runs[runKey(owner, operation)]
	return run, ok
}

// Active reports whether a run for the owner and operation is in flight
func (reg *Registry) Active(owner, operation string) bool {
	run, ok := reg.Get(owner, operation)
	if !ok {
		return false
	}
	return run.Status().Running
}
