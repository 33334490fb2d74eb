package machine

import (
	"context"

	"github.com/jimezsa/heyjobs/internal/models"
)

// Status summarizes how a run ended.
type Status string

const (
	StatusSaved       Status = "saved"
	StatusPartial     Status = "partial"
	StatusEmpty       Status = "empty"
	StatusFailed      Status = "failed"
	StatusSetupFailed Status = "setup_failed"
)

// Outcome is everything a finished run reports back to the caller.
type Outcome struct {
	Path    []Kind
	Cause   *Cause
	Records int
	Faults  int
	Report  models.SaveReport
}

func (o Outcome) Status() Status {
	switch {
	case o.Cause != nil && o.Cause.State == KindInit:
		return StatusSetupFailed
	case o.Cause != nil:
		return StatusFailed
	case o.Report.Partial():
		return StatusPartial
	case len(o.Report.Saved) > 0:
		return StatusSaved
	default:
		return StatusEmpty
	}
}

// ExitCode maps the outcome to a process exit code. Without strict mode
// every run exits 0, whichever path it took.
func (o Outcome) ExitCode(strict bool) int {
	if !strict {
		return 0
	}
	switch o.Status() {
	case StatusFailed, StatusSetupFailed:
		return 1
	case StatusPartial:
		return 2
	default:
		return 0
	}
}

// Machine drives states from Init until a terminal state is reached.
type Machine struct {
	deps    Deps
	current State
}

func New(deps Deps) *Machine {
	return NewAt(deps, Init{})
}

// NewAt starts the machine from an arbitrary state.
func NewAt(deps Deps, start State) *Machine {
	return &Machine{deps: deps, current: start}
}

// Run executes the machine to completion. It is not safe to call twice.
func (m *Machine) Run(ctx context.Context) Outcome {
	var out Outcome
	for m.current != nil {
		state := m.current
		kind := state.Kind()
		out.Path = append(out.Path, kind)

		res := state.Run(ctx, &m.deps)
		out.observe(kind, res)

		m.current = state.Next(&m.deps, res)
	}
	return out
}

func (o *Outcome) observe(kind Kind, res Result) {
	if res.Err != nil && o.Cause == nil {
		o.Cause = &Cause{State: kind, Err: res.Err}
	}
	switch kind {
	case KindParse:
		o.Records = len(res.Records)
		o.Faults = len(res.Faults)
	case KindSave:
		o.Report = res.Report
	}
}
