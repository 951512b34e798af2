package testutil

import (
	"context"
	"sync"

	"dwhctl/internal/warehouse"
)

// RecordingExecutor records statements instead of running them. FailOn makes
// the named step fail with Err.
type RecordingExecutor struct {
	mu     sync.Mutex
	Phases []string
	Steps  []warehouse.Statement
	FailOn string
	Err    error
}

// ExecAll records stmts in order and stops at the failing step.
func (r *RecordingExecutor) ExecAll(ctx context.Context, phase string, stmts []warehouse.Statement, observe func(warehouse.StepResult)) ([]warehouse.StepResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Phases = append(r.Phases, phase)
	var results []warehouse.StepResult
	for _, stmt := range stmts {
		r.Steps = append(r.Steps, stmt)
		result := warehouse.StepResult{Phase: phase, Name: stmt.Name}
		if stmt.Name == r.FailOn {
			result.Err = r.Err
		}
		results = append(results, result)
		if observe != nil {
			observe(result)
		}
		if result.Err != nil {
			return results, result.Err
		}
	}
	return results, nil
}

// Names lists the recorded step names.
func (r *RecordingExecutor) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		names[i] = s.Name
	}
	return names
}
