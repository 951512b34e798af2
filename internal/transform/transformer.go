package transform

import (
	"context"

	"dwhctl/internal/warehouse"
	"dwhctl/pkg/errors"
)

// Phase is the name transform statements are reported under.
const Phase = "transform"

// Executor runs statements in order and stops at the first failure.
type Executor interface {
	ExecAll(ctx context.Context, phase string, stmts []warehouse.Statement, observe func(warehouse.StepResult)) ([]warehouse.StepResult, error)
}

// Transformer populates the fact and dimension tables from staging.
type Transformer struct {
	exec Executor
}

// New creates a transformer.
func New(exec Executor) *Transformer {
	return &Transformer{exec: exec}
}

// Run executes the five inserts. A failure stops the remaining steps; the
// steps that already ran stay committed.
func (t *Transformer) Run(ctx context.Context, observe func(warehouse.StepResult)) ([]warehouse.StepResult, error) {
	results, err := t.exec.ExecAll(ctx, Phase, Statements(), observe)
	if err != nil {
		completed := make([]string, 0, len(results))
		for _, r := range results {
			if r.Err == nil {
				completed = append(completed, r.Name)
			}
		}
		return results, errors.Wrap(err, errors.GetErrorCode(err), "transform failed").
			WithContext("completed_steps", completed)
	}
	return results, nil
}
