package schema

import (
	"context"

	"dwhctl/internal/warehouse"
	"dwhctl/pkg/errors"
)

// Phase is the name schema statements are reported under.
const Phase = "schema"

// Executor runs statements in order and stops at the first failure.
type Executor interface {
	ExecAll(ctx context.Context, phase string, stmts []warehouse.Statement, observe func(warehouse.StepResult)) ([]warehouse.StepResult, error)
}

// Manager resets the warehouse schema.
type Manager struct {
	exec   Executor
	engine warehouse.Engine
}

// NewManager creates a schema manager rendering for engine.
func NewManager(exec Executor, engine warehouse.Engine) *Manager {
	return &Manager{exec: exec, engine: engine}
}

// Statements returns the full reset sequence: every drop, then every create.
func (m *Manager) Statements() []warehouse.Statement {
	return append(DropStatements(m.engine), CreateStatements(m.engine)...)
}

// Reset drops and recreates all tables. Each statement commits on its own,
// so a failure part-way leaves the schema partially rebuilt; running Reset
// again repairs it.
func (m *Manager) Reset(ctx context.Context, observe func(warehouse.StepResult)) ([]warehouse.StepResult, error) {
	results, err := m.exec.ExecAll(ctx, Phase, m.Statements(), observe)
	if err != nil {
		return results, errors.Wrap(err, errors.GetErrorCode(err), "schema reset failed").
			WithSeverity(errors.SeverityCritical).
			WithSuggestions("Re-run 'dwhctl create-tables'; every statement is idempotent")
	}
	return results, nil
}
