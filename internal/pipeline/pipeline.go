package pipeline

import (
	"context"
	"fmt"
	"time"

	"dwhctl/internal/loader"
	"dwhctl/internal/observability"
	"dwhctl/internal/schema"
	"dwhctl/internal/transform"
	"dwhctl/internal/warehouse"
	"dwhctl/pkg/errors"
)

// Phases in the only order they may run.
var Phases = []string{schema.Phase, loader.Phase, transform.Phase}

// Stages holds the component for each phase. A nil stage cannot be run.
type Stages struct {
	Schema      *schema.Manager
	Loader      *loader.Loader
	Transformer *transform.Transformer
}

// Summary describes one run.
type Summary struct {
	RunID    string
	Phases   []string
	Started  time.Time
	Duration time.Duration
	Steps    []warehouse.StepResult
	Staging  []loader.StagingCount
	Err      error
}

// Failed returns the failing step, if any.
func (s *Summary) Failed() (warehouse.StepResult, bool) {
	for _, step := range s.Steps {
		if step.Err != nil {
			return step, true
		}
	}
	return warehouse.StepResult{}, false
}

// Runner executes phases strictly in order.
type Runner struct {
	stages  Stages
	logger  *observability.Logger
	observe func(warehouse.StepResult)
}

// NewRunner creates a runner. observe, when set, sees every statement result.
func NewRunner(stages Stages, logger *observability.Logger, observe func(warehouse.StepResult)) *Runner {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Runner{stages: stages, logger: logger, observe: observe}
}

// Order validates phases and sorts them into execution order.
func Order(phases []string) ([]string, error) {
	wanted := make(map[string]bool, len(phases))
	for _, p := range phases {
		if !isPhase(p) {
			return nil, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown phase %q", p)).
				WithSuggestions(fmt.Sprintf("Valid phases are %v", Phases))
		}
		wanted[p] = true
	}

	var ordered []string
	for _, p := range Phases {
		if wanted[p] {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func isPhase(name string) bool {
	for _, p := range Phases {
		if p == name {
			return true
		}
	}
	return false
}

// Statements returns what a phase would execute, without running it.
func (r *Runner) Statements(phase string) ([]warehouse.Statement, error) {
	switch phase {
	case schema.Phase:
		if r.stages.Schema != nil {
			return r.stages.Schema.Statements(), nil
		}
	case loader.Phase:
		if r.stages.Loader != nil {
			return r.stages.Loader.Statements(), nil
		}
	case transform.Phase:
		if r.stages.Transformer != nil {
			return transform.Statements(), nil
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown phase %q", phase))
	}
	return nil, errors.New(errors.ErrCodeInternal, fmt.Sprintf("phase %s is not configured", phase))
}

// Run executes the requested phases in order. Each phase completes before the
// next starts and the first failure ends the run.
func (r *Runner) Run(ctx context.Context, phases ...string) (*Summary, error) {
	ordered, err := Order(phases)
	if err != nil {
		return nil, err
	}

	runID := observability.RunIDFromContext(ctx)
	if runID == "" {
		runID = observability.NewRunID()
		ctx = observability.ContextWithRunID(ctx, runID)
	}
	log := r.logger.WithContext(ctx)

	summary := &Summary{RunID: runID, Phases: ordered, Started: time.Now()}
	defer func() { summary.Duration = time.Since(summary.Started) }()

	log.InfoWithFields("run started", map[string]interface{}{"phases": ordered})
	for _, phase := range ordered {
		start := time.Now()
		steps, staging, err := r.runPhase(ctx, phase)
		summary.Steps = append(summary.Steps, steps...)
		summary.Staging = append(summary.Staging, staging...)
		if err != nil {
			summary.Err = err
			log.ErrorWithFields("phase failed", map[string]interface{}{"phase": phase, "error": err.Error()})
			return summary, err
		}
		log.InfoWithFields("phase completed", map[string]interface{}{
			"phase": phase, "statements": len(steps), "duration": time.Since(start).String(),
		})
	}
	return summary, nil
}

func (r *Runner) runPhase(ctx context.Context, phase string) ([]warehouse.StepResult, []loader.StagingCount, error) {
	switch phase {
	case schema.Phase:
		if r.stages.Schema == nil {
			break
		}
		steps, err := r.stages.Schema.Reset(ctx, r.observe)
		return steps, nil, err
	case loader.Phase:
		if r.stages.Loader == nil {
			break
		}
		result, err := r.stages.Loader.Load(ctx, r.observe)
		if result == nil {
			return nil, nil, err
		}
		return result.Steps, result.Counts, err
	case transform.Phase:
		if r.stages.Transformer == nil {
			break
		}
		steps, err := r.stages.Transformer.Run(ctx, r.observe)
		return steps, nil, err
	}
	return nil, nil, errors.New(errors.ErrCodeInternal, fmt.Sprintf("phase %s is not configured", phase))
}
