package cmd

import (
	"context"

	"dwhctl/internal/config"
	"dwhctl/internal/loader"
	"dwhctl/internal/observability"
	"dwhctl/internal/pipeline"
	"dwhctl/internal/provision"
	"dwhctl/internal/schema"
	"dwhctl/internal/transform"
	"dwhctl/internal/ui"
	"dwhctl/internal/warehouse"
	"dwhctl/pkg/models"

	"github.com/spf13/cobra"
)

// buildStages wires the phase components for engine on top of wh. wh may be
// nil when the stages are only used to render statements.
func buildStages(cfg *models.Config, engine warehouse.Engine, wh *warehouse.Service) pipeline.Stages {
	var exec interface {
		schema.Executor
		transform.Executor
		loader.Warehouse
	}
	if wh != nil {
		exec = wh
	}

	stages := pipeline.Stages{
		Schema:      schema.NewManager(exec, engine),
		Transformer: transform.New(exec),
	}
	if engine == warehouse.EngineDuckDB {
		stages.Loader = loader.NewLocal(exec, loader.LocalSourcesFromModel(cfg), logger)
	} else {
		stages.Loader = loader.New(exec, loader.SourcesFromModel(cfg), logger)
	}
	return stages
}

// requiredScopes lists the configuration keys the phases need on engine.
func requiredScopes(engine warehouse.Engine, phases []string) []config.Scope {
	var scopes []config.Scope
	if engine == warehouse.EngineDuckDB {
		for _, p := range phases {
			if p == loader.Phase {
				scopes = append(scopes, config.ScopeLocal)
			}
		}
		return scopes
	}

	scopes = append(scopes, config.ScopeWarehouse)
	for _, p := range phases {
		if p == loader.Phase {
			scopes = append(scopes, config.ScopeLoad)
		}
	}
	return scopes
}

// phaseNarrator hands each statement result to the progress display of its
// phase, opening a new display whenever the phase changes.
type phaseNarrator struct {
	ui      *ui.UI
	runner  *pipeline.Runner
	current string
	observe func(warehouse.StepResult)
	finish  func()
}

func (n *phaseNarrator) Observe(r warehouse.StepResult) {
	if r.Phase != n.current {
		n.Finish()
		total := 0
		if stmts, err := n.runner.Statements(r.Phase); err == nil {
			total = len(stmts)
		}
		n.current = r.Phase
		n.observe, n.finish = n.ui.Phase(r.Phase, total)
	}
	n.observe(r)
}

func (n *phaseNarrator) Finish() {
	if n.finish != nil {
		n.finish()
		n.finish = nil
	}
}

// runOptions tweak executePhases for a single command.
type runOptions struct {
	checkSources bool
}

// executePhases loads the configuration, connects and runs phases in order,
// narrating every statement and printing the run summary.
func executePhases(cmd *cobra.Command, phases []string, opts runOptions) error {
	ctx := observability.ContextWithRunID(cmd.Context(), observability.NewRunID())
	out := newUI()

	ordered, err := pipeline.Order(phases)
	if err != nil {
		return err
	}
	engine, err := selectedEngine()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(requiredScopes(engine, ordered)...)
	if err != nil {
		return err
	}

	if opts.checkSources {
		if err := checkSources(ctx, out, cfg, engine); err != nil {
			return err
		}
	}

	out.StartProgress("Connecting to " + string(engine))
	wh, err := openWarehouse(ctx, cfg, engine)
	out.StopProgress(err == nil, "Connected to "+string(engine))
	if err != nil {
		return err
	}
	defer wh.Close()

	narrator := &phaseNarrator{ui: out}
	runner := pipeline.NewRunner(buildStages(cfg, engine, wh), logger, narrator.Observe)
	narrator.runner = runner

	summary, err := runner.Run(ctx, ordered...)
	narrator.Finish()
	if !out.IsQuiet() {
		ui.ShowSummary(summary)
	}
	if err != nil {
		return err
	}

	out.Success("Run " + summary.RunID + " completed")
	return nil
}

func checkSources(ctx context.Context, out *ui.UI, cfg *models.Config, engine warehouse.Engine) error {
	out.StartProgress("Checking sources")
	var err error
	if engine == warehouse.EngineDuckDB {
		err = loader.CheckLocalSources(loader.LocalSourcesFromModel(cfg))
	} else {
		var clients *provision.Clients
		clients, err = provision.NewClients(ctx, cfg.AWS)
		if err == nil {
			err = loader.CheckSources(ctx, clients.S3, loader.SourcesFromModel(cfg))
		}
	}
	out.StopProgress(err == nil, "Sources checked")
	return err
}
