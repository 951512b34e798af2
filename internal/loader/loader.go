package loader

import (
	"context"

	"dwhctl/internal/observability"
	"dwhctl/internal/schema"
	"dwhctl/internal/warehouse"
	"dwhctl/pkg/errors"
)

// Phase is the name load statements are reported under.
const Phase = "load"

// Warehouse is what the loader needs from a connection.
type Warehouse interface {
	ExecAll(ctx context.Context, phase string, stmts []warehouse.Statement, observe func(warehouse.StepResult)) ([]warehouse.StepResult, error)
	CountRows(ctx context.Context, table string) (int64, error)
}

// StagingCount is the row count of one staging table after the load.
type StagingCount struct {
	Table string
	Rows  int64
}

// Result describes a completed load.
type Result struct {
	Steps  []warehouse.StepResult
	Counts []StagingCount
}

// Loader fills the staging tables.
type Loader struct {
	wh     Warehouse
	stmts  []warehouse.Statement
	logger *observability.Logger
}

// New creates a loader running the COPY statements for src.
func New(wh Warehouse, src Sources, logger *observability.Logger) *Loader {
	return newLoader(wh, CopyStatements(src), logger)
}

// NewLocal creates a loader reading JSON files from local directories.
func NewLocal(wh Warehouse, src LocalSources, logger *observability.Logger) *Loader {
	return newLoader(wh, LocalStatements(src), logger)
}

func newLoader(wh Warehouse, stmts []warehouse.Statement, logger *observability.Logger) *Loader {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Loader{wh: wh, stmts: stmts, logger: logger}
}

// Statements returns the load statements in execution order.
func (l *Loader) Statements() []warehouse.Statement {
	return l.stmts
}

// Load runs both loads. Nothing is retried and a failed load leaves whatever
// the warehouse already staged. Row counts are collected for reporting only.
func (l *Loader) Load(ctx context.Context, observe func(warehouse.StepResult)) (*Result, error) {
	steps, err := l.wh.ExecAll(ctx, Phase, l.stmts, observe)
	result := &Result{Steps: steps}
	if err != nil {
		return result, errors.Wrap(err, errors.GetErrorCode(err), "staging load failed").
			WithContext("phase", Phase).
			WithSuggestions(
				"Check that IAM_ROLE.ARN can read the S3 sources",
				"Run 'dwhctl etl --check-sources' to verify the source locations",
			)
	}

	for _, table := range schema.TablesByRole(schema.RoleStaging) {
		n, err := l.wh.CountRows(ctx, table.Name)
		if err != nil {
			l.logger.WithContext(ctx).Warnf("could not count %s: %v", table.Name, err)
			continue
		}
		result.Counts = append(result.Counts, StagingCount{Table: table.Name, Rows: n})
		l.logger.WithContext(ctx).InfoWithFields("staging table loaded", map[string]interface{}{
			"table": table.Name, "rows": n,
		})
	}
	return result, nil
}
