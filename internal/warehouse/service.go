package warehouse

import (
	"context"
	"database/sql"
	goerrors "errors"
	"fmt"
	"strings"
	"time"

	"dwhctl/internal/observability"
	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"

	"github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
)

// Engine selects the SQL backend and the dialect statements are rendered in.
type Engine string

const (
	EngineRedshift Engine = "redshift"
	EngineDuckDB   Engine = "duckdb"
)

// ParseEngine validates an engine name from the command line.
func ParseEngine(name string) (Engine, error) {
	switch Engine(strings.ToLower(name)) {
	case EngineRedshift, "":
		return EngineRedshift, nil
	case EngineDuckDB:
		return EngineDuckDB, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown engine %q", name)).
			WithSuggestions("Use --engine redshift or --engine duckdb")
	}
}

func (e Engine) driverName() string {
	if e == EngineDuckDB {
		return "duckdb"
	}
	return "postgres"
}

// Config holds warehouse connection configuration
type Config struct {
	Engine Engine
	DSN    string
	// StatementTimeout bounds each statement; zero waits for the warehouse.
	StatementTimeout time.Duration
	// ConnectTimeout bounds each ping while connecting.
	ConnectTimeout time.Duration
	Retry          *errors.RetryConfig
}

// ConfigFromModel builds the connection settings for engine from dwh.cfg.
func ConfigFromModel(cfg *models.Config, engine Engine) Config {
	c := Config{Engine: engine, ConnectTimeout: 30 * time.Second}
	if engine == EngineDuckDB {
		c.DSN = cfg.Local.DuckDBPath
	} else {
		c.DSN = cfg.Cluster.DSN()
	}
	return c
}

// Statement is one named SQL statement. Each statement commits on its own.
type Statement struct {
	Name string
	SQL  string
}

// StepResult records the outcome of one executed statement.
type StepResult struct {
	Phase    string
	Name     string
	Rows     int64
	Duration time.Duration
	Err      error
}

// Service runs statements against a single warehouse connection.
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
	logger    *observability.Logger
}

// NewService creates a new warehouse service
func NewService(config Config, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if config.Engine == "" {
		config.Engine = EngineRedshift
	}
	return &Service{config: config, logger: logger}
}

// NewServiceWithDB wraps an already open handle.
func NewServiceWithDB(db *sql.DB, engine Engine, logger *observability.Logger) *Service {
	s := NewService(Config{Engine: engine}, logger)
	s.db = db
	s.connected = true
	return s
}

// Engine reports the backend in use.
func (s *Service) Engine() Engine {
	return s.config.Engine
}

// Connect opens the connection, retrying while the endpoint is unreachable.
// A newly authorized ingress rule can take a few seconds to apply.
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}

	retry := errors.DefaultRetryConfig()
	if s.config.Retry != nil {
		copied := *s.config.Retry
		retry = &copied
	}
	retry.Notify = func(err error, next time.Duration) {
		s.logger.WithContext(ctx).Warnf("connection attempt failed, retrying in %s: %v", next.Round(time.Millisecond), err)
	}

	return errors.Retry(ctx, retry, func(ctx context.Context) error {
		db, err := sql.Open(s.config.Engine.driverName(), s.config.DSN)
		if err != nil {
			return errors.ConnectionError("Failed to open warehouse connection", err).
				WithContext("engine", string(s.config.Engine))
		}

		// Statements run strictly one after another on one session.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		pingCtx, cancel := s.timeoutContext(ctx, s.config.ConnectTimeout)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			db.Close()

			var pqErr *pq.Error
			if goerrors.As(err, &pqErr) && pqErr.Code == "28P01" {
				return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
					WithContext("engine", string(s.config.Engine)).
					WithSuggestions("Verify DB_USER and DB_PASSWORD in the [CLUSTER] section")
			}

			return errors.ConnectionError("Failed to connect to warehouse", err).
				WithContext("engine", string(s.config.Engine)).
				AsRecoverable()
		}

		s.db = db
		s.connected = true
		s.logger.WithContext(ctx).Debugf("connected to %s", s.config.Engine)
		return nil
	})
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	s.connected = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// Exec runs one statement in autocommit mode and returns the affected row
// count, or -1 when the driver does not report one.
func (s *Service) Exec(ctx context.Context, stmt Statement) (int64, error) {
	if !s.connected {
		return 0, errors.New(errors.ErrCodeConnectionFailed, "not connected to database").
			WithSuggestions("Call Connect() before executing SQL")
	}

	execCtx, cancel := s.timeoutContext(ctx, s.config.StatementTimeout)
	defer cancel()

	res, err := s.db.ExecContext(execCtx, stmt.SQL)
	if err != nil {
		return 0, classify(errors.SQLError(fmt.Sprintf("Failed to execute %s", stmt.Name), stmt.SQL, err), err).
			WithContext("step", stmt.Name)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return rows, nil
}

// ExecAll runs statements in order, stopping at the first failure. Statements
// that already succeeded stay committed. observe, when set, is called after
// every statement, including the failing one.
func (s *Service) ExecAll(ctx context.Context, phase string, stmts []Statement, observe func(StepResult)) ([]StepResult, error) {
	log := s.logger.WithContext(ctx).WithField("phase", phase)
	results := make([]StepResult, 0, len(stmts))

	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		start := time.Now()
		rows, err := s.Exec(ctx, stmt)
		result := StepResult{Phase: phase, Name: stmt.Name, Rows: rows, Duration: time.Since(start), Err: err}
		results = append(results, result)
		if observe != nil {
			observe(result)
		}

		if err != nil {
			log.ErrorWithFields("statement failed", map[string]interface{}{"step": stmt.Name, "error": err.Error()})
			if appErr, ok := err.(*errors.AppError); ok {
				_ = appErr.WithContext("phase", phase)
			}
			return results, err
		}
		log.InfoWithFields("statement executed", map[string]interface{}{
			"step": stmt.Name, "rows": rows, "duration": result.Duration.String(),
		})
	}
	return results, nil
}

// QueryInt runs a query returning a single integer.
func (s *Service) QueryInt(ctx context.Context, query string) (int64, error) {
	if !s.connected {
		return 0, fmt.Errorf("not connected to database")
	}

	queryCtx, cancel := s.timeoutContext(ctx, s.config.StatementTimeout)
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(queryCtx, query).Scan(&n); err != nil {
		return 0, classify(errors.SQLError("Failed to run query", query, err), err)
	}
	return n, nil
}

// CountRows returns the number of rows in table.
func (s *Service) CountRows(ctx context.Context, table string) (int64, error) {
	return s.QueryInt(ctx, "SELECT COUNT(*) FROM "+table)
}

// TestConnection tests the database connection
func (s *Service) TestConnection(ctx context.Context) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}
	pingCtx, cancel := s.timeoutContext(ctx, s.config.ConnectTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// DB returns the underlying database connection
func (s *Service) DB() *sql.DB {
	return s.db
}

func (s *Service) timeoutContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classify refines the error code using the server's SQLSTATE when present.
func classify(appErr *errors.AppError, cause error) *errors.AppError {
	var pqErr *pq.Error
	if !goerrors.As(cause, &pqErr) {
		return appErr
	}

	appErr.WithContext("sqlstate", string(pqErr.Code))
	switch pqErr.Code {
	case "42P01", "42703":
		appErr.Code = errors.ErrCodeSQLObjectNotFound
	case "42501":
		appErr.Code = errors.ErrCodeSQLPermission
	case "42601":
		appErr.Code = errors.ErrCodeSQLSyntax
	case "57014":
		appErr.Code = errors.ErrCodeSQLTimeout
	}
	return appErr
}
