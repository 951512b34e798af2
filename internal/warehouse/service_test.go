package warehouse

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServiceWithDB(db, EngineRedshift, nil), mock
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		input   string
		want    Engine
		wantErr bool
	}{
		{"", EngineRedshift, false},
		{"redshift", EngineRedshift, false},
		{"DuckDB", EngineDuckDB, false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEngine(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := &models.Config{
		Cluster: models.Cluster{Host: "h", DBName: "d", DBUser: "u", DBPassword: "p", DBPort: 5439},
		Local:   models.Local{DuckDBPath: "local.duckdb"},
	}

	assert.Equal(t, "postgres://u:p@h:5439/d", ConfigFromModel(cfg, EngineRedshift).DSN)
	assert.Equal(t, "local.duckdb", ConfigFromModel(cfg, EngineDuckDB).DSN)
}

func TestExecAllRunsInOrderWithoutTransaction(t *testing.T) {
	service, mock := newMockService(t)

	stmts := []Statement{
		{Name: "drop a", SQL: "DROP TABLE IF EXISTS a"},
		{Name: "create a", SQL: "CREATE TABLE IF NOT EXISTS a (id INT)"},
		{Name: "insert a", SQL: "INSERT INTO a SELECT 1"},
	}

	mock.ExpectExec(regexp.QuoteMeta(stmts[0].SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(stmts[1].SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(stmts[2].SQL)).WillReturnResult(sqlmock.NewResult(0, 1))

	var observed []string
	results, err := service.ExecAll(context.Background(), "schema", stmts, func(r StepResult) {
		observed = append(observed, r.Name)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"drop a", "create a", "insert a"}, observed)
	require.Len(t, results, 3)
	assert.Equal(t, int64(1), results[2].Rows)
	assert.Equal(t, "schema", results[0].Phase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecAllStopsAtFirstFailure(t *testing.T) {
	service, mock := newMockService(t)

	stmts := []Statement{
		{Name: "songplays", SQL: "INSERT INTO fact_songplay SELECT 1"},
		{Name: "users", SQL: "INSERT INTO dim_user SELECT 1"},
		{Name: "songs", SQL: "INSERT INTO dim_song SELECT 1"},
	}

	mock.ExpectExec(regexp.QuoteMeta(stmts[0].SQL)).WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta(stmts[1].SQL)).WillReturnError(fmt.Errorf("disk full"))

	results, err := service.ExecAll(context.Background(), "transform", stmts, nil)

	require.Error(t, err)
	assert.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "users", appErr.Context["step"])
	assert.Equal(t, "transform", appErr.Context["phase"])
	assert.Equal(t, errors.ErrCodeSQLExecution, appErr.Code)

	// the songs statement was never sent
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecClassifiesServerErrors(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
		want errors.ErrorCode
	}{
		{"undefined table", "42P01", errors.ErrCodeSQLObjectNotFound},
		{"insufficient privilege", "42501", errors.ErrCodeSQLPermission},
		{"syntax", "42601", errors.ErrCodeSQLSyntax},
		{"other", "XX000", errors.ErrCodeSQLExecution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mock := newMockService(t)
			mock.ExpectExec("SELECT 1").WillReturnError(&pq.Error{Code: tt.code, Message: "server said no"})

			_, err := service.Exec(context.Background(), Statement{Name: "ping", SQL: "SELECT 1"})
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.GetErrorCode(err))
		})
	}
}

func TestExecNotConnected(t *testing.T) {
	service := NewService(Config{}, nil)

	_, err := service.Exec(context.Background(), Statement{Name: "x", SQL: "SELECT 1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected to database")
}

func TestExecHonorsStatementTimeout(t *testing.T) {
	service, mock := newMockService(t)
	service.config.StatementTimeout = 10 * time.Millisecond

	mock.ExpectExec("SELECT 1").WillDelayFor(time.Second).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := service.Exec(context.Background(), Statement{Name: "slow", SQL: "SELECT 1"})
	require.Error(t, err)
}

func TestCountRows(t *testing.T) {
	service, mock := newMockService(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM staging_events")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8056))

	n, err := service.CountRows(context.Background(), "staging_events")
	require.NoError(t, err)
	assert.Equal(t, int64(8056), n)
}

func TestConnectDuckDB(t *testing.T) {
	service := NewService(Config{Engine: EngineDuckDB, DSN: ""}, nil)
	require.NoError(t, service.Connect(context.Background()))
	defer service.Close()

	n, err := service.QueryInt(context.Background(), "SELECT 41 + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestConnectGivesUpOnPermanentFailure(t *testing.T) {
	service := NewService(Config{
		Engine:         EngineRedshift,
		DSN:            "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1",
		ConnectTimeout: time.Second,
		Retry: &errors.RetryConfig{
			MaxRetries:     1,
			InitialDelay:   time.Millisecond,
			MaxDelay:       time.Millisecond,
			Multiplier:     1,
			RetryableError: func(error) bool { return true },
		},
	}, nil)

	err := service.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMaxRetriesExceeded, errors.GetErrorCode(err))
	assert.True(t, errors.IsCode(err, errors.ErrCodeConnectionFailed))
}
