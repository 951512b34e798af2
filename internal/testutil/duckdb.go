package testutil

import (
	"context"
	"testing"

	"dwhctl/internal/warehouse"
)

// OpenDuckDB returns a connected in-memory DuckDB service closed at test end.
func OpenDuckDB(t *testing.T) *warehouse.Service {
	t.Helper()
	service := warehouse.NewService(warehouse.Config{Engine: warehouse.EngineDuckDB}, nil)
	if err := service.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to open duckdb: %v", err)
	}
	t.Cleanup(func() { service.Close() })
	return service
}

// MustExec runs sql and fails the test on error.
func MustExec(t *testing.T, service *warehouse.Service, sql string) {
	t.Helper()
	if _, err := service.Exec(context.Background(), warehouse.Statement{Name: "fixture", SQL: sql}); err != nil {
		t.Fatalf("fixture statement failed: %v\n%s", err, sql)
	}
}

// QueryStrings runs a query returning one column and collects it as strings.
func QueryStrings(t *testing.T, service *warehouse.Service, query string) []string {
	t.Helper()
	rows, err := service.DB().QueryContext(context.Background(), query)
	if err != nil {
		t.Fatalf("query failed: %v\n%s", err, query)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v *string
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if v == nil {
			out = append(out, "NULL")
			continue
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	return out
}

// Count returns the row count of table.
func Count(t *testing.T, service *warehouse.Service, table string) int64 {
	t.Helper()
	n, err := service.CountRows(context.Background(), table)
	if err != nil {
		t.Fatalf("count %s failed: %v", table, err)
	}
	return n
}
