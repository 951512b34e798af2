package schema

import (
	"fmt"
	"strings"

	"dwhctl/internal/warehouse"
)

// DropStatements drops every catalog table if it exists. On DuckDB the
// identity sequence goes after its table.
func DropStatements(engine warehouse.Engine) []warehouse.Statement {
	var stmts []warehouse.Statement
	for _, t := range Tables() {
		stmts = append(stmts, warehouse.Statement{
			Name: "drop " + t.Name,
			SQL:  "DROP TABLE IF EXISTS " + t.Name,
		})
		if engine == warehouse.EngineDuckDB {
			if col, ok := t.identityColumn(); ok {
				stmts = append(stmts, warehouse.Statement{
					Name: "drop sequence " + sequenceName(t, col),
					SQL:  "DROP SEQUENCE IF EXISTS " + sequenceName(t, col),
				})
			}
		}
	}
	return stmts
}

// CreateStatements creates every catalog table in creation order.
func CreateStatements(engine warehouse.Engine) []warehouse.Statement {
	var stmts []warehouse.Statement
	for _, t := range Tables() {
		if engine == warehouse.EngineDuckDB {
			if col, ok := t.identityColumn(); ok {
				stmts = append(stmts, warehouse.Statement{
					Name: "create sequence " + sequenceName(t, col),
					SQL:  fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s MINVALUE 0 START 0", sequenceName(t, col)),
				})
			}
		}
		stmts = append(stmts, warehouse.Statement{
			Name: "create " + t.Name,
			SQL:  CreateTableSQL(t, engine),
		})
	}
	return stmts
}

// CreateTableSQL renders the CREATE TABLE statement for t.
//
// Redshift keeps the distribution and sort annotations. Its primary keys are
// informational only, so DuckDB gets none: enforcing uniqueness locally would
// reject rows Redshift accepts. Key columns are still NOT NULL, as a NULL key
// would make every NOT IN guard on the table false.
func CreateTableSQL(t Table, engine warehouse.Engine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)

	for i, c := range t.Columns {
		b.WriteString("    ")
		b.WriteString(columnSQL(t, c, engine))
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")

	if engine == warehouse.EngineRedshift && t.DistStyle == DistAll {
		b.WriteString(" DISTSTYLE ALL")
	}
	return b.String()
}

func columnSQL(t Table, c Column, engine warehouse.Engine) string {
	parts := []string{c.Name, typeSQL(c.Type, engine)}

	switch engine {
	case warehouse.EngineDuckDB:
		if c.Identity {
			parts = append(parts, fmt.Sprintf("DEFAULT nextval('%s')", sequenceName(t, c)))
		}
		if c.NotNull || c.PrimaryKey {
			parts = append(parts, "NOT NULL")
		}
	default:
		if c.Identity {
			parts = append(parts, "IDENTITY(0,1)")
		}
		if c.DistKey {
			parts = append(parts, "DISTKEY")
		}
		if c.SortKey {
			parts = append(parts, "SORTKEY")
		}
		if c.NotNull {
			parts = append(parts, "NOT NULL")
		}
		if c.PrimaryKey {
			parts = append(parts, "PRIMARY KEY")
		}
	}
	return strings.Join(parts, " ")
}

func typeSQL(t DataType, engine warehouse.Engine) string {
	if engine == warehouse.EngineDuckDB {
		switch t {
		case TypeInt:
			return "INTEGER"
		case TypeFloat:
			return "DOUBLE"
		}
	}
	return string(t)
}

func sequenceName(t Table, c Column) string {
	return t.Name + "_" + c.Name + "_seq"
}
