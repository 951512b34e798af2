package schema

// Role classifies a table in the star schema.
type Role string

const (
	RoleStaging   Role = "staging"
	RoleFact      Role = "fact"
	RoleDimension Role = "dimension"
)

// DistStyle is the Redshift distribution style of a table.
type DistStyle string

const (
	DistAuto DistStyle = ""
	DistAll  DistStyle = "ALL"
	DistKey  DistStyle = "KEY"
)

// DataType is a portable column type rendered per dialect.
type DataType string

const (
	TypeVarchar   DataType = "VARCHAR"
	TypeInt       DataType = "INT"
	TypeFloat     DataType = "FLOAT"
	TypeTimestamp DataType = "TIMESTAMP"
)

// Column represents a table column
type Column struct {
	Name       string
	Type       DataType
	NotNull    bool
	PrimaryKey bool
	// Identity makes the column an auto-increment starting at zero.
	Identity bool
	SortKey  bool
	DistKey  bool
}

// Table is one entry of the catalog.
type Table struct {
	Name      string
	Role      Role
	Columns   []Column
	DistStyle DistStyle
}

// SortKey returns the sort key column name, or "".
func (t Table) SortKey() string {
	for _, c := range t.Columns {
		if c.SortKey {
			return c.Name
		}
	}
	return ""
}

// DistKey returns the distribution key column name, or "".
func (t Table) DistKey() string {
	for _, c := range t.Columns {
		if c.DistKey {
			return c.Name
		}
	}
	return ""
}

// PrimaryKey returns the primary key column name, or "".
func (t Table) PrimaryKey() string {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return ""
}

// Distribution describes how rows are spread across nodes.
func (t Table) Distribution() string {
	if key := t.DistKey(); key != "" {
		return "KEY(" + key + ")"
	}
	if t.DistStyle == DistAll {
		return "ALL"
	}
	return "AUTO"
}

// ColumnNames lists the columns in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t Table) identityColumn() (Column, bool) {
	for _, c := range t.Columns {
		if c.Identity {
			return c, true
		}
	}
	return Column{}, false
}
