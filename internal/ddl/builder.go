// Package ddl builds validated DuckDB DDL text for BatchExecute.
package ddl

import (
	"fmt"
	"strings"

	"duck-adapter/internal/querybuilder"
	"duck-adapter/internal/types"
)

// ColumnDef describes a column for CREATE TABLE.
type ColumnDef struct {
	Name       string
	Type       string
	PrimaryKey bool
	NotNull    bool
	Unique     bool
	Default    string
	Check      string
	References *Reference
}

// Reference is the target of a foreign key.
type Reference struct {
	Table  string
	Column string
}

// Column returns a column definition whose type is the SQL type registered
// for category c.
func Column(name string, c types.Category) (ColumnDef, error) {
	info, ok := types.Lookup(c)
	if !ok {
		return ColumnDef{}, fmt.Errorf("unknown type category %q", c)
	}
	return ColumnDef{Name: name, Type: info.SQLType}, nil
}

// TableDef describes a table for CREATE TABLE.
type TableDef struct {
	Name        string
	Columns     []ColumnDef
	IfNotExists bool
}

// CreateTable returns a DuckDB DDL statement:
// CREATE TABLE "<table>" ("<col1>" TYPE1 [constraints], ...).
func CreateTable(def TableDef) (string, error) {
	if err := ValidateIdentifier(def.Name); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}

	colDefs := make([]string, 0, len(def.Columns))
	seen := make(map[string]bool, len(def.Columns))
	for _, c := range def.Columns {
		col, err := columnSQL(c)
		if err != nil {
			return "", err
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return "", fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[key] = true
		colDefs = append(colDefs, col)
	}

	stmt := "CREATE TABLE "
	if def.IfNotExists {
		stmt += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (%s)", stmt, querybuilder.QuoteIdentifier(def.Name), strings.Join(colDefs, ", ")), nil
}

func columnSQL(c ColumnDef) (string, error) {
	if err := ValidateIdentifier(c.Name); err != nil {
		return "", fmt.Errorf("invalid column name %q: %w", c.Name, err)
	}
	if err := ValidateColumnType(c.Type); err != nil {
		return "", fmt.Errorf("invalid column type for %q: %w", c.Name, err)
	}

	var sb strings.Builder
	sb.WriteString(querybuilder.QuoteIdentifier(c.Name))
	sb.WriteString(" ")
	sb.WriteString(c.Type)
	if c.PrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if c.Unique {
		sb.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		if err := ValidateExpression(c.Default); err != nil {
			return "", fmt.Errorf("invalid default for %q: %w", c.Name, err)
		}
		sb.WriteString(" DEFAULT ")
		sb.WriteString(c.Default)
	}
	if c.Check != "" {
		if err := ValidateExpression(c.Check); err != nil {
			return "", fmt.Errorf("invalid check for %q: %w", c.Name, err)
		}
		sb.WriteString(" CHECK (")
		sb.WriteString(c.Check)
		sb.WriteString(")")
	}
	if ref := c.References; ref != nil {
		if err := ValidateIdentifier(ref.Table); err != nil {
			return "", fmt.Errorf("invalid referenced table for %q: %w", c.Name, err)
		}
		if err := ValidateIdentifier(ref.Column); err != nil {
			return "", fmt.Errorf("invalid referenced column for %q: %w", c.Name, err)
		}
		fmt.Fprintf(&sb, " REFERENCES %s(%s)",
			querybuilder.QuoteIdentifier(ref.Table),
			querybuilder.QuoteIdentifier(ref.Column),
		)
	}
	return sb.String(), nil
}

// DropTable returns a DuckDB DDL statement: DROP TABLE [IF EXISTS] "<table>".
func DropTable(table string, ifExists bool) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if ifExists {
		return "DROP TABLE IF EXISTS " + querybuilder.QuoteIdentifier(table), nil
	}
	return "DROP TABLE " + querybuilder.QuoteIdentifier(table), nil
}

// CreateIndex returns a DuckDB DDL statement:
// CREATE [UNIQUE] INDEX "<name>" ON "<table>" ("<col>", ...).
func CreateIndex(name, table string, columns []string, unique bool) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid index name: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		if err := ValidateIdentifier(c); err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", c, err)
		}
		quoted[i] = querybuilder.QuoteIdentifier(c)
	}
	kw := "CREATE INDEX "
	if unique {
		kw = "CREATE UNIQUE INDEX "
	}
	return fmt.Sprintf("%s%s ON %s (%s)", kw,
		querybuilder.QuoteIdentifier(name),
		querybuilder.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
	), nil
}
