package engine

import (
	"context"
	"fmt"

	"duck-adapter/internal/ddl"
	"duck-adapter/internal/querybuilder"
)

// MigrationsTable is the table recording applied schema migrations.
const MigrationsTable = "__schema_migrations"

var migrationsTableDef = ddl.TableDef{
	Name:        MigrationsTable,
	IfNotExists: true,
	Columns: []ddl.ColumnDef{
		{Name: "version", Type: "VARCHAR(50)", PrimaryKey: true, NotNull: true},
		{Name: "run_on", Type: "TIMESTAMP", NotNull: true, Default: "CURRENT_TIMESTAMP"},
	},
}

// SetupMigrations creates the migrations table if it does not exist. It is
// idempotent.
func (c *Connection) SetupMigrations(ctx context.Context) (int64, error) {
	stmt, err := ddl.CreateTable(migrationsTableDef)
	if err != nil {
		return 0, fmt.Errorf("build migrations table: %w", err)
	}
	return c.Execute(ctx, querybuilder.SQL(stmt))
}
