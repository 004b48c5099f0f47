package query

import (
	"errors"
	"fmt"
	"slices"

	"duck-adapter/internal/bind"
	"duck-adapter/internal/querybuilder"
	"duck-adapter/internal/types"
)

// InsertStatement is an INSERT of zero or more rows. With no columns and no
// rows it renders INSERT ... DEFAULT VALUES.
type InsertStatement struct {
	table   Table
	columns []Column
	rows    [][]Expr
}

// InsertInto starts an INSERT into t.
func InsertInto(t Table) InsertStatement { return InsertStatement{table: t} }

// Columns sets the target columns.
func (s InsertStatement) Columns(cols ...Column) InsertStatement {
	s.columns = slices.Clone(cols)
	return s
}

// Values appends one row. Calling it repeatedly builds a multi-row VALUES list.
func (s InsertStatement) Values(vals ...Expr) InsertStatement {
	s.rows = append(slices.Clip(s.rows), slices.Clone(vals))
	return s
}

// RenderSQL renders INSERT INTO with its column list and VALUES rows, or DEFAULT VALUES.
func (s InsertStatement) RenderSQL(b *querybuilder.Builder) error {
	b.PushSQL("INSERT INTO ")
	if err := s.table.RenderSQL(b); err != nil {
		return err
	}
	if len(s.columns) == 0 {
		if len(s.rows) > 0 {
			return errors.New("insert values given without target columns")
		}
		b.PushSQL(querybuilder.DuckDB.DefaultValuesClause)
		return nil
	}
	if len(s.rows) == 0 {
		return errors.New("insert has columns but no rows")
	}
	if len(s.rows) > 1 && !querybuilder.DuckDB.SupportsBatchInsert {
		return errors.New("multi-row insert is not supported")
	}

	b.PushSQL(" (")
	for i, col := range s.columns {
		if i > 0 {
			b.PushSQL(", ")
		}
		if err := b.PushIdentifier(col.name); err != nil {
			return err
		}
	}
	b.PushSQL(") VALUES ")
	for i, row := range s.rows {
		if len(row) != len(s.columns) {
			return fmt.Errorf("insert row %d has %d values for %d columns", i, len(row), len(s.columns))
		}
		if i > 0 {
			b.PushSQL(", ")
		}
		b.PushSQL("(")
		if err := renderList(b, row, ", "); err != nil {
			return err
		}
		b.PushSQL(")")
	}
	return nil
}

// CollectBinds collects the row values in column order.
func (s InsertStatement) CollectBinds(c *bind.Collector) error {
	for _, row := range s.rows {
		if err := collectList(c, row); err != nil {
			return err
		}
	}
	return nil
}

// QueryID implements querybuilder.Identified.
func (s InsertStatement) QueryID() (string, bool) {
	dyn := false
	for _, row := range s.rows {
		dyn = dyn || isDynamic(row...)
	}
	return identity("insert", s, dyn)
}

type assignment struct {
	column Column
	value  Expr
}

// UpdateStatement is an UPDATE of one table.
type UpdateStatement struct {
	table Table
	sets  []assignment
	where Expr
}

// Update starts an UPDATE of t.
func Update(t Table) UpdateStatement { return UpdateStatement{table: t} }

// Set assigns value to col.
func (s UpdateStatement) Set(col Column, value Expr) UpdateStatement {
	s.sets = append(slices.Clip(s.sets), assignment{column: col, value: value})
	return s
}

// Where adds a predicate, ANDed with any existing one.
func (s UpdateStatement) Where(pred Expr) UpdateStatement {
	if s.where == nil {
		s.where = pred
	} else {
		s.where = And(s.where, pred)
	}
	return s
}

// RenderSQL renders UPDATE ... SET ... [WHERE ...].
func (s UpdateStatement) RenderSQL(b *querybuilder.Builder) error {
	if len(s.sets) == 0 {
		return errors.New("update has no assignments")
	}
	b.PushSQL("UPDATE ")
	if err := s.table.RenderSQL(b); err != nil {
		return err
	}
	b.PushSQL(" SET ")
	for i, a := range s.sets {
		if i > 0 {
			b.PushSQL(", ")
		}
		if err := b.PushIdentifier(a.column.name); err != nil {
			return err
		}
		b.PushSQL(" = ")
		if err := a.value.RenderSQL(b); err != nil {
			return err
		}
	}
	return renderWhere(b, s.where)
}

// CollectBinds collects assignment values, then the filter.
func (s UpdateStatement) CollectBinds(c *bind.Collector) error {
	for _, a := range s.sets {
		if err := a.value.CollectBinds(c); err != nil {
			return err
		}
	}
	if s.where != nil {
		return s.where.CollectBinds(c)
	}
	return nil
}

// QueryID implements querybuilder.Identified.
func (s UpdateStatement) QueryID() (string, bool) {
	dyn := s.where != nil && isDynamic(s.where)
	for _, a := range s.sets {
		dyn = dyn || isDynamic(a.value)
	}
	return identity("update", s, dyn)
}

// DeleteStatement is a DELETE from one table.
type DeleteStatement struct {
	table Table
	where Expr
}

// DeleteFrom starts a DELETE from t. Without Where every row is deleted.
func DeleteFrom(t Table) DeleteStatement { return DeleteStatement{table: t} }

// Where adds a predicate, ANDed with any existing one.
func (s DeleteStatement) Where(pred Expr) DeleteStatement {
	if s.where == nil {
		s.where = pred
	} else {
		s.where = And(s.where, pred)
	}
	return s
}

// RenderSQL renders DELETE FROM ... [WHERE ...].
func (s DeleteStatement) RenderSQL(b *querybuilder.Builder) error {
	b.PushSQL("DELETE FROM ")
	if err := s.table.RenderSQL(b); err != nil {
		return err
	}
	return renderWhere(b, s.where)
}

// CollectBinds collects the filter binds.
func (s DeleteStatement) CollectBinds(c *bind.Collector) error {
	if s.where != nil {
		return s.where.CollectBinds(c)
	}
	return nil
}

// QueryID implements querybuilder.Identified.
func (s DeleteStatement) QueryID() (string, bool) {
	return identity("delete", s, s.where != nil && isDynamic(s.where))
}

func renderWhere(b *querybuilder.Builder, where Expr) error {
	if where == nil {
		return nil
	}
	b.PushSQL(" WHERE ")
	return where.RenderSQL(b)
}

// RawStatement is SQL text written by hand with positional placeholders.
// It is never cached.
type RawStatement struct {
	sql   string
	binds []types.Serializer
}

// Raw returns a statement rendering sql verbatim and binding binds in order.
// A nil bind is NULL.
func Raw(sql string, binds ...types.Serializer) RawStatement {
	return RawStatement{sql: sql, binds: slices.Clone(binds)}
}

// Bind appends one bound value.
func (s RawStatement) Bind(v types.Serializer) RawStatement {
	s.binds = append(slices.Clip(s.binds), v)
	return s
}

// RenderSQL emits the SQL text verbatim.
func (s RawStatement) RenderSQL(b *querybuilder.Builder) error {
	b.PushSQL(s.sql)
	return nil
}

// CollectBinds pushes the attached binds in order.
func (s RawStatement) CollectBinds(c *bind.Collector) error {
	for _, v := range s.binds {
		if err := querybuilder.Bind(v).CollectBinds(c); err != nil {
			return err
		}
	}
	return nil
}

// QueryID implements querybuilder.Identified.
func (RawStatement) QueryID() (string, bool) { return "", false }
