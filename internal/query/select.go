package query

import (
	"slices"

	"duck-adapter/internal/bind"
	"duck-adapter/internal/querybuilder"
)

// Ordering is one ORDER BY term.
type Ordering struct {
	expr Expr
	desc bool
}

// Asc orders by e ascending.
func Asc(e Expr) Ordering { return Ordering{expr: e} }

// Desc orders by e descending.
func Desc(e Expr) Ordering { return Ordering{expr: e, desc: true} }

// RenderSQL renders the expression followed by ASC or DESC.
func (o Ordering) RenderSQL(b *querybuilder.Builder) error {
	if err := o.expr.RenderSQL(b); err != nil {
		return err
	}
	if o.desc {
		b.PushSQL(" DESC")
	} else {
		b.PushSQL(" ASC")
	}
	return nil
}

// CollectBinds collects the ordered expression's binds.
func (o Ordering) CollectBinds(c *bind.Collector) error { return o.expr.CollectBinds(c) }

func (o Ordering) dynamic() bool { return isDynamic(o.expr) }

// SelectStatement is a SELECT with one of the four static LIMIT/OFFSET shapes.
type SelectStatement struct {
	distinct bool
	columns  []Expr
	from     *Table
	where    Expr
	groupBy  []Expr
	orderBy  []Ordering
	clause   querybuilder.LimitOffset
}

// Select starts a SELECT of cols. No columns selects *.
func Select(cols ...Expr) SelectStatement {
	return SelectStatement{columns: slices.Clone(cols), clause: querybuilder.NoLimitOffset{}}
}

// From sets the source table.
func (s SelectStatement) From(t Table) SelectStatement {
	s.from = &t
	return s
}

// Distinct selects distinct rows.
func (s SelectStatement) Distinct() SelectStatement {
	s.distinct = true
	return s
}

// Where adds a predicate, ANDed with any existing one.
func (s SelectStatement) Where(pred Expr) SelectStatement {
	if s.where == nil {
		s.where = pred
	} else {
		s.where = And(s.where, pred)
	}
	return s
}

// GroupBy appends grouping expressions.
func (s SelectStatement) GroupBy(exprs ...Expr) SelectStatement {
	s.groupBy = append(slices.Clip(s.groupBy), exprs...)
	return s
}

// OrderBy appends ordering terms.
func (s SelectStatement) OrderBy(terms ...Ordering) SelectStatement {
	s.orderBy = append(slices.Clip(s.orderBy), terms...)
	return s
}

// Limit caps the row count with a bound BIGINT parameter.
func (s SelectStatement) Limit(n int64) SelectStatement {
	s.clause = querybuilder.WithLimit(s.clause, querybuilder.Limit(querybuilder.BoundCount(n)))
	return s
}

// Offset skips n rows using a bound BIGINT parameter.
func (s SelectStatement) Offset(n int64) SelectStatement {
	s.clause = querybuilder.WithOffset(s.clause, querybuilder.Offset(querybuilder.BoundCount(n)))
	return s
}

// LimitLiteral caps the row count with n rendered inline.
func (s SelectStatement) LimitLiteral(n int64) SelectStatement {
	s.clause = querybuilder.WithLimit(s.clause, querybuilder.Limit(querybuilder.LiteralCount(n)))
	return s
}

// OffsetLiteral skips n rows with n rendered inline.
func (s SelectStatement) OffsetLiteral(n int64) SelectStatement {
	s.clause = querybuilder.WithOffset(s.clause, querybuilder.Offset(querybuilder.LiteralCount(n)))
	return s
}

// Clause returns the statement's LIMIT/OFFSET shape.
func (s SelectStatement) Clause() querybuilder.LimitOffset { return s.clause }

// IntoBoxed converts the statement to one whose LIMIT and OFFSET are decided
// at runtime.
func (s SelectStatement) IntoBoxed() BoxedSelect {
	return BoxedSelect{body: s, clause: s.clause.IntoBoxed()}
}

// RenderSQL renders the full SELECT, including the static LIMIT/OFFSET shape.
func (s SelectStatement) RenderSQL(b *querybuilder.Builder) error {
	if err := s.renderBody(b); err != nil {
		return err
	}
	return s.clause.RenderSQL(b)
}

// CollectBinds collects the body binds, then those of the limit and offset.
func (s SelectStatement) CollectBinds(c *bind.Collector) error {
	if err := s.collectBody(c); err != nil {
		return err
	}
	return s.clause.CollectBinds(c)
}

// QueryID implements querybuilder.Identified.
func (s SelectStatement) QueryID() (string, bool) {
	return identity("select", s, s.dynamic())
}

func (s SelectStatement) dynamic() bool {
	return isDynamic(s.columns...) || isDynamic(s.groupBy...) || isDynamic(s.orderBy...) ||
		(s.where != nil && isDynamic(s.where))
}

func (s SelectStatement) renderBody(b *querybuilder.Builder) error {
	b.PushSQL("SELECT ")
	if s.distinct {
		b.PushSQL("DISTINCT ")
	}
	if len(s.columns) == 0 {
		b.PushSQL("*")
	} else if err := renderList(b, s.columns, ", "); err != nil {
		return err
	}
	if s.from != nil {
		b.PushSQL(" FROM ")
		if err := s.from.RenderSQL(b); err != nil {
			return err
		}
	}
	if s.where != nil {
		b.PushSQL(" WHERE ")
		if err := s.where.RenderSQL(b); err != nil {
			return err
		}
	}
	if len(s.groupBy) > 0 {
		b.PushSQL(" GROUP BY ")
		if err := renderList(b, s.groupBy, ", "); err != nil {
			return err
		}
	}
	if len(s.orderBy) > 0 {
		b.PushSQL(" ORDER BY ")
		if err := renderList(b, s.orderBy, ", "); err != nil {
			return err
		}
	}
	return nil
}

func (s SelectStatement) collectBody(c *bind.Collector) error {
	if err := collectList(c, s.columns); err != nil {
		return err
	}
	if s.where != nil {
		if err := s.where.CollectBinds(c); err != nil {
			return err
		}
	}
	if err := collectList(c, s.groupBy); err != nil {
		return err
	}
	return collectList(c, s.orderBy)
}

// BoxedSelect is a SELECT whose LIMIT and OFFSET may be set or cleared at
// runtime. It renders the same text and binds as the equivalent static
// statement, and therefore shares its identity.
type BoxedSelect struct {
	body   SelectStatement
	clause querybuilder.BoxedLimitOffset
}

// Limit sets the limit, or clears it when n is nil.
func (s BoxedSelect) Limit(n *int64) BoxedSelect {
	if n == nil {
		s.clause.Limit = nil
	} else {
		s.clause.Limit = &querybuilder.LimitClause{Count: querybuilder.BoundCount(*n)}
	}
	return s
}

// Offset sets the offset, or clears it when n is nil.
func (s BoxedSelect) Offset(n *int64) BoxedSelect {
	if n == nil {
		s.clause.Offset = nil
	} else {
		s.clause.Offset = &querybuilder.OffsetClause{Count: querybuilder.BoundCount(*n)}
	}
	return s
}

// Where adds a predicate, ANDed with any existing one.
func (s BoxedSelect) Where(pred Expr) BoxedSelect {
	s.body = s.body.Where(pred)
	return s
}

// OrderBy appends ordering terms.
func (s BoxedSelect) OrderBy(terms ...Ordering) BoxedSelect {
	s.body = s.body.OrderBy(terms...)
	return s
}

// Clause returns the runtime LIMIT/OFFSET shape.
func (s BoxedSelect) Clause() querybuilder.BoxedLimitOffset { return s.clause }

// RenderSQL renders the SELECT with whichever of limit and offset is set.
func (s BoxedSelect) RenderSQL(b *querybuilder.Builder) error {
	if err := s.body.renderBody(b); err != nil {
		return err
	}
	return s.clause.RenderSQL(b)
}

// CollectBinds collects binds in the same order as SelectStatement.
func (s BoxedSelect) CollectBinds(c *bind.Collector) error {
	if err := s.body.collectBody(c); err != nil {
		return err
	}
	return s.clause.CollectBinds(c)
}

// QueryID implements querybuilder.Identified.
func (s BoxedSelect) QueryID() (string, bool) {
	return identity("select", s, s.body.dynamic())
}
