// Package query is a small statement DSL over the querybuilder contract.
//
// Statements are values: every builder method returns a modified copy, so a
// base statement can be shared and refined without aliasing. Statements whose
// text is fixed by their structure report a cacheable identity; those whose
// text depends on runtime data (IN lists, raw SQL) do not.
package query

import (
	"errors"
	"slices"

	"duck-adapter/internal/bind"
	"duck-adapter/internal/querybuilder"
	"duck-adapter/internal/types"
)

// Expr is any renderable SQL expression.
type Expr = querybuilder.QueryFragment

// dynamicFragment is implemented by fragments whose text varies with data.
type dynamicFragment interface {
	dynamic() bool
}

func isDynamic[F querybuilder.QueryFragment](fs ...F) bool {
	for _, f := range fs {
		if d, ok := any(f).(dynamicFragment); ok && d.dynamic() {
			return true
		}
	}
	return false
}

// Table names a table.
type Table struct {
	name string
}

// NewTable returns a table reference.
func NewTable(name string) Table { return Table{name: name} }

// Name returns the unquoted table name.
func (t Table) Name() string { return t.name }

// Col returns a column qualified by t.
func (t Table) Col(name string) Column { return Column{table: t.name, name: name} }

// RenderSQL renders the quoted table name.
func (t Table) RenderSQL(b *querybuilder.Builder) error { return b.PushIdentifier(t.name) }

// CollectBinds implements querybuilder.QueryFragment; a table binds nothing.
func (Table) CollectBinds(*bind.Collector) error { return nil }

// Column names a column, optionally qualified by its table.
type Column struct {
	table string
	name  string
}

// Col returns an unqualified column reference.
func Col(name string) Column { return Column{name: name} }

// Name returns the unquoted column name.
func (c Column) Name() string { return c.name }

// RenderSQL renders the quoted column name, qualified when a table is set.
func (c Column) RenderSQL(b *querybuilder.Builder) error {
	if c.table != "" {
		if err := b.PushIdentifier(c.table); err != nil {
			return err
		}
		b.PushSQL(".")
	}
	return b.PushIdentifier(c.name)
}

// CollectBinds implements querybuilder.QueryFragment; a column binds nothing.
func (Column) CollectBinds(*bind.Collector) error { return nil }

// Val binds v through codec c as a placeholder.
func Val[T any](c types.Codec[T], v T) Expr {
	return querybuilder.Bind(c.Bind(v))
}

// NullableVal binds v through codec c, binding NULL when v is nil.
func NullableVal[T any](c types.Codec[T], v *T) Expr {
	return querybuilder.Bind(types.BindNullable(c, v))
}

// Null binds a NULL placeholder.
func Null() Expr { return querybuilder.Bind(nil) }

// Lit renders sql verbatim. It must not contain placeholders.
func Lit(sql string) Expr { return querybuilder.SQL(sql) }

// Star renders "*".
var Star Expr = querybuilder.SQL("*")

type binary struct {
	left  Expr
	op    string
	right Expr
}

func (e binary) RenderSQL(b *querybuilder.Builder) error {
	if err := e.left.RenderSQL(b); err != nil {
		return err
	}
	b.PushSQL(e.op)
	return e.right.RenderSQL(b)
}

func (e binary) CollectBinds(c *bind.Collector) error {
	if err := e.left.CollectBinds(c); err != nil {
		return err
	}
	return e.right.CollectBinds(c)
}

func (e binary) dynamic() bool { return isDynamic(e.left, e.right) }

// Eq renders l = r.
func Eq(l, r Expr) Expr { return binary{l, " = ", r} }

// NotEq renders l <> r.
func NotEq(l, r Expr) Expr { return binary{l, " <> ", r} }

// Lt renders l < r.
func Lt(l, r Expr) Expr { return binary{l, " < ", r} }

// Le renders l <= r.
func Le(l, r Expr) Expr { return binary{l, " <= ", r} }

// Gt renders l > r.
func Gt(l, r Expr) Expr { return binary{l, " > ", r} }

// Ge renders l >= r.
func Ge(l, r Expr) Expr { return binary{l, " >= ", r} }

// Like renders l LIKE r.
func Like(l, r Expr) Expr { return binary{l, " LIKE ", r} }

// Concat joins two string expressions with the dialect's concatenation operator.
func Concat(l, r Expr) Expr { return binary{l, querybuilder.DuckDB.ConcatOperator, r} }

// joined renders parts separated by sep, optionally parenthesized.
type joined struct {
	parts []Expr
	sep   string
	paren bool
}

func (j joined) RenderSQL(b *querybuilder.Builder) error {
	if j.paren {
		b.PushSQL("(")
	}
	if err := renderList(b, j.parts, j.sep); err != nil {
		return err
	}
	if j.paren {
		b.PushSQL(")")
	}
	return nil
}

func (j joined) CollectBinds(c *bind.Collector) error { return collectList(c, j.parts) }

func (j joined) dynamic() bool { return isDynamic(j.parts...) }

// And joins predicates with AND. A single predicate is returned as is; no
// predicates render TRUE.
func And(preds ...Expr) Expr {
	switch len(preds) {
	case 0:
		return querybuilder.SQL("TRUE")
	case 1:
		return preds[0]
	}
	return joined{parts: slices.Clone(preds), sep: " AND ", paren: true}
}

// Or joins predicates with OR. A single predicate is returned as is; no
// predicates render FALSE.
func Or(preds ...Expr) Expr {
	switch len(preds) {
	case 0:
		return querybuilder.SQL("FALSE")
	case 1:
		return preds[0]
	}
	return joined{parts: slices.Clone(preds), sep: " OR ", paren: true}
}

type wrapped struct {
	prefix string
	inner  Expr
	suffix string
}

func (w wrapped) RenderSQL(b *querybuilder.Builder) error {
	b.PushSQL(w.prefix)
	if err := w.inner.RenderSQL(b); err != nil {
		return err
	}
	b.PushSQL(w.suffix)
	return nil
}

func (w wrapped) CollectBinds(c *bind.Collector) error { return w.inner.CollectBinds(c) }

func (w wrapped) dynamic() bool { return isDynamic(w.inner) }

// Not renders NOT (e).
func Not(e Expr) Expr { return wrapped{"NOT (", e, ")"} }

// IsNull renders e IS NULL.
func IsNull(e Expr) Expr { return wrapped{"", e, " IS NULL"} }

// IsNotNull renders e IS NOT NULL.
func IsNotNull(e Expr) Expr { return wrapped{"", e, " IS NOT NULL"} }

// Count renders COUNT(e).
func Count(e Expr) Expr { return wrapped{"COUNT(", e, ")"} }

// CountStar renders COUNT(*).
func CountStar() Expr { return Count(Star) }

// Func renders name(args...). name is emitted verbatim.
func Func(name string, args ...Expr) Expr {
	return wrapped{name + "(", joined{parts: slices.Clone(args), sep: ", "}, ")"}
}

type aliased struct {
	inner Expr
	alias string
}

// As renders e AS "alias".
func As(e Expr, alias string) Expr { return aliased{e, alias} }

func (a aliased) RenderSQL(b *querybuilder.Builder) error {
	if err := a.inner.RenderSQL(b); err != nil {
		return err
	}
	b.PushSQL(" AS ")
	return b.PushIdentifier(a.alias)
}

func (a aliased) CollectBinds(c *bind.Collector) error { return a.inner.CollectBinds(c) }

func (a aliased) dynamic() bool { return isDynamic(a.inner) }

// inList renders e IN (v1, v2, ...). Its text depends on the number of
// values, so statements containing it are never cached.
type inList struct {
	e      Expr
	values []Expr
	negate bool
}

// In renders e IN (values...). An empty list renders a predicate that is
// always false.
func In(e Expr, values ...Expr) Expr { return inList{e: e, values: slices.Clone(values)} }

// NotIn renders e NOT IN (values...). An empty list renders a predicate that
// is always true.
func NotIn(e Expr, values ...Expr) Expr {
	return inList{e: e, values: slices.Clone(values), negate: true}
}

func (l inList) RenderSQL(b *querybuilder.Builder) error {
	if len(l.values) == 0 {
		if l.negate {
			b.PushSQL("1 = 1")
		} else {
			b.PushSQL("1 = 0")
		}
		return nil
	}
	if err := l.e.RenderSQL(b); err != nil {
		return err
	}
	if l.negate {
		b.PushSQL(" NOT IN (")
	} else {
		b.PushSQL(" IN (")
	}
	if err := renderList(b, l.values, ", "); err != nil {
		return err
	}
	b.PushSQL(")")
	return nil
}

func (l inList) CollectBinds(c *bind.Collector) error {
	if len(l.values) == 0 {
		return nil
	}
	if err := l.e.CollectBinds(c); err != nil {
		return err
	}
	return collectList(c, l.values)
}

func (inList) dynamic() bool { return true }

// errDefaultKeyword is returned when DEFAULT is rendered for a dialect that
// does not accept it inside VALUES.
var errDefaultKeyword = errors.New("DEFAULT is not supported inside a VALUES list; omit the column instead")

type defaultKeyword struct{}

// Default is the DEFAULT keyword inside an INSERT VALUES list. DuckDB rejects
// it, so rendering it fails.
var Default Expr = defaultKeyword{}

func (defaultKeyword) RenderSQL(b *querybuilder.Builder) error {
	if !querybuilder.DuckDB.SupportsDefaultKeyword {
		return errDefaultKeyword
	}
	b.PushSQL("DEFAULT")
	return nil
}

func (defaultKeyword) CollectBinds(*bind.Collector) error { return nil }

func renderList[F querybuilder.QueryFragment](b *querybuilder.Builder, parts []F, sep string) error {
	for i, p := range parts {
		if i > 0 {
			b.PushSQL(sep)
		}
		if err := p.RenderSQL(b); err != nil {
			return err
		}
	}
	return nil
}

func collectList[F querybuilder.QueryFragment](c *bind.Collector, parts []F) error {
	for _, p := range parts {
		if err := p.CollectBinds(c); err != nil {
			return err
		}
	}
	return nil
}

// identity renders f to build a statement id; the id carries the statement
// kind so that identical text from different builders cannot collide with a
// hand-written identity.
func identity(kind string, f querybuilder.QueryFragment, dynamic bool) (string, bool) {
	if dynamic {
		return "", false
	}
	text, err := querybuilder.Render(f)
	if err != nil {
		return "", false
	}
	return kind + ":" + text, true
}
