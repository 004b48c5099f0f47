package querybuilder

import (
	"strconv"

	"duck-adapter/internal/bind"
	"duck-adapter/internal/types"
)

// BoundCount is a row count rendered as a placeholder and bound as BIGINT.
type BoundCount int64

// RenderSQL appends one placeholder.
func (n BoundCount) RenderSQL(b *Builder) error {
	b.PushBindParam()
	return nil
}

// CollectBinds pushes n.
func (n BoundCount) CollectBinds(c *bind.Collector) error {
	return c.PushBoundValue(types.BigInt.Bind(int64(n)))
}

// LiteralCount is a row count rendered inline as decimal digits.
type LiteralCount int64

// RenderSQL appends the decimal digits of n.
func (n LiteralCount) RenderSQL(b *Builder) error {
	b.PushSQL(strconv.FormatInt(int64(n), 10))
	return nil
}

// CollectBinds is a no-op.
func (LiteralCount) CollectBinds(*bind.Collector) error { return nil }

// LimitClause renders " LIMIT <count>".
type LimitClause struct {
	Count QueryFragment
}

// RenderSQL renders the clause.
func (l LimitClause) RenderSQL(b *Builder) error {
	b.PushSQL(" LIMIT ")
	return l.Count.RenderSQL(b)
}

// CollectBinds collects the count's binds.
func (l LimitClause) CollectBinds(c *bind.Collector) error {
	return l.Count.CollectBinds(c)
}

// Limit wraps f in a LIMIT clause.
func Limit(f QueryFragment) LimitClause { return LimitClause{Count: f} }

// OffsetClause renders " OFFSET <count>".
type OffsetClause struct {
	Count QueryFragment
}

// RenderSQL renders the clause.
func (o OffsetClause) RenderSQL(b *Builder) error {
	b.PushSQL(" OFFSET ")
	return o.Count.RenderSQL(b)
}

// CollectBinds collects the count's binds.
func (o OffsetClause) CollectBinds(c *bind.Collector) error {
	return o.Count.CollectBinds(c)
}

// Offset wraps f in an OFFSET clause.
func Offset(f QueryFragment) OffsetClause { return OffsetClause{Count: f} }

// LimitOffset is one of the four static clause shapes: NoLimitOffset,
// LimitOnly, OffsetOnly, LimitAndOffset. The set is closed.
type LimitOffset interface {
	QueryFragment
	// IntoBoxed converts the shape to its runtime-checked form.
	IntoBoxed() BoxedLimitOffset
	// shapeID names the shape for statement identities.
	shapeID() string
}

// NoLimitOffset renders nothing.
type NoLimitOffset struct{}

// LimitOnly renders the limit fragment only.
type LimitOnly struct {
	Limit LimitClause
}

// OffsetOnly renders the offset fragment only. DuckDB accepts OFFSET
// without LIMIT.
type OffsetOnly struct {
	Offset OffsetClause
}

// LimitAndOffset renders the limit fragment followed by the offset fragment.
type LimitAndOffset struct {
	Limit  LimitClause
	Offset OffsetClause
}

var (
	_ LimitOffset = NoLimitOffset{}
	_ LimitOffset = LimitOnly{}
	_ LimitOffset = OffsetOnly{}
	_ LimitOffset = LimitAndOffset{}
)

func (NoLimitOffset) RenderSQL(*Builder) error { return nil }

func (NoLimitOffset) CollectBinds(*bind.Collector) error { return nil }

func (NoLimitOffset) IntoBoxed() BoxedLimitOffset { return BoxedLimitOffset{} }

func (NoLimitOffset) shapeID() string { return "" }

func (s LimitOnly) RenderSQL(b *Builder) error { return s.Limit.RenderSQL(b) }

func (s LimitOnly) CollectBinds(c *bind.Collector) error { return s.Limit.CollectBinds(c) }

func (s LimitOnly) IntoBoxed() BoxedLimitOffset { return BoxedLimitOffset{Limit: &s.Limit} }

func (LimitOnly) shapeID() string { return "L" }

func (s OffsetOnly) RenderSQL(b *Builder) error { return s.Offset.RenderSQL(b) }

func (s OffsetOnly) CollectBinds(c *bind.Collector) error { return s.Offset.CollectBinds(c) }

func (s OffsetOnly) IntoBoxed() BoxedLimitOffset { return BoxedLimitOffset{Offset: &s.Offset} }

func (OffsetOnly) shapeID() string { return "O" }

func (s LimitAndOffset) RenderSQL(b *Builder) error {
	if err := s.Limit.RenderSQL(b); err != nil {
		return err
	}
	return s.Offset.RenderSQL(b)
}

func (s LimitAndOffset) CollectBinds(c *bind.Collector) error {
	if err := s.Limit.CollectBinds(c); err != nil {
		return err
	}
	return s.Offset.CollectBinds(c)
}

func (s LimitAndOffset) IntoBoxed() BoxedLimitOffset {
	return BoxedLimitOffset{Limit: &s.Limit, Offset: &s.Offset}
}

func (LimitAndOffset) shapeID() string { return "LO" }

// WithLimit moves a shape to the corresponding shape that carries limit.
func WithLimit(s LimitOffset, limit LimitClause) LimitOffset {
	switch s := s.(type) {
	case OffsetOnly:
		return LimitAndOffset{Limit: limit, Offset: s.Offset}
	case LimitAndOffset:
		return LimitAndOffset{Limit: limit, Offset: s.Offset}
	default:
		return LimitOnly{Limit: limit}
	}
}

// WithOffset moves a shape to the corresponding shape that carries offset.
func WithOffset(s LimitOffset, offset OffsetClause) LimitOffset {
	switch s := s.(type) {
	case LimitOnly:
		return LimitAndOffset{Limit: s.Limit, Offset: offset}
	case LimitAndOffset:
		return LimitAndOffset{Limit: s.Limit, Offset: offset}
	default:
		return OffsetOnly{Offset: offset}
	}
}

// ShapeID returns a short name of the shape for use in statement identities.
func ShapeID(s LimitOffset) string { return s.shapeID() }

// BoxedLimitOffset is the dynamic clause shape: limit and offset are decided
// at runtime. It renders whichever is present, limit first, and produces the
// same text and binds as the equivalent static shape.
type BoxedLimitOffset struct {
	Limit  *LimitClause
	Offset *OffsetClause
}

// RenderSQL renders the present clauses.
func (s BoxedLimitOffset) RenderSQL(b *Builder) error {
	if s.Limit != nil {
		if err := s.Limit.RenderSQL(b); err != nil {
			return err
		}
	}
	if s.Offset != nil {
		return s.Offset.RenderSQL(b)
	}
	return nil
}

// CollectBinds collects the binds of the present clauses.
func (s BoxedLimitOffset) CollectBinds(c *bind.Collector) error {
	if s.Limit != nil {
		if err := s.Limit.CollectBinds(c); err != nil {
			return err
		}
	}
	if s.Offset != nil {
		return s.Offset.CollectBinds(c)
	}
	return nil
}

// ShapeID names the runtime shape with the same names the static shapes use.
func (s BoxedLimitOffset) ShapeID() string {
	id := ""
	if s.Limit != nil {
		id += "L"
	}
	if s.Offset != nil {
		id += "O"
	}
	return id
}
