package querybuilder

import (
	"duck-adapter/internal/bind"
	"duck-adapter/internal/types"
)

// QueryFragment is a renderable piece of a statement. RenderSQL and
// CollectBinds must visit bound values in the same order: every
// PushBindParam in RenderSQL is answered by exactly one push in CollectBinds.
type QueryFragment interface {
	RenderSQL(b *Builder) error
	CollectBinds(c *bind.Collector) error
}

// Identified is implemented by statements that can share a prepared handle.
// Two statements with the same id must render the same SQL text. cacheable
// is false when the text depends on runtime data (e.g. variable-length IN lists).
type Identified interface {
	QueryID() (id string, cacheable bool)
}

// SQL is a raw text fragment with no binds.
type SQL string

// RenderSQL appends s verbatim.
func (s SQL) RenderSQL(b *Builder) error {
	b.PushSQL(string(s))
	return nil
}

// CollectBinds is a no-op.
func (SQL) CollectBinds(*bind.Collector) error { return nil }

// Identifier is a quoted-identifier fragment.
type Identifier string

// RenderSQL appends the quoted identifier.
func (i Identifier) RenderSQL(b *Builder) error {
	return b.PushIdentifier(string(i))
}

// CollectBinds is a no-op.
func (Identifier) CollectBinds(*bind.Collector) error { return nil }

// Bound is a placeholder fragment carrying its bind value.
type Bound struct {
	Value types.Serializer
}

// Bind returns a placeholder fragment for s.
func Bind(s types.Serializer) Bound {
	return Bound{Value: s}
}

// RenderSQL appends one placeholder.
func (p Bound) RenderSQL(b *Builder) error {
	b.PushBindParam()
	return nil
}

// CollectBinds pushes the carried value; a nil serializer binds Null.
func (p Bound) CollectBinds(c *bind.Collector) error {
	if p.Value == nil {
		c.PushNullValue()
		return nil
	}
	return c.PushBoundValue(p.Value)
}

// Render renders f into a fresh builder and returns the finished text.
func Render(f QueryFragment) (string, error) {
	b := NewBuilder()
	if err := f.RenderSQL(b); err != nil {
		return "", err
	}
	return b.Finish(), nil
}

// Collect gathers the binds of f into positional parameters.
func Collect(f QueryFragment) (bind.Params, error) {
	c := bind.NewCollector()
	if err := f.CollectBinds(c); err != nil {
		return bind.Params{}, err
	}
	return c.IntoParams(), nil
}
