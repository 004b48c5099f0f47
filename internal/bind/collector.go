// Package bind collects the bound values of one statement in placeholder order.
package bind

import (
	"errors"

	"duck-adapter/internal/domain"
	"duck-adapter/internal/types"
)

// Collector accumulates bound values. The Nth pushed value answers the Nth
// placeholder the query builder emitted for the same statement.
type Collector struct {
	binds    []types.Value
	consumed bool
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// PushBoundValue runs s against a Null-initialized buffer and appends the
// result. When s reports null, the buffer is reset to Null before it is
// appended, so a partially written value never reaches the parameter list.
func (c *Collector) PushBoundValue(s types.Serializer) error {
	c.mustBeOpen()

	var out types.Output
	isNull, err := s.ToSQL(&out)
	if err != nil {
		var serErr *domain.SerializationError
		if errors.As(err, &serErr) {
			return err
		}
		return &domain.SerializationError{Err: err}
	}
	if isNull {
		out.SetValue(types.Null())
	}
	c.binds = append(c.binds, out.Value().Owned())
	return nil
}

// PushNullValue appends Null without consulting any codec.
func (c *Collector) PushNullValue() {
	c.mustBeOpen()
	c.binds = append(c.binds, types.Null())
}

// Len returns the number of values collected so far.
func (c *Collector) Len() int { return len(c.binds) }

// IntoParams consumes the collector. Further pushes panic.
func (c *Collector) IntoParams() Params {
	c.mustBeOpen()
	c.consumed = true
	p := Params{values: c.binds}
	c.binds = nil
	return p
}

func (c *Collector) mustBeOpen() {
	if c.consumed {
		panic("bind: collector used after IntoParams")
	}
}

// Params is the positional parameter source for one execution.
type Params struct {
	values []types.Value
}

// Len returns the number of parameters.
func (p Params) Len() int { return len(p.values) }

// Values returns the collected values in placeholder order.
func (p Params) Values() []types.Value { return p.values }

// Args returns the values as driver arguments for database/sql.
func (p Params) Args() []any {
	args := make([]any, len(p.values))
	for i, v := range p.values {
		args[i] = v.Arg()
	}
	return args
}
