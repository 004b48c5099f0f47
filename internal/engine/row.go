package engine

import (
	"fmt"
	"iter"

	"duck-adapter/internal/domain"
	"duck-adapter/internal/types"
)

// Row is one materialized result row. Names and values are parallel and
// captured when the row was enumerated.
type Row struct {
	names  []string
	values []types.Value
}

// NewRow builds a row from parallel slices. It panics when their lengths differ.
func NewRow(names []string, values []types.Value) *Row {
	if len(names) != len(values) {
		panic(fmt.Sprintf("engine: row has %d names but %d values", len(names), len(values)))
	}
	return &Row{names: names, values: values}
}

// Len returns the number of columns.
func (r *Row) Len() int { return len(r.values) }

// Names returns the column names in result order.
func (r *Row) Names() []string { return r.names }

// Get returns the field at index i.
func (r *Row) Get(i int) (Field, bool) {
	if i < 0 || i >= len(r.values) {
		return Field{}, false
	}
	return Field{row: r, idx: i}, true
}

// GetByName returns the first field whose column name equals name.
func (r *Row) GetByName(name string) (Field, bool) {
	for i, n := range r.names {
		if n == name {
			return Field{row: r, idx: i}, true
		}
	}
	return Field{}, false
}

// Partial returns the columns [lo, hi) as their own row, for decoding
// composite results piecewise. It panics on an invalid range.
func (r *Row) Partial(lo, hi int) *Row {
	return &Row{names: r.names[lo:hi:hi], values: r.values[lo:hi:hi]}
}

// Field is one column of a Row.
type Field struct {
	row *Row
	idx int
}

// Name returns the column name.
func (f Field) Name() string { return f.row.names[f.idx] }

// Index returns the column position in the row.
func (f Field) Index() int { return f.idx }

// Value returns the native value.
func (f Field) Value() types.Value { return f.row.values[f.idx] }

// IsNull reports whether the value is Null.
func (f Field) IsNull() bool { return f.row.values[f.idx].IsNull() }

// Decode converts f with codec c.
func Decode[T any](f Field, c types.Codec[T]) (T, error) {
	v, err := c.Deserialize(f.Value())
	if err != nil {
		var zero T
		return zero, fmt.Errorf("column %q: %w", f.Name(), err)
	}
	return v, nil
}

// DecodeAt decodes column i of r with codec c.
func DecodeAt[T any](r *Row, i int, c types.Codec[T]) (T, error) {
	f, ok := r.Get(i)
	if !ok {
		var zero T
		return zero, domain.ErrDeserialization("column index %d out of range for row of %d columns", i, r.Len())
	}
	return Decode(f, c)
}

// DecodeNamed decodes the column called name of r with codec c.
func DecodeNamed[T any](r *Row, name string, c types.Codec[T]) (T, error) {
	f, ok := r.GetByName(name)
	if !ok {
		var zero T
		return zero, domain.ErrDeserialization("no column named %q", name)
	}
	return Decode(f, c)
}

// Cursor iterates over a fully materialized result.
type Cursor struct {
	rows []*Row
	pos  int
}

func newCursor(rows []*Row) *Cursor {
	return &Cursor{rows: rows}
}

// Next returns the next row, or false when the result is exhausted.
func (c *Cursor) Next() (*Row, bool) {
	if c.pos >= len(c.rows) {
		return nil, false
	}
	r := c.rows[c.pos]
	c.pos++
	return r, true
}

// Len returns the number of rows not yet returned by Next.
func (c *Cursor) Len() int { return len(c.rows) - c.pos }

// All yields the remaining rows and advances the cursor past them.
func (c *Cursor) All() iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		for {
			r, ok := c.Next()
			if !ok || !yield(r) {
				return
			}
		}
	}
}
