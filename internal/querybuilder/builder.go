// Package querybuilder assembles DuckDB SQL text: raw fragments, quoted
// identifiers, positional placeholders and LIMIT/OFFSET clauses.
//
// It also defines the contract a statement must satisfy to be executed by
// the engine: [QueryFragment] renders text and collects binds in the same
// order, and [Identified] supplies the statement cache key.
package querybuilder

import (
	"fmt"
	"strings"
)

// Builder accumulates the SQL text of one statement. It is single-use:
// Finish returns the text and any later push panics.
type Builder struct {
	buf          strings.Builder
	placeholders int
	finished     bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// PushSQL appends text verbatim.
func (b *Builder) PushSQL(text string) {
	b.mustBeOpen()
	b.buf.WriteString(text)
}

// PushIdentifier appends name as a double-quoted identifier, doubling any
// embedded double quotes. Names containing a NUL byte are rejected.
func (b *Builder) PushIdentifier(name string) error {
	b.mustBeOpen()
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("identifier %q contains a NUL byte", name)
	}
	b.buf.WriteString(QuoteIdentifier(name))
	return nil
}

// PushBindParam appends a positional placeholder. The Nth call must match
// the Nth value pushed into the bind collector.
func (b *Builder) PushBindParam() {
	b.mustBeOpen()
	b.buf.WriteString(DuckDB.Placeholder)
	b.placeholders++
}

// PlaceholderCount returns the number of placeholders emitted so far.
func (b *Builder) PlaceholderCount() int { return b.placeholders }

// Finish returns the accumulated SQL text and closes the builder.
func (b *Builder) Finish() string {
	b.mustBeOpen()
	b.finished = true
	return b.buf.String()
}

func (b *Builder) mustBeOpen() {
	if b.finished {
		panic("querybuilder: builder used after Finish")
	}
}

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double-quote characters by doubling them (standard SQL).
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
