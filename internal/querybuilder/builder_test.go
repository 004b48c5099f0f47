package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-adapter/internal/types"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"users", `"users"`},
		{"select", `"select"`},
		{`we"ird`, `"we""ird"`},
		{"with space", `"with space"`},
		{"", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteIdentifier(tt.in))
		})
	}
}

func TestBuilder_Sequence(t *testing.T) {
	b := NewBuilder()
	b.PushSQL("SELECT * FROM ")
	require.NoError(t, b.PushIdentifier("users"))
	b.PushSQL(" WHERE ")
	require.NoError(t, b.PushIdentifier("age"))
	b.PushSQL(" > ")
	b.PushBindParam()
	b.PushSQL(" AND ")
	require.NoError(t, b.PushIdentifier("name"))
	b.PushSQL(" = ")
	b.PushBindParam()

	assert.Equal(t, 2, b.PlaceholderCount())
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" > ? AND "name" = ?`, b.Finish())
}

func TestBuilder_RejectsNUL(t *testing.T) {
	b := NewBuilder()
	err := b.PushIdentifier("bad\x00name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NUL byte")
	assert.Equal(t, "", b.Finish())
}

func TestBuilder_UseAfterFinishPanics(t *testing.T) {
	b := NewBuilder()
	b.PushSQL("SELECT 1")
	b.Finish()

	assert.Panics(t, func() { b.PushSQL(" ") })
	assert.Panics(t, func() { b.PushBindParam() })
	assert.Panics(t, func() { _ = b.PushIdentifier("x") })
	assert.Panics(t, func() { b.Finish() })
}

func TestRenderAndCollect(t *testing.T) {
	stmt := seq{SQL("SELECT "), Bind(types.Integer.Bind(1)), SQL(", "), Bound{}, SQL(" FROM "), Identifier("t")}

	text, err := Render(stmt)
	require.NoError(t, err)
	assert.Equal(t, `SELECT ?, ? FROM "t"`, text)

	params, err := Collect(stmt)
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), nil}, params.Args())
}

func TestRender_PropagatesIdentifierError(t *testing.T) {
	_, err := Render(Identifier("a\x00"))
	require.Error(t, err)
}

func TestDuckDBDialect(t *testing.T) {
	assert.Equal(t, "?", DuckDB.Placeholder)
	assert.Equal(t, " || ", DuckDB.ConcatOperator)
	assert.Equal(t, " DEFAULT VALUES", DuckDB.DefaultValuesClause)
	assert.False(t, DuckDB.SupportsDefaultKeyword)
	assert.False(t, DuckDB.SupportsReturning)
	assert.False(t, DuckDB.SupportsOnConflict)
	assert.True(t, DuckDB.SupportsBatchInsert)
	assert.True(t, DuckDB.OffsetWithoutLimit)
}
