package querybuilder

// Dialect describes the SQL surface the adapter emits.
type Dialect struct {
	Placeholder         string
	ConcatOperator      string
	DefaultValuesClause string

	// SupportsDefaultKeyword reports whether DEFAULT may appear inside a
	// VALUES list. DuckDB rejects it in multi-row inserts.
	SupportsDefaultKeyword bool
	SupportsReturning      bool
	SupportsOnConflict     bool
	SupportsBatchInsert    bool
	OffsetWithoutLimit     bool
}

// DuckDB is the dialect emitted for the embedded engine: ANSI SELECT/FROM,
// ? placeholders, || concatenation, DEFAULT VALUES for column-less inserts
// and multi-row VALUES lists.
var DuckDB = Dialect{
	Placeholder:            "?",
	ConcatOperator:         " || ",
	DefaultValuesClause:    " DEFAULT VALUES",
	SupportsDefaultKeyword: false,
	SupportsReturning:      false,
	SupportsOnConflict:     false,
	SupportsBatchInsert:    true,
	OffsetWithoutLimit:     true,
}
