package engine_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"duck-adapter/internal/bind"
	"duck-adapter/internal/domain"
	"duck-adapter/internal/engine"
	"duck-adapter/internal/query"
	"duck-adapter/internal/querybuilder"
	"duck-adapter/internal/testutil"
	"duck-adapter/internal/types"
)

var ctx = context.Background()

var (
	users     = query.NewTable("users")
	usersID   = users.Col("id")
	usersName = users.Col("name")
	usersAge  = users.Col("age")
)

func loadAll(t *testing.T, conn *engine.Connection, stmt engine.Statement) []*engine.Row {
	t.Helper()
	cur, err := conn.Load(ctx, stmt)
	require.NoError(t, err)
	var rows []*engine.Row
	for r := range cur.All() {
		rows = append(rows, r)
	}
	return rows
}

func ids(t *testing.T, rows []*engine.Row) []int32 {
	t.Helper()
	out := make([]int32, 0, len(rows))
	for _, r := range rows {
		id, err := engine.DecodeNamed(r, "id", types.Integer)
		require.NoError(t, err)
		out = append(out, id)
	}
	return out
}

func TestEstablish_Memory(t *testing.T) {
	conn, err := engine.Establish(ctx, engine.MemoryURL)
	require.NoError(t, err)
	assert.NotEmpty(t, conn.ID())
	assert.Equal(t, engine.MemoryURL, conn.URL())
	require.NoError(t, conn.Close())
}

func TestEstablish_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.duckdb")

	conn, err := engine.Establish(ctx, path)
	require.NoError(t, err)
	require.NoError(t, conn.BatchExecute(ctx, testutil.UsersSchema+";"+testutil.BasicUsers))
	require.NoError(t, conn.Close())

	reopened, err := engine.Establish(ctx, path)
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	rows := loadAll(t, reopened, query.Select(usersID).From(users).OrderBy(query.Asc(usersID)))
	assert.Equal(t, []int32{1, 2, 3}, ids(t, rows))
}

func TestEstablish_Failure(t *testing.T) {
	rec := &testutil.RecordingInstrumentation{}
	url := filepath.Join(t.TempDir(), "missing", "dir", "app.duckdb")

	_, err := engine.Establish(ctx, url, engine.WithInstrumentation(rec))
	require.Error(t, err)

	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, url, connErr.URL)

	require.Equal(t, []engine.EventKind{engine.EventEstablishStart, engine.EventEstablishFinish}, rec.Kinds())
	assert.Error(t, rec.Events[1].Err)
}

func TestIndependentConnectionsAreIsolated(t *testing.T) {
	g, gctx := errgroup.WithContext(ctx)
	counts := make([]int, 4)

	for i := range counts {
		g.Go(func() error {
			conn, err := engine.Establish(gctx, engine.MemoryURL)
			if err != nil {
				return err
			}
			defer conn.Close() //nolint:errcheck

			if err := conn.BatchExecute(gctx, testutil.UsersSchema); err != nil {
				return err
			}
			for id := 1; id <= i+1; id++ {
				insert := query.InsertInto(users).
					Columns(usersID, usersName).
					Values(query.Val(types.Integer, int32(id)), query.Val(types.Varchar, "worker"))
				if _, err := conn.Execute(gctx, insert); err != nil {
					return err
				}
			}
			cur, err := conn.Load(gctx, query.Select(usersID).From(users))
			if err != nil {
				return err
			}
			counts[i] = cur.Len()
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, []int{1, 2, 3, 4}, counts)
}

func TestLoad_FilterByAge(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.BasicUsers})

	stmt := query.Select(usersID, usersName).
		From(users).
		Where(query.Lt(usersAge, query.Val(types.Integer, 35))).
		OrderBy(query.Asc(usersID))
	rows := loadAll(t, conn, stmt)

	require.Len(t, rows, 2)
	assert.Equal(t, []int32{1, 2}, ids(t, rows))
	assert.Equal(t, []string{"id", "name"}, rows[0].Names())

	name, err := engine.DecodeAt(rows[1], 1, types.Varchar)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", name)
}

func TestLoad_LimitOffset(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.NumberedUsers})

	base := query.Select(usersID).From(users).OrderBy(query.Asc(usersID))

	tests := []struct {
		name string
		stmt engine.Statement
		want []int32
	}{
		{name: "limit_offset_bound", stmt: base.Limit(2).Offset(1), want: []int32{2, 3}},
		{name: "offset_before_limit", stmt: base.Offset(1).Limit(2), want: []int32{2, 3}},
		{name: "limit_literal", stmt: base.LimitLiteral(3), want: []int32{1, 2, 3}},
		{name: "offset_only", stmt: base.Offset(3), want: []int32{4, 5}},
		{name: "boxed", stmt: base.IntoBoxed().Limit(ptr(int64(2))).Offset(ptr(int64(1))), want: []int32{2, 3}},
		{name: "boxed_cleared", stmt: base.Limit(1).IntoBoxed().Limit(nil), want: []int32{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(t, loadAll(t, conn, tt.stmt)))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestLoad_EmptyPredicateGroups(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.BasicUsers})

	all := loadAll(t, conn, query.Select(usersID).From(users).Where(query.And()).OrderBy(query.Asc(usersID)))
	assert.Equal(t, []int32{1, 2, 3}, ids(t, all))

	none := loadAll(t, conn, query.Select(usersID).From(users).Where(query.Or()))
	assert.Empty(t, none)
}

func TestLoad_EmptyTable(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema})

	cur, err := conn.Load(ctx, query.Select().From(users))
	require.NoError(t, err)
	assert.Equal(t, 0, cur.Len())
	_, ok := cur.Next()
	assert.False(t, ok)
}

func TestLoad_NullBind(t *testing.T) {
	conn := testutil.OpenConnection(t, nil)

	cur, err := conn.Load(ctx, query.Raw("SELECT CAST(? AS INTEGER) AS v", nil))
	require.NoError(t, err)
	row, ok := cur.Next()
	require.True(t, ok)

	f, ok := row.GetByName("v")
	require.True(t, ok)
	assert.True(t, f.IsNull())

	v, err := engine.Decode(f, types.Nullable(types.Integer))
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = engine.Decode(f, types.Integer)
	var deErr *domain.DeserializationError
	assert.ErrorAs(t, err, &deErr)
}

func TestExecute_ReturnsAffectedRows(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.NumberedUsers})

	n, err := conn.Execute(ctx, query.Update(users).
		Set(usersAge, query.Val(types.Integer, 40)).
		Where(query.Gt(usersAge, query.Val(types.Integer, 22))))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = conn.Execute(ctx, query.DeleteFrom(users).Where(query.Eq(usersID, query.Val(types.Integer, 1))))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = conn.Execute(ctx, query.InsertInto(users).
		Columns(usersID, usersName).
		Values(query.Val(types.Integer, 10), query.Val(types.Varchar, "Ten")).
		Values(query.Val(types.Integer, 11), query.Val(types.Varchar, "Eleven")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExecute_ConstraintViolations(t *testing.T) {
	tests := []struct {
		name string
		stmt engine.Statement
		kind domain.ErrorKind
	}{
		{
			name: "duplicate_primary_key",
			stmt: query.InsertInto(users).Columns(usersID, usersName).
				Values(query.Val(types.Integer, 1), query.Val(types.Varchar, "Again")),
			kind: domain.UniqueViolation,
		},
		{
			name: "null_into_not_null",
			stmt: query.InsertInto(users).Columns(usersID, usersName).
				Values(query.Val(types.Integer, 9), query.Null()),
			kind: domain.NotNullViolation,
		},
		{
			name: "missing_foreign_key",
			stmt: query.Raw("INSERT INTO orders (order_id, user_id, quantity) VALUES (?, ?, ?)",
				types.Integer.Bind(1), types.Integer.Bind(99), types.Integer.Bind(1)),
			kind: domain.ForeignKeyViolation,
		},
		{
			name: "check_failed",
			stmt: query.Raw("INSERT INTO orders (order_id, user_id, quantity) VALUES (?, ?, ?)",
				types.Integer.Bind(2), types.Integer.Bind(1), types.Integer.Bind(0)),
			kind: domain.CheckViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.OrdersSchema, testutil.BasicUsers})

			_, err := conn.Execute(ctx, tt.stmt)
			require.Error(t, err)

			var dbErr *domain.DatabaseError
			require.ErrorAs(t, err, &dbErr)
			assert.Equal(t, tt.kind, dbErr.Kind, dbErr.Message)
			assert.NotEmpty(t, dbErr.Message)
		})
	}
}

func TestExecute_ParameterCountMismatch(t *testing.T) {
	conn := testutil.OpenConnection(t, nil)

	_, err := conn.Load(ctx, query.Raw("SELECT CAST(? AS INTEGER) + CAST(? AS INTEGER)", types.Integer.Bind(1)))
	require.Error(t, err)

	var dbErr *domain.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, domain.Unknown, dbErr.Kind)
}

func TestExecute_SerializationFailure(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema})

	failing := types.SerializerFunc(func(*types.Output) (bool, error) {
		return false, errors.New("boom")
	})
	_, err := conn.Execute(ctx, query.Raw("INSERT INTO users (id, name) VALUES (1, ?)", failing))

	var serErr *domain.SerializationError
	require.ErrorAs(t, err, &serErr)
	assert.Contains(t, err.Error(), "boom")
}

func TestExecute_RenderFailure(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema})

	_, err := conn.Execute(ctx, query.InsertInto(users).Columns(usersID).Values(query.Default))
	require.Error(t, err)
	assert.True(t, domain.IsTaxonomy(err))
	assert.Contains(t, err.Error(), "DEFAULT")
}

func TestExecute_RenderFailureIsNotClassified(t *testing.T) {
	conn := testutil.OpenConnection(t, nil)

	_, err := conn.Execute(ctx, query.DeleteFrom(query.NewTable("duplicate_rows\x00")))
	require.Error(t, err)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.Unknown, kind)
	assert.Contains(t, err.Error(), "render statement")
}

func TestInsert_DefaultValues(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{
		"CREATE SEQUENCE seq_events START 1",
		"CREATE TABLE events (id INTEGER DEFAULT nextval('seq_events'), kind VARCHAR DEFAULT 'created')",
	})
	events := query.NewTable("events")

	n, err := conn.Execute(ctx, query.InsertInto(events))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows := loadAll(t, conn, query.Select(events.Col("kind")).From(events))
	require.Len(t, rows, 1)
	kind, err := engine.DecodeAt(rows[0], 0, types.Varchar)
	require.NoError(t, err)
	assert.Equal(t, "created", kind)
}

func TestIdentifierQuotingRoundTrip(t *testing.T) {
	names := []string{`say "hi"`, "  padded  ", "select", "Mixed Case"}

	ddl := "CREATE TABLE " + querybuilder.QuoteIdentifier("odd table") + " ("
	for i, n := range names {
		if i > 0 {
			ddl += ", "
		}
		ddl += querybuilder.QuoteIdentifier(n) + " INTEGER"
	}
	ddl += ")"
	conn := testutil.OpenConnection(t, []string{ddl})

	tbl := query.NewTable("odd table")
	cols := make([]query.Column, len(names))
	vals := make([]query.Expr, len(names))
	sel := make([]query.Expr, len(names))
	for i, n := range names {
		cols[i] = tbl.Col(n)
		vals[i] = query.Val(types.Integer, int32(i))
		sel[i] = tbl.Col(n)
	}
	_, err := conn.Execute(ctx, query.InsertInto(tbl).Columns(cols...).Values(vals...))
	require.NoError(t, err)

	rows := loadAll(t, conn, query.Select(sel...).From(tbl).Where(query.Eq(tbl.Col("select"), query.Val(types.Integer, 2))))
	require.Len(t, rows, 1)
	assert.Equal(t, names, rows[0].Names())
	for i := range names {
		v, err := engine.DecodeAt(rows[0], i, types.Integer)
		require.NoError(t, err)
		assert.Equal(t, int32(i), v)
	}
}

func TestTypeRoundTrip(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{`
		CREATE TABLE samples (
			b BOOLEAN, ti TINYINT, si SMALLINT, i INTEGER, bi BIGINT,
			f FLOAT, d DOUBLE, s VARCHAR, bl BLOB, dt DATE, ts TIMESTAMP, tm TIME
		)`})

	date := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	ts := time.Date(2025, 7, 7, 20, 7, 30, 123456000, time.UTC)
	clock := time.Date(0, 1, 1, 13, 45, 30, 250000000, time.UTC)
	samples := query.NewTable("samples")
	insert := query.Raw("INSERT INTO samples VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		types.Boolean.Bind(true),
		types.TinyInt.Bind(-8),
		types.SmallInt.Bind(1600),
		types.Integer.Bind(-2_000_000),
		types.BigInt.Bind(9_000_000_000),
		types.Float.Bind(1.5),
		types.Double.Bind(2.25),
		types.Varchar.Bind("héllo"),
		types.Binary.Bind([]byte{0, 1, 2, 255}),
		types.Date.Bind(date),
		types.Timestamp.Bind(ts),
		types.Time.Bind(clock),
	)
	_, err := conn.Execute(ctx, insert)
	require.NoError(t, err)

	rows := loadAll(t, conn, query.Select().From(samples))
	require.Len(t, rows, 1)
	r := rows[0]

	b, err := engine.DecodeNamed(r, "b", types.Boolean)
	require.NoError(t, err)
	assert.True(t, b)
	ti, err := engine.DecodeNamed(r, "ti", types.TinyInt)
	require.NoError(t, err)
	assert.Equal(t, int8(-8), ti)
	si, err := engine.DecodeNamed(r, "si", types.SmallInt)
	require.NoError(t, err)
	assert.Equal(t, int16(1600), si)
	i, err := engine.DecodeNamed(r, "i", types.Integer)
	require.NoError(t, err)
	assert.Equal(t, int32(-2_000_000), i)
	bi, err := engine.DecodeNamed(r, "bi", types.BigInt)
	require.NoError(t, err)
	assert.Equal(t, int64(9_000_000_000), bi)
	f, err := engine.DecodeNamed(r, "f", types.Float)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)
	d, err := engine.DecodeNamed(r, "d", types.Double)
	require.NoError(t, err)
	assert.Equal(t, 2.25, d)
	s, err := engine.DecodeNamed(r, "s", types.Varchar)
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)
	bl, err := engine.DecodeNamed(r, "bl", types.Binary)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, bl)
	gotDate, err := engine.DecodeNamed(r, "dt", types.Date)
	require.NoError(t, err)
	assert.True(t, date.Equal(gotDate), "date %s", gotDate)
	gotTS, err := engine.DecodeNamed(r, "ts", types.Timestamp)
	require.NoError(t, err)
	assert.True(t, ts.Equal(gotTS), "timestamp %s", gotTS)
	gotClock, err := engine.DecodeNamed(r, "tm", types.Time)
	require.NoError(t, err)
	assert.Equal(t, "13:45:30.250000", gotClock.Format("15:04:05.000000"))
}

func TestLoad_EngineComputedTypes(t *testing.T) {
	conn := testutil.OpenConnection(t, nil)

	rows := loadAll(t, conn, query.Raw(
		"SELECT 12::HUGEINT AS h, 1.5::DECIMAL(4,1) AS dec, TIME '12:34:56' AS tm, 'a' || 'b' AS cat, "+
		"'6ba7b810-9dad-11d1-80b4-00c04fd430c8'::UUID AS u"))
	require.Len(t, rows, 1)
	r := rows[0]

	h, err := engine.DecodeNamed(r, "h", types.BigInt)
	require.NoError(t, err)
	assert.Equal(t, int64(12), h)

	dec, err := engine.DecodeNamed(r, "dec", types.Double)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, dec, 1e-9)

	tm, err := engine.DecodeNamed(r, "tm", types.Time)
	require.NoError(t, err)
	assert.Equal(t, "12:34:56", tm.Format("15:04:05"))

	cat, err := engine.DecodeNamed(r, "cat", types.Varchar)
	require.NoError(t, err)
	assert.Equal(t, "ab", cat)

	u, err := engine.DecodeNamed(r, "u", types.Varchar)
	require.NoError(t, err)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", u)
}

func TestLoad_NonScalarColumns(t *testing.T) {
	conn := testutil.OpenConnection(t, nil)

	_, err := conn.Load(ctx, query.Raw("SELECT INTERVAL 1 DAY AS span"))
	var deErr *domain.DeserializationError
	require.ErrorAs(t, err, &deErr)
	assert.Contains(t, err.Error(), `column "span"`)

	rows := loadAll(t, conn, query.Raw("SELECT CAST(INTERVAL 1 DAY AS VARCHAR) AS span"))
	require.Len(t, rows, 1)
	span, err := engine.DecodeNamed(rows[0], "span", types.Varchar)
	require.NoError(t, err)
	assert.Equal(t, "1 day", span)
}

func TestConcatOperator(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.BasicUsers})

	rows := loadAll(t, conn, query.Select(query.As(query.Concat(usersName, query.Val(types.Varchar, "!")), "shout")).
		From(users).
		Where(query.Eq(usersID, query.Val(types.Integer, 1))))
	require.Len(t, rows, 1)
	v, err := engine.DecodeNamed(rows[0], "shout", types.Varchar)
	require.NoError(t, err)
	assert.Equal(t, "John Doe!", v)
}

func TestStatementCache(t *testing.T) {
	rec := &testutil.RecordingInstrumentation{}
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.BasicUsers}, engine.WithInstrumentation(rec))
	rec.Reset()

	byAge := func(age int32) engine.Statement {
		return query.Select(usersID).From(users).Where(query.Lt(usersAge, query.Val(types.Integer, age)))
	}

	assert.Len(t, loadAll(t, conn, byAge(35)), 2)
	assert.Len(t, loadAll(t, conn, byAge(31)), 2)
	assert.Len(t, loadAll(t, conn, byAge(26)), 1)
	assert.Equal(t, 1, conn.StatementCache().Len())
	assert.Equal(t, 1, rec.Count(engine.EventCacheMiss))
	assert.Equal(t, 2, rec.Count(engine.EventCacheHit))

	t.Run("in_list_is_not_cached", func(t *testing.T) {
		rec.Reset()
		stmt := query.Select(usersID).From(users).Where(query.In(usersID,
			query.Val(types.Integer, 1), query.Val(types.Integer, 3)))
		assert.Len(t, loadAll(t, conn, stmt), 2)
		assert.Equal(t, 1, conn.StatementCache().Len())
		assert.Zero(t, rec.Count(engine.EventCacheMiss)+rec.Count(engine.EventCacheHit))
	})

	t.Run("raw_is_not_cached", func(t *testing.T) {
		assert.Len(t, loadAll(t, conn, query.Raw("SELECT 1")), 1)
		assert.Equal(t, 1, conn.StatementCache().Len())
	})
}

func TestStatementCache_Bounded(t *testing.T) {
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.BasicUsers}, engine.WithStatementCacheSize(1))

	loadAll(t, conn, query.Select(usersID).From(users))
	loadAll(t, conn, query.Select(usersName).From(users))
	assert.Equal(t, 1, conn.StatementCache().Len())

	// The evicted statement is prepared again.
	assert.Len(t, loadAll(t, conn, query.Select(usersID).From(users)), 3)
}

// conflicting reports a fixed identity regardless of its text.
type conflicting struct {
	querybuilder.SQL
}

func (conflicting) QueryID() (string, bool) { return "fixed", true }

func TestStatementCache_ConflictingIdentityPanics(t *testing.T) {
	conn := testutil.OpenConnection(t, nil)

	_, err := conn.Load(ctx, conflicting{SQL: "SELECT 1"})
	require.NoError(t, err)
	assert.Panics(t, func() {
		_, _ = conn.Load(ctx, conflicting{SQL: "SELECT 2"})
	})
}

func TestBatchExecute_Error(t *testing.T) {
	conn := testutil.OpenConnection(t, nil)

	err := conn.BatchExecute(ctx, "CREATE TABLE t (id INTEGER); SELEC 1")
	require.Error(t, err)
	var dbErr *domain.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, domain.Unknown, dbErr.Kind)
}

func TestSetupMigrations(t *testing.T) {
	conn := testutil.OpenConnection(t, nil)

	_, err := conn.SetupMigrations(ctx)
	require.NoError(t, err)
	_, err = conn.SetupMigrations(ctx)
	require.NoError(t, err)

	_, err = conn.Execute(ctx, query.Raw("INSERT INTO __schema_migrations (version) VALUES (?)", types.Varchar.Bind("20250707000000")))
	require.NoError(t, err)

	rows := loadAll(t, conn, query.Raw("SELECT version, run_on FROM __schema_migrations"))
	require.Len(t, rows, 1)
	f, ok := rows[0].GetByName("run_on")
	require.True(t, ok)
	assert.Equal(t, types.KindTimestamp, f.Value().Kind())
}

func TestTransactions(t *testing.T) {
	count := func(t *testing.T, conn *engine.Connection) int64 {
		t.Helper()
		rows := loadAll(t, conn, query.Select(query.As(query.CountStar(), "n")).From(users))
		n, err := engine.DecodeNamed(rows[0], "n", types.BigInt)
		require.NoError(t, err)
		return n
	}
	insert := func(id int32) engine.Statement {
		return query.InsertInto(users).Columns(usersID, usersName).
			Values(query.Val(types.Integer, id), query.Val(types.Varchar, "tx"))
	}

	t.Run("commit", func(t *testing.T) {
		conn := testutil.OpenConnection(t, []string{testutil.UsersSchema})
		err := conn.Transaction(ctx, func(c *engine.Connection) error {
			_, err := c.Execute(ctx, insert(1))
			return err
		})
		require.NoError(t, err)
		assert.False(t, conn.InTransaction())
		assert.Equal(t, int64(1), count(t, conn))
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		conn := testutil.OpenConnection(t, []string{testutil.UsersSchema})
		sentinel := errors.New("stop")
		err := conn.Transaction(ctx, func(c *engine.Connection) error {
			if _, err := c.Execute(ctx, insert(1)); err != nil {
				return err
			}
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)
		assert.Equal(t, int64(0), count(t, conn))
	})

	t.Run("rollback_on_panic", func(t *testing.T) {
		conn := testutil.OpenConnection(t, []string{testutil.UsersSchema})
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = conn.Transaction(ctx, func(c *engine.Connection) error {
				_, _ = c.Execute(ctx, insert(1))
				panic("kaboom")
			})
		})
		assert.False(t, conn.InTransaction())
		assert.Equal(t, int64(0), count(t, conn))
	})

	t.Run("nested_begin", func(t *testing.T) {
		conn := testutil.OpenConnection(t, []string{testutil.UsersSchema})
		require.NoError(t, conn.Begin(ctx))
		assert.ErrorIs(t, conn.Begin(ctx), engine.ErrNestedTransaction)
		require.NoError(t, conn.Rollback(ctx))
	})

	t.Run("commit_without_begin", func(t *testing.T) {
		conn := testutil.OpenConnection(t, nil)
		assert.ErrorIs(t, conn.Commit(ctx), engine.ErrNoTransaction)
		assert.ErrorIs(t, conn.Rollback(ctx), engine.ErrNoTransaction)
	})
}

func TestInstrumentation_Events(t *testing.T) {
	rec := &testutil.RecordingInstrumentation{}
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema}, engine.WithInstrumentation(rec))

	kinds := rec.Kinds()
	require.GreaterOrEqual(t, len(kinds), 2)
	assert.Equal(t, engine.EventEstablishStart, kinds[0])
	assert.Equal(t, engine.EventEstablishFinish, kinds[1])

	rec.Reset()
	_, err := conn.Execute(ctx, query.InsertInto(users).Columns(usersID, usersName).
		Values(query.Val(types.Integer, 1), query.Val(types.Varchar, "a")))
	require.NoError(t, err)
	assert.Equal(t, []engine.EventKind{engine.EventCacheMiss, engine.EventQueryStart, engine.EventQueryFinish}, rec.Kinds())

	finish := rec.Events[2]
	assert.Equal(t, conn.ID(), finish.ConnectionID)
	assert.Equal(t, rec.Events[1].QueryID, finish.QueryID)
	assert.Equal(t, int64(1), finish.RowsAffected)
	assert.Contains(t, finish.SQL, `INSERT INTO "users"`)

	other := &testutil.RecordingInstrumentation{}
	conn.SetInstrumentation(other)
	require.NoError(t, conn.Begin(ctx))
	require.NoError(t, conn.Commit(ctx))
	assert.Equal(t, []engine.EventKind{engine.EventBegin, engine.EventCommit}, other.Kinds())

	conn.SetInstrumentation(nil)
	_, err = conn.Load(ctx, query.Raw("SELECT 1"))
	require.NoError(t, err)
}

func TestSlogInstrumentation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	conn := testutil.OpenConnection(t, nil, engine.WithInstrumentation(engine.NewSlogInstrumentation(logger)))

	_, err := conn.Load(ctx, query.Raw("SELECT 1"))
	require.NoError(t, err)
	_ = conn.BatchExecute(ctx, "SELEC 1")

	out := buf.String()
	assert.Contains(t, out, `"event":"establish_finish"`)
	assert.Contains(t, out, `"event":"query_finish"`)
	assert.Contains(t, out, `"component":"engine"`)
	assert.Contains(t, out, `"level":"ERROR"`)
}

func TestWithClassifier(t *testing.T) {
	classifier := &testutil.MockClassifier{
		ClassifyFn: func(string) domain.ErrorKind { return domain.CheckViolation },
	}
	conn := testutil.OpenConnection(t, []string{testutil.UsersSchema, testutil.BasicUsers}, engine.WithClassifier(classifier))

	_, err := conn.Execute(ctx, query.InsertInto(users).Columns(usersID, usersName).
		Values(query.Val(types.Integer, 1), query.Val(types.Varchar, "dup")))
	assert.True(t, domain.IsKind(err, domain.CheckViolation))
	require.Len(t, classifier.Messages, 1)
}

func TestCollectedParamsMatchPlaceholders(t *testing.T) {
	stmt := query.Select(usersID).From(users).
		Where(query.And(
			query.Ge(usersAge, query.Val(types.Integer, 21)),
			query.Like(usersName, query.Val(types.Varchar, "User%")),
		)).
		Limit(2).Offset(1)

	b := querybuilder.NewBuilder()
	require.NoError(t, stmt.RenderSQL(b))
	c := bind.NewCollector()
	require.NoError(t, stmt.CollectBinds(c))
	assert.Equal(t, b.PlaceholderCount(), c.Len())
	assert.Equal(t, 4, c.Len())
}
