// Package engine executes rendered statements against an embedded DuckDB
// database and materializes their results.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/google/uuid"

	"duck-adapter/internal/bind"
	"duck-adapter/internal/domain"
	"duck-adapter/internal/errmap"
	"duck-adapter/internal/querybuilder"
	"duck-adapter/internal/types"
)

// MemoryURL opens a private in-memory database.
const MemoryURL = ":memory:"

// Statement is anything the engine can execute. Statements that also
// implement querybuilder.Identified may reuse a cached prepared handle.
type Statement = querybuilder.QueryFragment

// Connection is one open DuckDB database with a single pinned session.
// It is not safe for concurrent use.
type Connection struct {
	id         string
	url        string
	db         *sql.DB
	conn       *sql.Conn
	cache      *StatementCache
	translator *errmap.Translator
	instr      Instrumentation
	logger     *slog.Logger
	txDepth    int
}

type options struct {
	logger     *slog.Logger
	instr      Instrumentation
	classifier errmap.Classifier
	cacheSize  int
}

// Option configures Establish.
type Option func(*options)

// WithLogger sets the logger used for connection diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInstrumentation installs i before the connection is opened, so the
// establish events are observed too.
func WithInstrumentation(i Instrumentation) Option {
	return func(o *options) { o.instr = i }
}

// WithClassifier replaces the heuristic error classifier.
func WithClassifier(c errmap.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithStatementCacheSize bounds the number of cached prepared statements.
// Zero or negative leaves the cache unbounded.
func WithStatementCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// Establish opens the database at url and pins one session to it.
// MemoryURL opens a private in-memory database.
func Establish(ctx context.Context, url string, opts ...Option) (*Connection, error) {
	o := options{instr: NopInstrumentation{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.instr == nil {
		o.instr = NopInstrumentation{}
	}

	id := uuid.NewString()
	start := time.Now()
	o.instr.OnEvent(Event{Kind: EventEstablishStart, ConnectionID: id, URL: url})

	c, err := open(ctx, url)
	if err != nil {
		err = &domain.ConnectionError{URL: url, Err: err}
	}
	o.instr.OnEvent(Event{Kind: EventEstablishFinish, ConnectionID: id, URL: url, Duration: time.Since(start), Err: err})
	if err != nil {
		return nil, err
	}

	c.id = id
	c.url = url
	c.cache = NewStatementCache(o.cacheSize)
	c.translator = errmap.New(o.classifier)
	c.instr = o.instr
	c.logger = o.logger.With("component", "engine", "connection_id", id)
	c.logger.Debug("connection established", "url", url)
	return c, nil
}

func open(ctx context.Context, url string) (*Connection, error) {
	dsn := url
	if dsn == MemoryURL {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Connection{db: db, conn: conn}, nil
}

// ID returns the connection's unique identifier used in events and logs.
func (c *Connection) ID() string { return c.id }

// URL returns the url the connection was established with.
func (c *Connection) URL() string { return c.url }

// StatementCache exposes the prepared-statement cache.
func (c *Connection) StatementCache() *StatementCache { return c.cache }

// SetInstrumentation replaces the active instrumentation; nil disables it.
func (c *Connection) SetInstrumentation(i Instrumentation) {
	if i == nil {
		i = NopInstrumentation{}
	}
	c.instr = i
}

// Close releases cached statements, the pinned session and the database.
func (c *Connection) Close() error {
	var errs []error
	if err := c.cache.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BatchExecute runs text, which may hold several statements, with no
// parameters and no result rows.
func (c *Connection) BatchExecute(ctx context.Context, text string) error {
	q := c.startQuery(text)
	_, err := c.conn.ExecContext(ctx, text)
	err = c.translator.Translate(err)
	q.finish(0, 0, err)
	return err
}

// Execute runs stmt and returns the number of affected rows.
func (c *Connection) Execute(ctx context.Context, stmt Statement) (int64, error) {
	p, err := c.prepare(ctx, stmt)
	if err != nil {
		return 0, err
	}
	defer p.release()

	q := c.startQuery(p.sql)
	n, err := c.exec(ctx, p)
	q.finish(n, 0, err)
	return n, err
}

func (c *Connection) exec(ctx context.Context, p *prepared) (int64, error) {
	res, err := p.stmt.ExecContext(ctx, p.params.Args()...)
	if err != nil {
		return 0, c.translator.Translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, c.translator.Translate(err)
	}
	return n, nil
}

// Load runs stmt and materializes every result row before returning.
// Either all rows are returned or an error is.
func (c *Connection) Load(ctx context.Context, stmt Statement) (*Cursor, error) {
	p, err := c.prepare(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer p.release()

	q := c.startQuery(p.sql)
	rows, err := c.load(ctx, p)
	q.finish(0, len(rows), err)
	if err != nil {
		return nil, err
	}
	return newCursor(rows), nil
}

func (c *Connection) load(ctx context.Context, p *prepared) ([]*Row, error) {
	rs, err := p.stmt.QueryContext(ctx, p.params.Args()...)
	if err != nil {
		return nil, c.translator.Translate(err)
	}
	defer rs.Close()

	names, err := rs.Columns()
	if err != nil {
		return nil, c.translator.Translate(err)
	}
	colTypes, err := rs.ColumnTypes()
	if err != nil {
		return nil, c.translator.Translate(err)
	}
	dbTypes := make([]string, len(colTypes))
	for i, ct := range colTypes {
		dbTypes[i] = ct.DatabaseTypeName()
	}

	var out []*Row
	raw := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rs.Next() {
		if err := rs.Scan(ptrs...); err != nil {
			return nil, c.translator.Translate(err)
		}
		values := make([]types.Value, len(raw))
		for i, src := range raw {
			v, err := types.FromDriver(src, dbTypes[i])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", names[i], err)
			}
			values[i] = v
		}
		out = append(out, NewRow(names, values))
	}
	if err := rs.Err(); err != nil {
		return nil, c.translator.Translate(err)
	}
	return out, nil
}

type prepared struct {
	sql     string
	stmt    *sql.Stmt
	params  bind.Params
	release func()
}

// prepare renders stmt, collects its binds and obtains a statement handle,
// from the cache when stmt is identified as cacheable.
func (c *Connection) prepare(ctx context.Context, stmt Statement) (*prepared, error) {
	text, err := querybuilder.Render(stmt)
	if err != nil {
		return nil, domain.ErrDatabase("render statement: %v", err)
	}
	params, err := querybuilder.Collect(stmt)
	if err != nil {
		return nil, c.translator.Translate(err)
	}

	key, cacheable := "", false
	if ident, ok := stmt.(querybuilder.Identified); ok {
		key, cacheable = ident.QueryID()
	}

	if !cacheable {
		st, err := c.conn.PrepareContext(ctx, text)
		if err != nil {
			return nil, c.translator.Translate(err)
		}
		return &prepared{sql: text, stmt: st, params: params, release: func() { _ = st.Close() }}, nil
	}

	if st, ok := c.cache.Lookup(key, text); ok {
		c.instr.OnEvent(Event{Kind: EventCacheHit, ConnectionID: c.id, CacheKey: key})
		return &prepared{sql: text, stmt: st, params: params, release: func() {}}, nil
	}
	c.instr.OnEvent(Event{Kind: EventCacheMiss, ConnectionID: c.id, CacheKey: key})

	st, err := c.conn.PrepareContext(ctx, text)
	if err != nil {
		return nil, c.translator.Translate(err)
	}
	if err := c.cache.Insert(key, text, st); err != nil {
		c.logger.Warn("close evicted statement", "error", err)
	}
	return &prepared{sql: text, stmt: st, params: params, release: func() {}}, nil
}

type queryScope struct {
	c     *Connection
	id    string
	sql   string
	start time.Time
}

func (c *Connection) startQuery(sqlText string) queryScope {
	q := queryScope{c: c, id: uuid.NewString(), sql: sqlText, start: time.Now()}
	c.instr.OnEvent(Event{Kind: EventQueryStart, ConnectionID: c.id, QueryID: q.id, SQL: sqlText})
	return q
}

func (q queryScope) finish(affected int64, rows int, err error) {
	q.c.instr.OnEvent(Event{
		Kind:         EventQueryFinish,
		ConnectionID: q.c.id,
		QueryID:      q.id,
		SQL:          q.sql,
		Duration:     time.Since(q.start),
		RowsAffected: affected,
		Rows:         rows,
		Err:          err,
	})
}
