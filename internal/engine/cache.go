package engine

import (
	"database/sql"
	"errors"
)

// StatementCache holds prepared statements keyed by statement identity.
// It is owned by one Connection and is not safe for concurrent use.
//
// An entry stores the SQL text it was prepared from. Looking up a key whose
// stored text differs from the freshly rendered text means two statements
// reported the same identity for different SQL, and the lookup panics.
type StatementCache struct {
	entries map[string]*cachedStatement
	order   []string
	maxSize int
}

type cachedStatement struct {
	sql  string
	stmt *sql.Stmt
}

// NewStatementCache returns an empty cache. maxSize <= 0 means unbounded;
// otherwise the oldest entry is evicted and closed once the bound is reached.
func NewStatementCache(maxSize int) *StatementCache {
	return &StatementCache{
		entries: make(map[string]*cachedStatement),
		maxSize: maxSize,
	}
}

// Lookup returns the statement cached under key.
func (c *StatementCache) Lookup(key, sqlText string) (*sql.Stmt, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.sql != sqlText {
		panic("unexpected statement cache state: key " + key + " maps to different SQL")
	}
	return e.stmt, true
}

// Insert stores stmt under key, evicting the oldest entry when full.
func (c *StatementCache) Insert(key, sqlText string, stmt *sql.Stmt) error {
	var evictErr error
	if c.maxSize > 0 && len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if e, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			evictErr = e.stmt.Close()
		}
	}
	c.entries[key] = &cachedStatement{sql: sqlText, stmt: stmt}
	c.order = append(c.order, key)
	return evictErr
}

// Len returns the number of cached statements.
func (c *StatementCache) Len() int { return len(c.entries) }

// Close closes every cached statement and empties the cache.
func (c *StatementCache) Close() error {
	var errs []error
	for _, key := range c.order {
		if e, ok := c.entries[key]; ok {
			if err := e.stmt.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	c.entries = make(map[string]*cachedStatement)
	c.order = nil
	return errors.Join(errs...)
}
