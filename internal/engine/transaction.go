package engine

import (
	"context"
	"errors"
	"time"
)

// ErrNestedTransaction is returned by Begin inside an open transaction.
// DuckDB has no savepoints.
var ErrNestedTransaction = errors.New("engine: nested transactions are not supported")

// ErrNoTransaction is returned by Commit and Rollback outside a transaction.
var ErrNoTransaction = errors.New("engine: no transaction in progress")

// InTransaction reports whether a transaction is open.
func (c *Connection) InTransaction() bool { return c.txDepth > 0 }

// Begin opens a transaction on the pinned session.
func (c *Connection) Begin(ctx context.Context) error {
	if c.txDepth > 0 {
		return ErrNestedTransaction
	}
	if err := c.txStatement(ctx, EventBegin, "BEGIN TRANSACTION"); err != nil {
		return err
	}
	c.txDepth = 1
	return nil
}

// Commit commits the open transaction. The transaction is closed even when
// the commit fails, since DuckDB aborts it in that case.
func (c *Connection) Commit(ctx context.Context) error {
	if c.txDepth == 0 {
		return ErrNoTransaction
	}
	c.txDepth = 0
	return c.txStatement(ctx, EventCommit, "COMMIT")
}

// Rollback discards the open transaction.
func (c *Connection) Rollback(ctx context.Context) error {
	if c.txDepth == 0 {
		return ErrNoTransaction
	}
	c.txDepth = 0
	return c.txStatement(ctx, EventRollback, "ROLLBACK")
}

// Transaction runs fn inside a transaction. It commits when fn returns nil
// and rolls back when fn returns an error or panics; a panic is re-raised
// after the rollback.
func (c *Connection) Transaction(ctx context.Context, fn func(*Connection) error) (err error) {
	if err := c.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := c.Rollback(ctx); rbErr != nil {
				c.logger.Error("rollback after panic", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(c); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return c.Commit(ctx)
}

func (c *Connection) txStatement(ctx context.Context, kind EventKind, text string) error {
	start := time.Now()
	_, err := c.conn.ExecContext(ctx, text)
	err = c.translator.Translate(err)
	c.instr.OnEvent(Event{Kind: kind, ConnectionID: c.id, SQL: text, Duration: time.Since(start), Err: err})
	return err
}
