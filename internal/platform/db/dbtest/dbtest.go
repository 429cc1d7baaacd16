// Package dbtest provides a scripted stand-in for the pgx pool so
// transactional stores can be exercised without a database.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn implements the statement surface of *pgxpool.Pool. Executed SQL is
// matched against FailOn substrings and the first match returns its error;
// Query and QueryRow results come from Rows, matched the same way.
type Conn struct {
	FailOn map[string]error
	Rows   map[string][][]any

	Statements []string
	Begun      int
	Commits    int
	Rollbacks  int
}

func (c *Conn) run(sql string) error {
	c.Statements = append(c.Statements, sql)
	for needle, err := range c.FailOn {
		if strings.Contains(sql, needle) {
			return err
		}
	}
	return nil
}

func (c *Conn) rowsFor(sql string) [][]any {
	for needle, data := range c.Rows {
		if strings.Contains(sql, needle) {
			return data
		}
	}
	return nil
}

// BeginTx starts a scripted transaction running against the same conn.
func (c *Conn) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	c.Begun++
	return &tx{conn: c}, nil
}

// Exec records the statement and reports one affected row unless scripted
// to fail.
func (c *Conn) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if err := c.run(sql); err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

// Query returns the scripted rows for the statement.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if err := c.run(sql); err != nil {
		return nil, err
	}
	return &rows{data: c.rowsFor(sql)}, nil
}

// QueryRow returns the first scripted row, or a pgx.ErrNoRows row when
// nothing matches.
func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if err := c.run(sql); err != nil {
		return errRow{err: err}
	}
	data := c.rowsFor(sql)
	if len(data) == 0 {
		return errRow{err: pgx.ErrNoRows}
	}
	return &row{values: data[0]}
}

type tx struct {
	conn   *Conn
	closed bool
}

func (t *tx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.conn.Commits++
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.conn.Rollbacks++
	return nil
}

func (t *tx) CopyFrom(ctx context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("dbtest: CopyFrom not supported")
}

func (t *tx) SendBatch(ctx context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }

func (t *tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("dbtest: Prepare not supported")
}

func (t *tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return t.conn.Exec(ctx, sql, arguments...)
}

func (t *tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.conn.Query(ctx, sql, args...)
}

func (t *tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.conn.QueryRow(ctx, sql, args...)
}

func (t *tx) Conn() *pgx.Conn { return nil }

type rows struct {
	data [][]any
	idx  int
}

func (r *rows) Close()                                       {}
func (r *rows) Err() error                                   { return nil }
func (r *rows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *rows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *rows) Scan(dest ...any) error { return assign(r.data[r.idx-1], dest) }
func (r *rows) Values() ([]any, error) { return r.data[r.idx-1], nil }
func (r *rows) RawValues() [][]byte    { return nil }
func (r *rows) Conn() *pgx.Conn        { return nil }

type row struct{ values []any }

func (r *row) Scan(dest ...any) error { return assign(r.values, dest) }

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("dbtest: scan expects %d values, got %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *int:
			n, ok := toInt64(v)
			if !ok {
				return fmt.Errorf("dbtest: cannot scan %T into *int", v)
			}
			*d = int(n)
		case *int64:
			n, ok := toInt64(v)
			if !ok {
				return fmt.Errorf("dbtest: cannot scan %T into *int64", v)
			}
			*d = n
		case **int64:
			if v == nil {
				*d = nil
				break
			}
			n, ok := toInt64(v)
			if !ok {
				return fmt.Errorf("dbtest: cannot scan %T into **int64", v)
			}
			val := n
			*d = &val
		case *string:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("dbtest: cannot scan %T into *string", v)
			}
			*d = s
		case *bool:
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("dbtest: cannot scan %T into *bool", v)
			}
			*d = b
		case *time.Time:
			ts, ok := v.(time.Time)
			if !ok {
				return fmt.Errorf("dbtest: cannot scan %T into *time.Time", v)
			}
			*d = ts
		default:
			return fmt.Errorf("dbtest: unsupported scan destination %T", dest[i])
		}
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
