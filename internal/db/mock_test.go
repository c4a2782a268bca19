package db

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ---------- Fake pool ----------

// fakePool implements Pool without a backend. Query results come from the
// configured fields and values; calls are recorded for assertions.
type fakePool struct {
	fields []string
	values [][]any

	queryErr error
	execTag  pgconn.CommandTag
	execErr  error
	pingErr  error

	mu          sync.Mutex
	queries     []recordedQuery
	pings       int
	closed      bool
	sawDeadline bool
}

type recordedQuery struct {
	sql  string
	args []any
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, p.sawDeadline = ctx.Deadline()
	p.queries = append(p.queries, recordedQuery{sql: sql, args: args})
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return newFakeRows(p.fields, p.values), nil
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, p.sawDeadline = ctx.Deadline()
	p.queries = append(p.queries, recordedQuery{sql: sql, args: args})
	return p.execTag, p.execErr
}

func (p *fakePool) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pings++
	return p.pingErr
}

func (p *fakePool) Stat() *pgxpool.Stat { return nil }

func (p *fakePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
}

func (p *fakePool) queryCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.queries)
}

func (p *fakePool) lastQuery() recordedQuery {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.queries[len(p.queries)-1]
}

// ---------- Fake rows ----------

// fakeRows implements pgx.Rows over fixed column names and row values.
type fakeRows struct {
	fields []pgconn.FieldDescription
	values [][]any
	idx    int
}

func newFakeRows(fields []string, values [][]any) *fakeRows {
	fds := make([]pgconn.FieldDescription, len(fields))
	for i, f := range fields {
		fds[i] = pgconn.FieldDescription{Name: f}
	}
	return &fakeRows{fields: fds, values: values}
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.values) {
		return false
	}
	r.idx++
	return true
}

// Scan supports the pgx.RowScanner dispatch that pgx.RowToMap relies on.
func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) == 1 {
		if rs, ok := dest[0].(pgx.RowScanner); ok {
			return rs.ScanRow(r)
		}
	}
	return errors.New("fakeRows: unsupported scan destination")
}

func (r *fakeRows) Values() ([]any, error)                       { return r.values[r.idx-1], nil }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) Close()                                       {}
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
