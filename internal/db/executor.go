package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// queryLogLen caps how much query text goes into error logs.
const queryLogLen = 100

var queriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_queries_total",
		Help: "Total number of executed queries by operation and status",
	},
	[]string{"operation", "status"},
)

// Row is a single result row keyed by column name.
type Row = map[string]any

// Pool is the subset of *pgxpool.Pool the executor drives. Tests substitute
// fakes through the executor's dial hook.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Stat() *pgxpool.Stat
	Close()
}

// Config holds the connection settings for the executor's pool.
type Config struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	MinConns     int
	MaxConns     int
	QueryTimeout time.Duration
}

func (c Config) connString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	return u.String()
}

// Executor runs parameterized queries against a bounded connection pool.
// The pool moves through uninitialized -> connected -> disconnected; any
// query primitive called outside the connected state connects lazily from
// the stored config. MaxConns bounds the number of concurrent round trips;
// callers beyond that queue inside pgxpool rather than opening more.
//
// A query runs on behalf of the identity tagged via WithUser; the tag is
// carried for log correlation only and is never interpolated into SQL.
type Executor struct {
	cfg    Config
	logger zerolog.Logger
	dial   func(ctx context.Context, pc *pgxpool.Config) (Pool, error)

	mu   sync.Mutex
	pool Pool
}

func NewExecutor(cfg Config, logger zerolog.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		logger: logger,
		dial: func(ctx context.Context, pc *pgxpool.Config) (Pool, error) {
			return pgxpool.NewWithConfig(ctx, pc)
		},
	}
}

// Connect establishes the pool. Calling it while connected is a warned
// no-op: the existing pool keeps serving and no second pool is created.
func (e *Executor) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool != nil {
		e.logger.Warn().Msg("connection pool already exists")
		return nil
	}

	_, err := e.connectLocked(ctx)
	return err
}

// Disconnect closes the pool and returns the executor to uninitialized.
// The next query primitive reconnects from the stored config.
func (e *Executor) Disconnect() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool == nil {
		return
	}

	e.pool.Close()
	e.pool = nil
	e.logger.Info().Msg("connection pool closed")
}

// Ping checks the backend is reachable, connecting lazily when needed.
func (e *Executor) Ping(ctx context.Context) error {
	pool, err := e.acquirePool(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Stat reports statistics for the live pool, or nil when disconnected.
func (e *Executor) Stat() *pgxpool.Stat {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool == nil {
		return nil
	}
	return e.pool.Stat()
}

// FetchOne runs a query and maps its first row by column name. Zero
// matching rows is nil, nil, not an error.
func (e *Executor) FetchOne(ctx context.Context, sql string, args ...any) (Row, error) {
	row, err := e.queryRow(ctx, "fetch_one", sql, args)
	if err != nil {
		return nil, fmt.Errorf("fetch one: %w", err)
	}
	return row, nil
}

// FetchAll runs a query and maps every row by column name, in the order the
// backend produced them. Zero matching rows is an empty slice, never nil.
func (e *Executor) FetchAll(ctx context.Context, sql string, args ...any) ([]Row, error) {
	pool, err := e.acquirePool(ctx)
	if err != nil {
		return nil, err
	}

	qctx, cancel := e.queryContext(ctx)
	defer cancel()

	rows, err := pool.Query(qctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", e.fail(ctx, "fetch_all", sql, err))
	}

	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", e.fail(ctx, "fetch_all", sql, err))
	}

	observe("fetch_all", nil)
	if out == nil {
		out = []Row{}
	}
	return out, nil
}

// Exec runs a mutating statement without a RETURNING clause and returns the
// backend command tag, e.g. "UPDATE 1".
func (e *Executor) Exec(ctx context.Context, sql string, args ...any) (string, error) {
	pool, err := e.acquirePool(ctx)
	if err != nil {
		return "", err
	}

	qctx, cancel := e.queryContext(ctx)
	defer cancel()

	tag, err := pool.Exec(qctx, sql, args...)
	if err != nil {
		return "", fmt.Errorf("execute: %w", e.fail(ctx, "execute", sql, err))
	}

	observe("execute", nil)
	return tag.String(), nil
}

// ExecReturning runs a mutating statement with a RETURNING clause and maps
// the affected row. A predicate matching zero rows returns nil, nil; that is
// how callers tell "precondition failed" from a raised backend error.
func (e *Executor) ExecReturning(ctx context.Context, sql string, args ...any) (Row, error) {
	row, err := e.queryRow(ctx, "execute_returning", sql, args)
	if err != nil {
		return nil, fmt.Errorf("execute returning: %w", err)
	}
	return row, nil
}

// queryRow is the shared single-row path: one pooled round trip, zero rows
// mapped to nil.
func (e *Executor) queryRow(ctx context.Context, op, sql string, args []any) (Row, error) {
	pool, err := e.acquirePool(ctx)
	if err != nil {
		return nil, err
	}

	qctx, cancel := e.queryContext(ctx)
	defer cancel()

	rows, err := pool.Query(qctx, sql, args...)
	if err != nil {
		return nil, e.fail(ctx, op, sql, err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		observe(op, nil)
		return nil, nil
	}
	if err != nil {
		return nil, e.fail(ctx, op, sql, err)
	}

	observe(op, nil)
	return row, nil
}

// acquirePool returns the live pool, connecting lazily when there is none.
func (e *Executor) acquirePool(ctx context.Context) (Pool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool != nil {
		return e.pool, nil
	}
	return e.connectLocked(ctx)
}

func (e *Executor) connectLocked(ctx context.Context) (Pool, error) {
	if e.cfg.Host == "" || e.cfg.Password == "" {
		return nil, errors.New("DB_HOST and DB_PASSWORD must be set")
	}

	pc, err := pgxpool.ParseConfig(e.cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	pc.MinConns = int32(e.cfg.MinConns)
	pc.MaxConns = int32(e.cfg.MaxConns)

	pool, err := e.dial(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	e.logger.Info().
		Str("host", e.cfg.Host).
		Int("min_conns", e.cfg.MinConns).
		Int("max_conns", e.cfg.MaxConns).
		Msg("connection pool created")

	e.pool = pool
	return pool, nil
}

func (e *Executor) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.cfg.QueryTimeout)
}

// fail counts and logs a backend error with a truncated copy of the query
// text, then hands the error back for the caller to wrap and raise.
func (e *Executor) fail(ctx context.Context, op, sql string, err error) error {
	observe(op, err)

	evt := e.logger.Error().Err(err).
		Str("operation", op).
		Str("query", truncateQuery(sql))
	if user := UserFromContext(ctx); user != "" {
		evt = evt.Str("user", user)
	}
	evt.Msg("query failed")

	return err
}

func observe(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	queriesTotal.WithLabelValues(op, status).Inc()
}

func truncateQuery(sql string) string {
	if len(sql) <= queryLogLen {
		return sql
	}
	return sql[:queryLogLen]
}
