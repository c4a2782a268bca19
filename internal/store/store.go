// Package store holds the per-feature query functions. Every method takes
// the calling user's ID as an explicit argument and binds it into the SQL;
// there is no way to run a user-scoped query without an identity.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/edvin/unwind/internal/db"
)

// DB is the query surface stores run against. *db.Executor satisfies this
// interface.
type DB interface {
	FetchOne(ctx context.Context, sql string, args ...any) (db.Row, error)
	FetchAll(ctx context.Context, sql string, args ...any) ([]db.Row, error)
	Exec(ctx context.Context, sql string, args ...any) (string, error)
	ExecReturning(ctx context.Context, sql string, args ...any) (db.Row, error)
}

// Stores bundles the feature stores running over one executor.
type Stores struct {
	Items       *ItemStore
	Planner     *PlannerStore
	Reassurance *ReassuranceStore
}

func NewStores(db DB) *Stores {
	return &Stores{
		Items:       NewItemStore(db),
		Planner:     NewPlannerStore(db),
		Reassurance: NewReassuranceStore(db),
	}
}

// tagged carries the user into the executor's log correlation. The
// authoritative scoping stays in each query's bind parameters.
func tagged(ctx context.Context, user uuid.UUID) context.Context {
	return db.WithUser(ctx, user.String())
}

// normalizeRow converts driver-level values into JSON-friendly ones; pgx
// decodes uuid columns to [16]byte.
func normalizeRow(r db.Row) db.Row {
	for k, v := range r {
		if b, ok := v.([16]byte); ok {
			r[k] = uuid.UUID(b).String()
		}
	}
	return r
}

func normalizeRows(rows []db.Row) []db.Row {
	for _, r := range rows {
		normalizeRow(r)
	}
	return rows
}

// rowString reads a text column, tolerating uuid byte form.
func rowString(r db.Row, key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case [16]byte:
		return uuid.UUID(v).String()
	}
	return ""
}

// rowInt reads an integer column at whatever width the driver produced.
func rowInt(r db.Row, key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}
