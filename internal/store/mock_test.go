package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/unwind/internal/db"
)

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) FetchOne(ctx context.Context, sql string, arguments ...any) (db.Row, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.Row), args.Error(1)
}

func (m *mockDB) FetchAll(ctx context.Context, sql string, arguments ...any) ([]db.Row, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.Row), args.Error(1)
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (string, error) {
	args := m.Called(ctx, sql, arguments)
	return args.String(0), args.Error(1)
}

func (m *mockDB) ExecReturning(ctx context.Context, sql string, arguments ...any) (db.Row, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.Row), args.Error(1)
}

// bindArgs pulls the positional SQL arguments out of a recorded call.
func bindArgs(m *mockDB, call int) []any {
	return m.Calls[call].Arguments.Get(2).([]any)
}
