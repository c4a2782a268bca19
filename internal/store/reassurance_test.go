package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unwind/internal/db"
)

func TestReassuranceStore_Spirals(t *testing.T) {
	m := &mockDB{}
	m.On("FetchAll", mock.Anything, mock.Anything, mock.Anything).
		Return([]db.Row{{"id": testItem.String(), "title": "what if the email was wrong"}}, nil)

	s := NewReassuranceStore(m)
	rows, err := s.Spirals(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	args := bindArgs(m, 0)
	require.Len(t, args, 1)
	assert.Equal(t, testUser, args[0])

	sql := m.Calls[0].Arguments.String(1)
	assert.Contains(t, sql, "is_worry_spiral = true")
}

func TestReassuranceStore_RecentCompletions_Limit(t *testing.T) {
	m := &mockDB{}
	m.On("FetchAll", mock.Anything, mock.Anything, mock.Anything).Return([]db.Row{}, nil)

	s := NewReassuranceStore(m)

	_, err := s.RecentCompletions(context.Background(), testUser, 0)
	require.NoError(t, err)
	args := bindArgs(m, 0)
	require.Len(t, args, 2)
	assert.Equal(t, defaultCompletionsLimit, args[1])

	_, err = s.RecentCompletions(context.Background(), testUser, 12)
	require.NoError(t, err)
	args = bindArgs(m, 1)
	assert.Equal(t, 12, args[1])
}

func TestReassuranceStore_EmptyResults(t *testing.T) {
	m := &mockDB{}
	m.On("FetchAll", mock.Anything, mock.Anything, mock.Anything).Return([]db.Row{}, nil)

	s := NewReassuranceStore(m)
	rows, err := s.Spirals(context.Background(), testUser)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
