package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/edvin/unwind/internal/db"
)

const defaultCompletionsLimit = 5

// ReassuranceStore surfaces worry spirals and recent wins, the evidence
// base for reassurance.
type ReassuranceStore struct {
	db DB
}

func NewReassuranceStore(db DB) *ReassuranceStore {
	return &ReassuranceStore{db: db}
}

// Spirals returns the user's pending items flagged as worry spirals with
// their breakdown analysis, newest first.
func (s *ReassuranceStore) Spirals(ctx context.Context, user uuid.UUID) ([]db.Row, error) {
	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT id, title, description, spiral_breakdown, worry_acknowledgment_text,
		        priority, created_at, updated_at
		 FROM items
		 WHERE user_id = $1
		   AND is_worry_spiral = true
		   AND status = 'pending'
		 ORDER BY created_at DESC
		 LIMIT 50`, user)
	if err != nil {
		return nil, fmt.Errorf("fetch spiral items: %w", err)
	}
	return normalizeRows(rows), nil
}

// RecentCompletions returns the user's most recently completed items with
// surrounding mood context. Non-positive limit falls back to five.
func (s *ReassuranceStore) RecentCompletions(ctx context.Context, user uuid.UUID, limit int) ([]db.Row, error) {
	if limit <= 0 {
		limit = defaultCompletionsLimit
	}

	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT i.id, i.title, i.completed_at, i.completion_time_minutes,
		        i.user_mood_after_completion AS mood_after,
		        c.name AS category,
		        cl.user_mood_before AS mood_before,
		        cl.was_procrastinated
		 FROM items i
		 JOIN categories c ON i.category_id = c.id
		 LEFT JOIN completions_log cl ON i.id = cl.item_id
		 WHERE i.user_id = $1
		   AND i.status = 'completed'
		 ORDER BY i.completed_at DESC
		 LIMIT $2`, user, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch recent completions: %w", err)
	}
	return normalizeRows(rows), nil
}
