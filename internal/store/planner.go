package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/edvin/unwind/internal/db"
	"github.com/edvin/unwind/internal/model"
)

const defaultHistoryDays = 7

// PlannerStore runs the capacity and history queries behind daily planning.
type PlannerStore struct {
	db DB
}

func NewPlannerStore(db DB) *PlannerStore {
	return &PlannerStore{db: db}
}

// Stats returns the user's anxiety profile and completion counters, or nil
// when the user does not exist.
func (s *PlannerStore) Stats(ctx context.Context, user uuid.UUID) (db.Row, error) {
	row, err := s.db.FetchOne(tagged(ctx, user),
		`SELECT u.anxiety_type, u.max_reminders_per_day, u.total_items, u.total_dumps,
		        COUNT(CASE WHEN i.status = 'completed' THEN 1 END)::int AS completed_count,
		        COUNT(CASE WHEN i.status = 'pending' THEN 1 END)::int AS pending_count,
		        COUNT(CASE WHEN i.status = 'archived' THEN 1 END)::int AS archived_count,
		        ROUND(100.0 * COUNT(CASE WHEN i.status = 'completed' THEN 1 END) / NULLIF(COUNT(*), 0), 2) AS completion_rate_percent
		 FROM users u
		 LEFT JOIN items i ON u.id = i.user_id
		 WHERE u.id = $1
		 GROUP BY u.id`, user)
	if err != nil {
		return nil, fmt.Errorf("fetch user stats: %w", err)
	}
	return normalizeRow(row), nil
}

// CompletionHistory returns per-day completion stats over the last days
// days, newest first. Non-positive days falls back to a week.
func (s *PlannerStore) CompletionHistory(ctx context.Context, user uuid.UUID, days int) ([]db.Row, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}

	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT DATE(completed_at) AS date,
		        COUNT(*)::int AS completed_count,
		        ROUND(AVG(completion_time_minutes), 1) AS avg_time_minutes,
		        COUNT(CASE WHEN user_mood_after = 'better' THEN 1 END)::int AS felt_better_count,
		        COUNT(CASE WHEN user_mood_after = 'worse' THEN 1 END)::int AS felt_worse_count
		 FROM completions_log
		 WHERE user_id = $1
		   AND completed_at >= CURRENT_DATE - INTERVAL '1 day' * $2
		 GROUP BY DATE(completed_at)
		 ORDER BY date DESC`, user, days)
	if err != nil {
		return nil, fmt.Errorf("fetch completion history: %w", err)
	}
	return normalizeRows(rows), nil
}

// PendingByPriority counts the user's pending items at each priority level.
func (s *PlannerStore) PendingByPriority(ctx context.Context, user uuid.UUID) (model.PriorityCounts, error) {
	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT priority, COUNT(*)::int AS count
		 FROM items
		 WHERE user_id = $1
		   AND status = 'pending'
		 GROUP BY priority`, user)
	if err != nil {
		return model.PriorityCounts{}, fmt.Errorf("count pending items: %w", err)
	}

	var counts model.PriorityCounts
	for _, row := range rows {
		n := rowInt(row, "count")
		switch rowString(row, "priority") {
		case model.PriorityHigh:
			counts.High = n
		case model.PriorityMedium:
			counts.Medium = n
		case model.PriorityLow:
			counts.Low = n
		default:
			continue
		}
		counts.Total += n
	}
	return counts, nil
}
