package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edvin/unwind/internal/db"
	"github.com/edvin/unwind/internal/model"
)

var (
	// ErrInvalidPriority rejects priorities outside high/medium/low.
	ErrInvalidPriority = errors.New("priority must be one of: high, medium, low")
	// ErrEmptyNote rejects notes with no content.
	ErrEmptyNote = errors.New("note cannot be empty")
)

// ItemStore runs the item list, search and mutation queries.
type ItemStore struct {
	db DB
}

func NewItemStore(db DB) *ItemStore {
	return &ItemStore{db: db}
}

// Today returns the user's items due today, highest priority score first.
func (s *ItemStore) Today(ctx context.Context, user uuid.UUID) ([]db.Row, error) {
	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT id, title, category, due_date, due_time, priority, final_priority_score, tags, status
		 FROM user_today_view
		 WHERE user_id = $1
		 ORDER BY final_priority_score DESC
		 LIMIT 50`, user)
	if err != nil {
		return nil, fmt.Errorf("fetch today items: %w", err)
	}
	return normalizeRows(rows), nil
}

// Week returns the user's items due within the next seven days.
func (s *ItemStore) Week(ctx context.Context, user uuid.UUID) ([]db.Row, error) {
	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT id, title, category, due_date, priority, tags, status
		 FROM user_this_week_view
		 WHERE user_id = $1
		 ORDER BY due_date ASC, priority DESC
		 LIMIT 100`, user)
	if err != nil {
		return nil, fmt.Errorf("fetch week items: %w", err)
	}
	return normalizeRows(rows), nil
}

// ByCategory returns the user's pending items in the named category.
func (s *ItemStore) ByCategory(ctx context.Context, user uuid.UUID, category string) ([]db.Row, error) {
	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT i.id, i.title, i.description, c.name AS category, i.due_date, i.due_time,
		        i.priority, i.final_priority_score,
		        ARRAY_AGG(it.tag) FILTER (WHERE it.tag IS NOT NULL) AS tags,
		        i.status, i.created_at
		 FROM items i
		 JOIN categories c ON i.category_id = c.id
		 LEFT JOIN item_tags it ON i.id = it.item_id
		 WHERE i.user_id = $1
		   AND c.name = $2
		   AND i.status = 'pending'
		 GROUP BY i.id, c.name
		 ORDER BY i.final_priority_score DESC
		 LIMIT 100`, user, category)
	if err != nil {
		return nil, fmt.Errorf("fetch items by category: %w", err)
	}
	return normalizeRows(rows), nil
}

// ByTags returns the user's pending items carrying any of the given tags.
// An empty tag list matches nothing and skips the round trip.
func (s *ItemStore) ByTags(ctx context.Context, user uuid.UUID, tags []string) ([]db.Row, error) {
	if len(tags) == 0 {
		return []db.Row{}, nil
	}

	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT DISTINCT i.id, i.title, i.description, c.name AS category, i.due_date,
		        i.priority, i.final_priority_score,
		        ARRAY_AGG(it.tag) FILTER (WHERE it.tag IS NOT NULL) AS tags,
		        i.status
		 FROM items i
		 JOIN categories c ON i.category_id = c.id
		 LEFT JOIN item_tags it ON i.id = it.item_id
		 WHERE i.user_id = $1
		   AND i.id IN (
		       SELECT DISTINCT item_id
		       FROM item_tags
		       WHERE tag = ANY($2::text[])
		   )
		   AND i.status = 'pending'
		 GROUP BY i.id, c.name
		 ORDER BY i.final_priority_score DESC
		 LIMIT 100`, user, tags)
	if err != nil {
		return nil, fmt.Errorf("fetch items by tags: %w", err)
	}
	return normalizeRows(rows), nil
}

// Search finds the user's pending items whose title or description contains
// the query, case-insensitively, with title matches ranked first. A blank
// query matches nothing and skips the round trip.
func (s *ItemStore) Search(ctx context.Context, user uuid.UUID, query string) ([]db.Row, error) {
	if strings.TrimSpace(query) == "" {
		return []db.Row{}, nil
	}

	pattern := "%" + query + "%"
	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT i.id, i.title, i.description, c.name AS category, i.due_date,
		        i.priority, i.final_priority_score,
		        ARRAY_AGG(it.tag) FILTER (WHERE it.tag IS NOT NULL) AS tags,
		        i.status
		 FROM items i
		 JOIN categories c ON i.category_id = c.id
		 LEFT JOIN item_tags it ON i.id = it.item_id
		 WHERE i.user_id = $1
		   AND i.status = 'pending'
		   AND (i.title ILIKE $2 OR i.description ILIKE $2)
		 GROUP BY i.id, c.name
		 ORDER BY CASE WHEN i.title ILIKE $2 THEN 1 ELSE 2 END,
		          i.final_priority_score DESC
		 LIMIT 50`, user, pattern)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return normalizeRows(rows), nil
}

// Worries returns the user's worries vault, newest first.
func (s *ItemStore) Worries(ctx context.Context, user uuid.UUID) ([]db.Row, error) {
	rows, err := s.db.FetchAll(tagged(ctx, user),
		`SELECT id, title, is_worry_spiral, spiral_breakdown, priority, tags, created_at
		 FROM user_worries_vault_view
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 100`, user)
	if err != nil {
		return nil, fmt.Errorf("fetch worries: %w", err)
	}
	return normalizeRows(rows), nil
}

// Details returns the full record for one of the user's items, or nil when
// no such item exists for this user.
func (s *ItemStore) Details(ctx context.Context, user, item uuid.UUID) (db.Row, error) {
	row, err := s.db.FetchOne(tagged(ctx, user),
		`SELECT i.id, i.title, i.description, c.name AS category, i.due_date, i.due_time,
		        i.is_all_day, i.deadline_confidence, i.priority, i.urgency_score,
		        i.importance_score, i.emotional_weight_score, i.final_priority_score,
		        i.item_type, i.status, i.completed_at, i.is_worry_spiral, i.spiral_breakdown,
		        i.worry_acknowledgment_text, i.user_notes, i.custom_tags,
		        ARRAY_AGG(it.tag) FILTER (WHERE it.tag IS NOT NULL) AS all_tags,
		        i.blocked_by_item_id, i.parent_task_id, i.created_at, i.updated_at
		 FROM items i
		 JOIN categories c ON i.category_id = c.id
		 LEFT JOIN item_tags it ON i.id = it.item_id
		 WHERE i.id = $1
		   AND i.user_id = $2
		 GROUP BY i.id, c.name`, item, user)
	if err != nil {
		return nil, fmt.Errorf("fetch item details: %w", err)
	}
	return normalizeRow(row), nil
}

// Complete marks a pending item completed. A nil result means the item does
// not exist for this user or was already completed; the row is untouched.
func (s *ItemStore) Complete(ctx context.Context, user, item uuid.UUID) (*model.CompletedItem, error) {
	row, err := s.db.ExecReturning(tagged(ctx, user),
		`UPDATE items
		 SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1
		   AND user_id = $2
		   AND status = 'pending'
		 RETURNING id, title`, item, user)
	if err != nil {
		return nil, fmt.Errorf("complete item: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	return &model.CompletedItem{
		ID:    rowString(row, "id"),
		Title: rowString(row, "title"),
	}, nil
}

// SetPriority changes an item's priority level. A nil result means no such
// item exists for this user.
func (s *ItemStore) SetPriority(ctx context.Context, user, item uuid.UUID, priority string) (*model.PriorityUpdate, error) {
	if !model.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	row, err := s.db.ExecReturning(tagged(ctx, user),
		`UPDATE items
		 SET priority = $3, user_edited = true, updated_at = NOW()
		 WHERE id = $1
		   AND user_id = $2
		 RETURNING id, title, priority`, item, user, priority)
	if err != nil {
		return nil, fmt.Errorf("update item priority: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	return &model.PriorityUpdate{
		ID:       rowString(row, "id"),
		Title:    rowString(row, "title"),
		Priority: rowString(row, "priority"),
	}, nil
}

// AddNote appends a timestamped note to an item's accumulated notes. A nil
// result means no such item exists for this user.
func (s *ItemStore) AddNote(ctx context.Context, user, item uuid.UUID, note string) (*model.NoteUpdate, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrEmptyNote
	}

	stamped := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04"), note)
	row, err := s.db.ExecReturning(tagged(ctx, user),
		`UPDATE items
		 SET user_notes = CASE
		         WHEN user_notes IS NULL OR user_notes = '' THEN $3
		         ELSE user_notes || E'\n' || $3
		     END,
		     user_edited = true,
		     updated_at = NOW()
		 WHERE id = $1
		   AND user_id = $2
		 RETURNING id, title, user_notes`, item, user, stamped)
	if err != nil {
		return nil, fmt.Errorf("add note to item: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	return &model.NoteUpdate{
		ID:    rowString(row, "id"),
		Title: rowString(row, "title"),
		Notes: rowString(row, "user_notes"),
	}, nil
}
