package model

// Item status constants.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)
