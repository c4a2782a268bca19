package model

// Item priority levels.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ValidPriority reports whether p is one of the accepted priority levels.
func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// CompletedItem is the result of marking an item complete.
type CompletedItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PriorityUpdate is the result of changing an item's priority.
type PriorityUpdate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

// NoteUpdate is the result of appending a note to an item. Notes holds the
// full accumulated notes text after the append.
type NoteUpdate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Notes string `json:"notes"`
}
