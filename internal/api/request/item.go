package request

import (
	"net/url"
	"strconv"
	"strings"
)

// SetPriority changes an item's priority level.
type SetPriority struct {
	Priority string `json:"priority" validate:"required,oneof=high medium low"`
}

// AddNote appends a note to an item.
type AddNote struct {
	Note string `json:"note" validate:"required"`
}

// Tags splits a comma-separated tags query parameter, dropping blanks.
func Tags(q url.Values) []string {
	var tags []string
	for _, part := range strings.Split(q.Get("tags"), ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// IntParam parses an optional integer query parameter, falling back to
// fallback when absent or unparseable. Range policy stays with the store.
func IntParam(q url.Values, key string, fallback int) int {
	v := q.Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
