// Package draft defines the draft record and the pure functions that operate
// on it: copy-time normalization, list ordering, search matching, and labels.
package draft

import (
	"time"
	"unicode/utf8"
)

// TimeLayout is the ISO-8601 layout used for every stored timestamp.
// Fixed millisecond precision keeps lexicographic order equal to
// chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Draft is a single user-authored text note.
type Draft struct {
	// ID is assigned by the store on creation and never reused
	ID int64 `json:"id"`

	// Content is the raw draft body; it is never normalized at rest
	Content string `json:"content"`

	// CreatedAt is set once at creation
	CreatedAt string `json:"created_at"`

	// UpdatedAt is set at creation and on every content edit
	UpdatedAt string `json:"updated_at"`

	Pinned bool `json:"pinned"`

	// PinnedAt is non-nil iff Pinned is true
	PinnedAt *string `json:"pinned_at"`
}

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// Clone returns a deep copy of d.
func (d *Draft) Clone() *Draft {
	c := *d
	if d.PinnedAt != nil {
		p := *d.PinnedAt
		c.PinnedAt = &p
	}
	return &c
}
