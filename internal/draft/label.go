package draft

import "strings"

// Layout selects the label budget for list rendering.
type Layout string

const (
	LayoutWide   Layout = "wide"
	LayoutNarrow Layout = "narrow"
)

// Default label budgets, in characters.
const (
	DefaultWideBudget   = 20
	DefaultNarrowBudget = 12
)

// DefaultBudget is the label budget for l when none is configured.
func (l Layout) DefaultBudget() int {
	if l == LayoutNarrow {
		return DefaultNarrowBudget
	}
	return DefaultWideBudget
}

const (
	ellipsis  = "…"
	pinMarker = "📌 "
)

// Label derives the single-line list label for d: the first line,
// truncated to budget characters (code points) with an ellipsis, prefixed with a pin
// marker when pinned. A budget <= 0 disables truncation.
func Label(d *Draft, budget int) string {
	first, _, _ := strings.Cut(d.Content, "\n")
	first = strings.TrimSuffix(first, "\r")

	if budget > 0 {
		runes := []rune(first)
		if len(runes) > budget {
			first = string(runes[:budget]) + ellipsis
		}
	}

	if d.Pinned {
		return pinMarker + first
	}
	return first
}
