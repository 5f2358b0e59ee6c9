package draft

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Less reports whether a sorts before b in the list view.
// Pinned drafts come first, ordered by PinnedAt (falling back to UpdatedAt);
// unpinned drafts follow, ordered by UpdatedAt. Both groups are newest first.
// Timestamps compare as strings, which is chronological for TimeLayout.
func Less(a, b *Draft) bool {
	if a.Pinned != b.Pinned {
		return a.Pinned
	}
	return sortKey(a) > sortKey(b)
}

func sortKey(d *Draft) string {
	if d.Pinned && d.PinnedAt != nil && *d.PinnedAt != "" {
		return *d.PinnedAt
	}
	return d.UpdatedAt
}

// Matches reports whether d satisfies the search query.
// An empty query matches everything. Otherwise the content, with newlines
// read as spaces, must contain the query case-insensitively.
func Matches(d *Draft, query string) bool {
	if query == "" {
		return true
	}
	hay := strings.ReplaceAll(d.Content, "\n", " ")
	return strings.Contains(folder.String(hay), folder.String(query))
}

// View returns the drafts to display for query, in display order.
// The input slice is not modified.
func View(drafts []*Draft, query string) []*Draft {
	sorted := slices.Clone(drafts)
	slices.SortStableFunc(sorted, func(a, b *Draft) int {
		switch {
		case Less(a, b):
			return -1
		case Less(b, a):
			return 1
		}
		return 0
	})

	out := make([]*Draft, 0, len(sorted))
	for _, d := range sorted {
		if Matches(d, query) {
			out = append(out, d)
		}
	}
	return out
}
