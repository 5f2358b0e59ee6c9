package ops

import (
	"context"

	"github.com/hpungsan/draftpad/internal/draft"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Query  string       // substring filter, empty = all
	Layout draft.Layout // label budget, default wide
	Limit  int          // default: 100, max: 500
	Offset int          // default: 0
}

// SummaryItem is one row of the draft list.
type SummaryItem struct {
	ID            int64   `json:"id"`
	Label         string  `json:"label"`
	Pinned        bool    `json:"pinned"`
	PinnedAt      *string `json:"pinned_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	Chars         int     `json:"chars"`
	OverSoftLimit bool    `json:"over_soft_limit"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []SummaryItem `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
	Query      string        `json:"query,omitempty"`
	Stored     int           `json:"stored"`
	MaxDrafts  int           `json:"max_drafts"`
}

// List returns the ordered, filtered draft list.
func (c *Controller) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	view := draft.View(all, input.Query)
	total := len(view)

	budget := c.labelBudget(input.Layout)
	items := []SummaryItem{}
	for i := offset; i < total && len(items) < limit; i++ {
		d := view[i]
		items = append(items, SummaryItem{
			ID:            d.ID,
			Label:         draft.Label(d, budget),
			Pinned:        d.Pinned,
			PinnedAt:      d.PinnedAt,
			CreatedAt:     d.CreatedAt,
			UpdatedAt:     d.UpdatedAt,
			Chars:         draft.CountChars(d.Content),
			OverSoftLimit: c.overSoftLimit(d.Content),
		})
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort:      "pinned_first_recent",
		Query:     input.Query,
		Stored:    len(all),
		MaxDrafts: c.maxDrafts(),
	}, nil
}

// labelBudget returns the configured label width for layout.
func (c *Controller) labelBudget(layout draft.Layout) int {
	budget := c.cfg.LabelWide
	if layout == draft.LayoutNarrow {
		budget = c.cfg.LabelNarrow
	}
	if budget > 0 {
		return budget
	}
	return layout.DefaultBudget()
}
