package ops

import (
	"context"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
)

// FetchOutput is a draft plus derived display fields.
type FetchOutput struct {
	draft.Draft
	Chars         int  `json:"chars"`
	OverSoftLimit bool `json:"over_soft_limit"`
}

// Fetch retrieves a single draft by id.
func (c *Controller) Fetch(ctx context.Context, id int64) (*FetchOutput, error) {
	d, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if d == nil {
		return nil, errors.NewNotFound(id)
	}
	return c.fetchOutput(d), nil
}

func (c *Controller) fetchOutput(d *draft.Draft) *FetchOutput {
	return &FetchOutput{
		Draft:         *d.Clone(),
		Chars:         draft.CountChars(d.Content),
		OverSoftLimit: c.overSoftLimit(d.Content),
	}
}
