package ops

import (
	"context"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
)

// CopyInput selects the text to normalize: a stored draft or raw editor text.
type CopyInput struct {
	ID   *int64
	Text *string
}

// CopyOutput contains the clipboard-ready text.
type CopyOutput struct {
	Text  string `json:"text"`
	Chars int    `json:"chars"`
}

// Copy returns the normalized form of a draft or of raw text. Stored content
// is never modified.
func (c *Controller) Copy(ctx context.Context, input CopyInput) (*CopyOutput, error) {
	if (input.ID == nil) == (input.Text == nil) {
		return nil, errors.NewInvalidRequest("specify exactly one of id or text")
	}

	raw := ""
	if input.Text != nil {
		raw = *input.Text
	} else {
		d, err := c.store.Get(ctx, *input.ID)
		if err != nil {
			return nil, storeErr(err)
		}
		if d == nil {
			return nil, errors.NewNotFound(*input.ID)
		}
		raw = d.Content
	}

	text := draft.Normalize(raw)
	return &CopyOutput{
		Text:  text,
		Chars: draft.CountChars(text),
	}, nil
}
