package ops

import (
	"context"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
)

// SaveStatus describes what a Save did.
type SaveStatus string

const (
	SaveCreated   SaveStatus = "created"   // new draft stored
	SaveUpdated   SaveStatus = "updated"   // open draft overwritten
	SaveUnchanged SaveStatus = "unchanged" // identical to last save, nothing written
	SaveDropped   SaveStatus = "dropped"   // open draft was deleted elsewhere, nothing written
)

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	Status        SaveStatus `json:"status"`
	ID            int64      `json:"id,omitempty"`
	UpdatedAt     string     `json:"updated_at,omitempty"`
	Chars         int        `json:"chars"`
	OverSoftLimit bool       `json:"over_soft_limit"`
}

// Save stores text for the session. With no draft open it creates one
// (subject to the draft ceiling); with a draft open it overwrites that
// draft's content. Re-saving the exact text last saved is a silent no-op.
// On error the returned Session equals sess.
func (c *Controller) Save(ctx context.Context, sess Session, text string) (Session, *SaveOutput, error) {
	if text == "" {
		return sess, nil, errors.NewEmptyContent()
	}

	out := &SaveOutput{
		Chars:         draft.CountChars(text),
		OverSoftLimit: c.overSoftLimit(text),
	}

	// Strict comparison: no normalization
	if sess.LastSaved != nil && text == *sess.LastSaved {
		out.Status = SaveUnchanged
		if sess.EditingID != nil {
			out.ID = *sess.EditingID
		}
		return sess, out, nil
	}

	if sess.Editing() {
		return c.saveExisting(ctx, sess, text, out)
	}
	return c.saveNew(ctx, sess, text, out)
}

func (c *Controller) saveExisting(ctx context.Context, sess Session, text string, out *SaveOutput) (Session, *SaveOutput, error) {
	id := *sess.EditingID

	existing, err := c.store.Get(ctx, id)
	if err != nil {
		return sess, nil, storeErr(err)
	}
	if existing == nil {
		// Deleted while open: drop the edit and start over as a new draft.
		out.Status = SaveDropped
		out.ID = id
		return Reset(sess), out, nil
	}

	existing.Content = text
	existing.UpdatedAt = c.timestamp()
	if err := c.store.Put(ctx, existing); err != nil {
		return sess, nil, storeErr(err)
	}

	out.Status = SaveUpdated
	out.ID = id
	out.UpdatedAt = existing.UpdatedAt
	return editing(id, text), out, nil
}

func (c *Controller) saveNew(ctx context.Context, sess Session, text string, out *SaveOutput) (Session, *SaveOutput, error) {
	total, err := c.store.Count(ctx)
	if err != nil {
		return sess, nil, storeErr(err)
	}
	if total >= c.maxDrafts() {
		return sess, nil, errors.NewCapacityExceeded(c.maxDrafts())
	}

	now := c.timestamp()
	d := &draft.Draft{
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := c.store.Create(ctx, d)
	if err != nil {
		return sess, nil, storeErr(err)
	}

	out.Status = SaveCreated
	out.ID = id
	out.UpdatedAt = now
	return editing(id, text), out, nil
}
