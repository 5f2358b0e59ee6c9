package ops

import "context"

// TogglePinOutput contains the result of the TogglePin operation.
type TogglePinOutput struct {
	Toggled  bool    `json:"toggled"`
	ID       int64   `json:"id"`
	Pinned   bool    `json:"pinned"`
	PinnedAt *string `json:"pinned_at"`
}

// TogglePin flips the pin state of draft id. The draft is re-read from the
// store first so a stale copy held by the caller cannot be written back.
// A missing draft is a no-op (Toggled=false).
func (c *Controller) TogglePin(ctx context.Context, id int64) (*TogglePinOutput, error) {
	d, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if d == nil {
		return &TogglePinOutput{ID: id}, nil
	}

	now := c.timestamp()
	d.Pinned = !d.Pinned
	if d.Pinned {
		d.PinnedAt = &now
	} else {
		d.PinnedAt = nil
	}
	if d.UpdatedAt == "" {
		d.UpdatedAt = now
	}

	if err := c.store.Put(ctx, d); err != nil {
		return nil, storeErr(err)
	}

	return &TogglePinOutput{
		Toggled:  true,
		ID:       d.ID,
		Pinned:   d.Pinned,
		PinnedAt: d.PinnedAt,
	}, nil
}
