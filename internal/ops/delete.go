package ops

import "context"

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	// Deleted is false when the draft did not exist
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

// Delete removes draft id. Confirming with the user is the caller's job.
// Deleting a missing draft succeeds with Deleted=false.
func (c *Controller) Delete(ctx context.Context, id int64) (*DeleteOutput, error) {
	existing, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return nil, storeErr(err)
	}

	return &DeleteOutput{
		Deleted: existing != nil,
		ID:      id,
	}, nil
}
