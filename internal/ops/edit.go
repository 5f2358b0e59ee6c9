package ops

import "context"

// BeginEdit opens draft id in the editor. If the draft no longer exists the
// call is a no-op: sess is returned unchanged with a nil output.
func (c *Controller) BeginEdit(ctx context.Context, sess Session, id int64) (Session, *FetchOutput, error) {
	d, err := c.store.Get(ctx, id)
	if err != nil {
		return sess, nil, storeErr(err)
	}
	if d == nil {
		return sess, nil, nil
	}

	return editing(d.ID, d.Content), c.fetchOutput(d), nil
}
