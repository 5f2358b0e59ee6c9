package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hpungsan/draftpad/internal/config"
	"github.com/hpungsan/draftpad/internal/errors"
)

func TestSave_CreatesDraft(t *testing.T) {
	c, store := newTestController(t, nil)
	ctx := context.Background()

	sess, out, err := c.Save(ctx, Session{}, "hello")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out.Status != SaveCreated {
		t.Errorf("Status = %q, want %q", out.Status, SaveCreated)
	}
	if out.Chars != 5 {
		t.Errorf("Chars = %d, want 5", out.Chars)
	}
	if sess.EditingID == nil || *sess.EditingID != out.ID {
		t.Errorf("EditingID = %v, want %d", sess.EditingID, out.ID)
	}
	if sess.LastSaved == nil || *sess.LastSaved != "hello" {
		t.Errorf("LastSaved = %v, want hello", sess.LastSaved)
	}

	d, err := store.Get(ctx, out.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if d.Content != "hello" || d.Pinned || d.PinnedAt != nil {
		t.Errorf("stored = %+v, want unpinned hello", d)
	}
	if d.CreatedAt != d.UpdatedAt {
		t.Errorf("CreatedAt %q != UpdatedAt %q for a new draft", d.CreatedAt, d.UpdatedAt)
	}
}

func TestSave_EmptyContent(t *testing.T) {
	c, store := newTestController(t, nil)
	ctx := context.Background()

	sess, out, err := c.Save(ctx, Session{}, "")
	if !errors.Is(err, errors.ErrEmptyContent) {
		t.Fatalf("err = %v, want EMPTY_CONTENT", err)
	}
	if out != nil || sess.Editing() {
		t.Errorf("out = %v, sess = %+v, want nil and unchanged", out, sess)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestSave_WhitespaceOnlyIsNotEmpty(t *testing.T) {
	c, _ := newTestController(t, nil)

	_, out, err := c.Save(context.Background(), Session{}, "   ")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out.Status != SaveCreated {
		t.Errorf("Status = %q, want created", out.Status)
	}
}

func TestSave_UpdatesOpenDraft(t *testing.T) {
	c, store := newTestController(t, nil)
	ctx := context.Background()

	sess, first, err := c.Save(ctx, Session{}, "v1")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	sess, second, err := c.Save(ctx, sess, "v2")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if second.Status != SaveUpdated || second.ID != first.ID {
		t.Errorf("second = %+v, want updated id %d", second, first.ID)
	}
	if *sess.LastSaved != "v2" {
		t.Errorf("LastSaved = %q, want v2", *sess.LastSaved)
	}

	d, _ := store.Get(ctx, first.ID)
	if d.Content != "v2" {
		t.Errorf("Content = %q, want v2", d.Content)
	}
	if d.UpdatedAt <= d.CreatedAt {
		t.Errorf("UpdatedAt %q not after CreatedAt %q", d.UpdatedAt, d.CreatedAt)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestSave_DuplicateGuard(t *testing.T) {
	c, store := newTestController(t, nil)
	ctx := context.Background()

	sess, first, err := c.Save(ctx, Session{}, "same")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	before, _ := store.Get(ctx, first.ID)

	sess, out, err := c.Save(ctx, sess, "same")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out.Status != SaveUnchanged {
		t.Errorf("Status = %q, want unchanged", out.Status)
	}
	if *sess.EditingID != first.ID {
		t.Errorf("EditingID = %d, want %d", *sess.EditingID, first.ID)
	}

	after, _ := store.Get(ctx, first.ID)
	if after.UpdatedAt != before.UpdatedAt {
		t.Errorf("UpdatedAt changed from %q to %q", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestSave_DuplicateGuardIsStrict(t *testing.T) {
	c, _ := newTestController(t, nil)
	ctx := context.Background()

	sess, _, _ := c.Save(ctx, Session{}, "text")
	_, out, err := c.Save(ctx, sess, "text ")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out.Status != SaveUpdated {
		t.Errorf("Status = %q, want updated (trailing space differs)", out.Status)
	}
}

func TestSave_AfterResetCreatesNew(t *testing.T) {
	c, store := newTestController(t, nil)
	ctx := context.Background()

	sess, first, _ := c.Save(ctx, Session{}, "same")
	_, second, err := c.Save(ctx, Reset(sess), "same")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if second.Status != SaveCreated || second.ID == first.ID {
		t.Errorf("second = %+v, want a new draft", second)
	}
	if n, _ := store.Count(ctx); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestSave_OpenDraftDeletedIsDropped(t *testing.T) {
	c, store := newTestController(t, nil)
	ctx := context.Background()

	sess, first, _ := c.Save(ctx, Session{}, "v1")
	if _, err := c.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	sess, out, err := c.Save(ctx, sess, "v2")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out.Status != SaveDropped {
		t.Errorf("Status = %q, want dropped", out.Status)
	}
	if sess.Editing() {
		t.Error("session still editing after drop")
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count = %d, want 0 (deleted draft not resurrected)", n)
	}

	_, again, err := c.Save(ctx, sess, "v2")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if again.Status != SaveCreated || again.ID == first.ID {
		t.Errorf("again = %+v, want new draft with a fresh id", again)
	}
}

func TestSave_Capacity(t *testing.T) {
	c, store := newTestController(t, nil)
	ctx := context.Background()

	var lastID int64
	for i := range 100 {
		_, out, err := c.Save(ctx, Session{}, fmt.Sprintf("draft %d", i))
		if err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
		lastID = out.ID
	}

	_, _, err := c.Save(ctx, Session{}, "one too many")
	if !errors.Is(err, errors.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want CAPACITY_EXCEEDED", err)
	}
	var dErr *errors.DraftError
	if stderrors.As(err, &dErr) && dErr.Details["max_drafts"] != 100 {
		t.Errorf("max_drafts = %v, want 100", dErr.Details["max_drafts"])
	}
	if n, _ := store.Count(ctx); n != 100 {
		t.Errorf("Count = %d, want 100", n)
	}

	if _, err := c.Delete(ctx, lastID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, _, err := c.Save(ctx, Session{}, "one too many"); err != nil {
		t.Errorf("Save after delete failed: %v", err)
	}
}

func TestSave_CapacityDoesNotBlockEdits(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxDrafts = 1
	c, _ := newTestController(t, cfg)
	ctx := context.Background()

	sess, _, err := c.Save(ctx, Session{}, "only")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, out, err := c.Save(ctx, sess, "only, edited"); err != nil || out.Status != SaveUpdated {
		t.Errorf("edit at capacity: out = %+v, err = %v", out, err)
	}
}

func TestSave_SoftLimit(t *testing.T) {
	c, _ := newTestController(t, nil)
	ctx := context.Background()

	_, out, _ := c.Save(ctx, Session{}, strings.Repeat("a", 140))
	if out.OverSoftLimit {
		t.Error("140 chars flagged over soft limit")
	}
	_, out, _ = c.Save(ctx, Session{}, strings.Repeat("あ", 141))
	if !out.OverSoftLimit || out.Chars != 141 {
		t.Errorf("out = %+v, want 141 chars over soft limit", out)
	}
}

func TestSave_PreservesPinOnEdit(t *testing.T) {
	c, store := newTestController(t, nil)
	ctx := context.Background()

	sess, first, _ := c.Save(ctx, Session{}, "v1")
	pin, err := c.TogglePin(ctx, first.ID)
	if err != nil {
		t.Fatalf("TogglePin failed: %v", err)
	}

	if _, _, err := c.Save(ctx, sess, "v2"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	d, _ := store.Get(ctx, first.ID)
	if !d.Pinned || d.PinnedAt == nil || *d.PinnedAt != *pin.PinnedAt {
		t.Errorf("pin lost on edit: %+v", d)
	}
}

func TestSave_StorageFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeStore)
		sess  func(*Controller) Session
		want  errors.ErrorCode
	}{
		{
			name:  "quota on create",
			setup: func(f *fakeStore) { f.createErr = errors.NewQuotaExceeded(stderrors.New("full")) },
			want:  errors.ErrQuotaExceeded,
		},
		{
			name:  "backend on create",
			setup: func(f *fakeStore) { f.createErr = stderrors.New("io error") },
			want:  errors.ErrStorage,
		},
		{
			name:  "backend on count",
			setup: func(f *fakeStore) { f.countErr = stderrors.New("io error") },
			want:  errors.ErrStorage,
		},
		{
			name:  "quota on put",
			setup: func(f *fakeStore) { f.putErr = errors.NewQuotaExceeded(stderrors.New("full")) },
			sess: func(c *Controller) Session {
				sess, _, _ := c.Save(context.Background(), Session{}, "v1")
				return sess
			},
			want: errors.ErrQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			c := New(store, nil, WithClock(stepClock()))
			var sess Session
			if tt.sess != nil {
				sess = tt.sess(c)
			}
			tt.setup(store)

			got, out, err := c.Save(context.Background(), sess, "v2")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %s", err, tt.want)
			}
			if !errors.IsStorageFailure(err) {
				t.Error("IsStorageFailure = false")
			}
			if out != nil {
				t.Errorf("out = %+v, want nil", out)
			}
			// Session is untouched so the user can retry.
			if (got.EditingID == nil) != (sess.EditingID == nil) {
				t.Errorf("session changed on failure: %+v -> %+v", sess, got)
			}
		})
	}
}
