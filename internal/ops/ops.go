// Package ops implements the draft lifecycle: saving, editing, pinning,
// deleting, listing, copying, and moving drafts in and out of JSONL files.
// Presentation layers (CLI, MCP, web) call these operations and render the
// returned values; they hold no rules of their own.
package ops

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hpungsan/draftpad/internal/config"
	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Store is the persistence contract the lifecycle needs.
// Get returns (nil, nil) for a missing id; Delete of a missing id succeeds.
type Store interface {
	Create(ctx context.Context, d *draft.Draft) (int64, error)
	Get(ctx context.Context, id int64) (*draft.Draft, error)
	Put(ctx context.Context, d *draft.Draft) error
	Delete(ctx context.Context, id int64) error
	GetAll(ctx context.Context) ([]*draft.Draft, error)
	Count(ctx context.Context) (int, error)
}

// Controller runs draft operations against a Store.
type Controller struct {
	store   Store
	cfg     *config.Config
	now     func() time.Time
	baseDir string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithBaseDir sets the data directory (default ~/.draftpad). Default export
// files are written to its exports subdirectory.
func WithBaseDir(dir string) Option {
	return func(c *Controller) { c.baseDir = dir }
}

// New creates a Controller. A nil cfg uses config.DefaultConfig().
func New(store Store, cfg *config.Config, opts ...Option) *Controller {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &Controller{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseDir == "" {
		c.baseDir, _ = DefaultBaseDir()
	}
	return c
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() *config.Config {
	return c.cfg
}

// timestamp returns the current time in draft.TimeLayout.
func (c *Controller) timestamp() string {
	return draft.FormatTime(c.now())
}

// overSoftLimit reports whether content is longer than the warning threshold.
func (c *Controller) overSoftLimit(content string) bool {
	return c.cfg.SoftLimitChars > 0 && draft.CountChars(content) > c.cfg.SoftLimitChars
}

// maxDrafts returns the configured ceiling, falling back to the default.
func (c *Controller) maxDrafts() int {
	if c.cfg.MaxDrafts > 0 {
		return c.cfg.MaxDrafts
	}
	return config.DefaultConfig().MaxDrafts
}

// Session is the editor state: which draft is open and what was last saved
// for it. EditingID and LastSaved are set and cleared together. A zero
// Session means "new draft".
type Session struct {
	EditingID *int64  `json:"editing_id,omitempty"`
	LastSaved *string `json:"last_saved,omitempty"`
}

// Editing reports whether an existing draft is open.
func (s Session) Editing() bool {
	return s.EditingID != nil
}

// editing returns a Session pointing at id with content as the last save.
func editing(id int64, content string) Session {
	return Session{EditingID: &id, LastSaved: &content}
}

// Reset clears the editor state for a new draft. Storage is not touched.
func Reset(Session) Session {
	return Session{}
}

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// storeErr tags errors from Store implementations that are not DraftErrors.
func storeErr(err error) error {
	if _, ok := err.(*errors.DraftError); ok {
		return err
	}
	return errors.NewStorage(err)
}

// DefaultBaseDir returns ~/.draftpad.
func DefaultBaseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".draftpad"), nil
}
