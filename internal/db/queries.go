package db

import (
	"context"
	"database/sql"
	stderrors "errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
)

const draftColumns = `id, content, created_at, updated_at, pinned, pinned_at`

// Store persists drafts in SQLite. Every method is a single statement and
// either fully succeeds or fails; failures are DraftErrors tagged
// QUOTA_EXCEEDED or STORAGE_FAILURE.
type Store struct {
	db *sql.DB
}

// NewStore wraps an initialized database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts d and returns its newly assigned id. d.ID is set as well.
func (s *Store) Create(ctx context.Context, d *draft.Draft) (int64, error) {
	query := `
		INSERT INTO drafts (content, created_at, updated_at, pinned, pinned_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		d.Content, d.CreatedAt, d.UpdatedAt, d.Pinned, toNullString(d.PinnedAt),
	)
	if err != nil {
		return 0, storageError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageError(err)
	}
	d.ID = id

	return id, nil
}

// Get returns the draft with id, or (nil, nil) when it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*draft.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = ?`

	d, err := scanDraft(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err)
	}

	return d, nil
}

// Put writes every field of d, inserting the row if d.ID is not present.
func (s *Store) Put(ctx context.Context, d *draft.Draft) error {
	query := `
		INSERT INTO drafts (id, content, created_at, updated_at, pinned, pinned_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			pinned = excluded.pinned,
			pinned_at = excluded.pinned_at
	`

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Content, d.CreatedAt, d.UpdatedAt, d.Pinned, toNullString(d.PinnedAt),
	)
	if err != nil {
		return storageError(err)
	}

	return nil
}

// Delete removes the draft with id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id); err != nil {
		return storageError(err)
	}
	return nil
}

// GetAll returns every draft. Callers must not rely on the order.
func (s *Store) GetAll(ctx context.Context) ([]*draft.Draft, error) {
	return s.queryDrafts(ctx, `SELECT `+draftColumns+` FROM drafts`)
}

// ListByUpdated returns up to limit drafts, most recently updated first.
// limit <= 0 returns all drafts.
func (s *Store) ListByUpdated(ctx context.Context, limit int) ([]*draft.Draft, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryDrafts(ctx,
		`SELECT `+draftColumns+` FROM drafts ORDER BY updated_at DESC, id DESC LIMIT ?`, limit)
}

// Count returns the number of stored drafts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts`).Scan(&n); err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

func (s *Store) queryDrafts(ctx context.Context, query string, args ...any) ([]*draft.Draft, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	drafts := []*draft.Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, storageError(err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}

	return drafts, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDraft scans a single row into a Draft.
func scanDraft(row scanner) (*draft.Draft, error) {
	var (
		d        draft.Draft
		pinnedAt sql.NullString
	)

	if err := row.Scan(&d.ID, &d.Content, &d.CreatedAt, &d.UpdatedAt, &d.Pinned, &pinnedAt); err != nil {
		return nil, err
	}
	d.PinnedAt = fromNullString(pinnedAt)

	return &d, nil
}

// storageError classifies a backend error. SQLITE_FULL means the device
// (or the configured max_page_count) has no room left.
func storageError(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelled("storage operation")
	}
	if isFullError(err) {
		return errors.NewQuotaExceeded(err)
	}
	return errors.NewStorage(err)
}

func isFullError(err error) bool {
	var sqliteErr *sqlite.Error
	if stderrors.As(err, &sqliteErr) {
		// Extended result codes keep the primary code in the low byte
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_FULL
	}
	return false
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
