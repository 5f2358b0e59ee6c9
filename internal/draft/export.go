package draft

// ExportRecord is one line of a JSONL export file. The first line of a file
// is a header with DraftpadExport set; every other line is a draft.
type ExportRecord struct {
	// Header detection field - true only for header line
	DraftpadExport bool   `json:"_draftpad_export,omitempty"`
	SchemaVersion  string `json:"schema_version,omitempty"`
	ExportedAt     string `json:"exported_at,omitempty"`

	ID        int64   `json:"id,omitempty"`
	Content   string  `json:"content,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
	Pinned    bool    `json:"pinned,omitempty"`
	PinnedAt  *string `json:"pinned_at,omitempty"`
}

// ToExportRecord converts a Draft for export.
func ToExportRecord(d *Draft) *ExportRecord {
	return &ExportRecord{
		ID:        d.ID,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Pinned:    d.Pinned,
		PinnedAt:  d.PinnedAt,
	}
}

// ToDraft converts an imported record into a new Draft. The id is dropped
// (the store assigns a fresh one). Missing timestamps are filled from the
// other timestamp, then from now, before pin state is made consistent, so a
// pinned draft always carries a PinnedAt.
func (r *ExportRecord) ToDraft(now string) *Draft {
	d := &Draft{
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Pinned:    r.Pinned,
	}
	if d.CreatedAt == "" {
		d.CreatedAt = d.UpdatedAt
	}
	if d.CreatedAt == "" {
		d.CreatedAt = now
	}
	if d.UpdatedAt == "" {
		d.UpdatedAt = d.CreatedAt
	}
	if d.Pinned {
		at := d.UpdatedAt
		if r.PinnedAt != nil && *r.PinnedAt != "" {
			at = *r.PinnedAt
		}
		d.PinnedAt = &at
	}
	return d
}
