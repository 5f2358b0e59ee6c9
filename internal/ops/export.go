package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
)

// ExportSchemaVersion is written into the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path       string // optional, default: <base>/exports/drafts-<timestamp>.jsonl
	PinnedOnly bool
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt string `json:"exported_at"`
}

// Export writes drafts to a JSONL file in list order. The file is written
// under a temporary name and renamed into place, so an existing file at
// Path survives a failed export.
func (c *Controller) Export(ctx context.Context, input ExportInput) (*ExportOutput, error) {
	now := c.now()
	exportedAt := draft.FormatTime(now)

	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(c.ExportsDir(), "drafts-"+now.UTC().Format("2006-01-02T150405")+".jsonl")
	}
	if err := c.ValidatePath(exportPath, PathCheckWrite); err != nil {
		return nil, err
	}

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	tempPath := exportPath + "." + strings.ToLower(ulid.Make().String()) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)

	header := draft.ExportRecord{
		DraftpadExport: true,
		SchemaVersion:  ExportSchemaVersion,
		ExportedAt:     exportedAt,
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	count := 0
	for _, d := range draft.View(all, "") {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("export")
		}
		if input.PinnedOnly && !d.Pinned {
			continue
		}
		if err := enc.Encode(draft.ToExportRecord(d)); err != nil {
			return nil, errors.NewInternal(err)
		}
		count++
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Windows cannot rename an open file.
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("export path is a symlink")
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}
