package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
)

// Export lines can hold long drafts.
const maxImportLine = 4 << 20

// ImportMode controls how records matching an existing draft are handled.
type ImportMode string

const (
	ImportModeAppend ImportMode = "append" // every record becomes a new draft
	ImportModeSkip   ImportMode = "skip"   // skip records whose content is already stored
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: skip
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import adds drafts from a JSONL export file. Imported drafts get fresh
// ids. Once the draft ceiling is reached the remaining records are skipped
// with a CAPACITY_EXCEEDED line error.
func (c *Controller) Import(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeSkip
	}
	if input.Mode != ImportModeAppend && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: append, skip")
	}
	if err := c.ValidatePath(input.Path, PathCheckRead); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.DraftError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, lineErrs := parseExportFile(file)

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	seen := make(map[string]bool, len(all))
	for _, d := range all {
		seen[d.Content] = true
	}
	stored := len(all)

	out := &ImportOutput{
		Errors:  lineErrs,
		Skipped: len(lineErrs),
	}
	for _, rec := range records {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}
		if input.Mode == ImportModeSkip && seen[rec.Content] {
			out.Skipped++
			continue
		}
		if stored >= c.maxDrafts() {
			out.Skipped++
			out.Errors = append(out.Errors, ImportError{
				Line:    rec.line,
				Code:    string(errors.ErrCapacityExceeded),
				Message: fmt.Sprintf("draft limit of %d reached", c.maxDrafts()),
			})
			continue
		}

		d := rec.ToDraft(c.timestamp())
		if _, err := c.store.Create(ctx, d); err != nil {
			return nil, storeErr(err)
		}
		seen[d.Content] = true
		stored++
		out.Imported++
	}

	return out, nil
}

type importRecord struct {
	draft.ExportRecord
	line int
}

// parseExportFile reads draft records, skipping the header line. Lines that
// are not valid records are reported, not fatal.
func parseExportFile(r io.Reader) ([]importRecord, []ImportError) {
	var records []importRecord
	var lineErrs []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec draft.ExportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			lineErrs = append(lineErrs, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.DraftpadExport {
			continue
		}
		if rec.Content == "" {
			lineErrs = append(lineErrs, ImportError{
				Line:    lineNum,
				Code:    string(errors.ErrEmptyContent),
				Message: "missing content field",
			})
			continue
		}

		records = append(records, importRecord{ExportRecord: rec, line: lineNum})
	}

	if err := scanner.Err(); err != nil {
		lineErrs = append(lineErrs, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, lineErrs
}
