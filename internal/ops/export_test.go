package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
)

// readExportLines parses every line of a JSONL file.
func readExportLines(t *testing.T, path string) []draft.ExportRecord {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer file.Close()

	var lines []draft.ExportRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec draft.ExportRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, rec)
	}
	return lines
}

func TestExport_HappyPath(t *testing.T) {
	c, _ := newTestController(t, nil)
	ctx := context.Background()

	_, a, _ := c.Save(ctx, Session{}, "first")
	c.Save(ctx, Session{}, "second <b>")
	c.TogglePin(ctx, a.ID)

	path := filepath.Join(c.ExportsDir(), "out.jsonl")
	out, err := c.Export(ctx, ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 2 || out.Path != path {
		t.Errorf("out = %+v", out)
	}

	lines := readExportLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if !lines[0].DraftpadExport || lines[0].SchemaVersion != ExportSchemaVersion {
		t.Errorf("header = %+v", lines[0])
	}
	if lines[1].Content != "first" || !lines[1].Pinned {
		t.Errorf("line 1 = %+v, want pinned first", lines[1])
	}
	if lines[2].Content != "second <b>" {
		t.Errorf("line 2 = %+v", lines[2])
	}

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "<b>") {
		t.Error("HTML was escaped in export")
	}
}

func TestExport_PinnedOnly(t *testing.T) {
	c, _ := newTestController(t, nil)
	ctx := context.Background()

	_, a, _ := c.Save(ctx, Session{}, "keep")
	c.Save(ctx, Session{}, "skip")
	c.TogglePin(ctx, a.ID)

	out, err := c.Export(ctx, ExportInput{Path: filepath.Join(c.ExportsDir(), "pinned.jsonl"), PinnedOnly: true})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
}

func TestExport_DefaultPath(t *testing.T) {
	c, _ := newTestController(t, nil)
	ctx := context.Background()

	c.Save(ctx, Session{}, "x")
	out, err := c.Export(ctx, ExportInput{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Dir(out.Path) != c.ExportsDir() {
		t.Errorf("Path = %q, want under %q", out.Path, c.ExportsDir())
	}
	if !strings.HasPrefix(filepath.Base(out.Path), "drafts-") {
		t.Errorf("Path = %q, want drafts- prefix", out.Path)
	}
}

func TestExport_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permissions not enforced on Windows")
	}
	c, _ := newTestController(t, nil)

	out, err := c.Export(context.Background(), ExportInput{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	info, err := os.Stat(out.Path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestExport_NoTempFileLeft(t *testing.T) {
	c, _ := newTestController(t, nil)

	if _, err := c.Export(context.Background(), ExportInput{}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	entries, _ := os.ReadDir(c.ExportsDir())
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestExport_RejectsOutsidePath(t *testing.T) {
	c, _ := newTestController(t, nil)

	_, err := c.Export(context.Background(), ExportInput{Path: filepath.Join(t.TempDir(), "x.jsonl")})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}
