package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/hpungsan/draftpad/internal/config"
	"github.com/hpungsan/draftpad/internal/db"
	"github.com/hpungsan/draftpad/internal/ops"
)

// testServer is an httptest server over a temp database plus a client
// that keeps the session cookie and does not follow redirects.
type testServer struct {
	*httptest.Server
	ctrl   *ops.Controller
	client *http.Client
}

func setupTest(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctrl := ops.New(db.NewStore(database), cfg, ops.WithBaseDir(tmpDir))

	srv, err := NewServer(ctrl, slog.New(slog.NewTextHandler(io.Discard, nil)), "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testServer{
		Server: ts,
		ctrl:   ctrl,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (ts *testServer) do(t *testing.T, method, path string, form url.Values, headers map[string]string) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

var jsonAccept = map[string]string{"Accept": "application/json"}

func (ts *testServer) save(t *testing.T, content string) map[string]any {
	t.Helper()
	resp, body := ts.do(t, "POST", "/drafts", url.Values{"content": {content}}, jsonAccept)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", resp.StatusCode, body)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("save response: %v", err)
	}
	return out
}

// --- HandleList ---

func TestHandleList_Empty(t *testing.T) {
	ts := setupTest(t, nil)

	resp, body := ts.do(t, "GET", "/drafts", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "No drafts yet") {
		t.Error("empty state missing")
	}
	if !strings.Contains(body, "0 / 100 drafts") {
		t.Error("capacity line missing")
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}
}

func TestHandleList_SetsSessionCookie(t *testing.T) {
	ts := setupTest(t, nil)

	resp, _ := ts.do(t, "GET", "/drafts", nil, nil)
	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("session cookie not set")
	}
}

func TestHandleList_OrderAndQuery(t *testing.T) {
	ts := setupTest(t, nil)
	ctx := context.Background()

	_, a, _ := ts.ctrl.Save(ctx, ops.Session{}, "alpha foo")
	ts.ctrl.Save(ctx, ops.Session{}, "bravo")
	ts.ctrl.TogglePin(ctx, a.ID)

	_, body := ts.do(t, "GET", "/drafts", nil, nil)
	pinned := strings.Index(body, "📌 alpha foo")
	other := strings.Index(body, "bravo")
	if pinned < 0 || other < 0 || pinned > other {
		t.Errorf("pinned draft not listed first (pinned=%d other=%d)", pinned, other)
	}

	resp, body := ts.do(t, "GET", "/drafts?q=FOO", nil, map[string]string{"HX-Request": "true", "HX-Target": "draft-list"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.Contains(body, "<html") {
		t.Error("fragment request returned full page")
	}
	if !strings.Contains(body, "alpha foo") || strings.Contains(body, "bravo") {
		t.Errorf("filter not applied: %s", body)
	}
}

// --- HandleSave ---

func TestHandleSave_Lifecycle(t *testing.T) {
	ts := setupTest(t, nil)

	first := ts.save(t, "hello")
	if first["status"] != "created" {
		t.Fatalf("first = %v", first)
	}
	if again := ts.save(t, "hello"); again["status"] != "unchanged" {
		t.Errorf("again = %v, want unchanged", again)
	}
	if upd := ts.save(t, "hello world"); upd["status"] != "updated" || upd["id"] != first["id"] {
		t.Errorf("upd = %v, want updated same id", upd)
	}

	// The session survives between requests: the page shows the open draft.
	_, body := ts.do(t, "GET", "/drafts", nil, nil)
	if !strings.Contains(body, ">hello world</textarea>") {
		t.Error("editor does not show the open draft")
	}
}

func TestHandleSave_FormRedirects(t *testing.T) {
	ts := setupTest(t, nil)

	resp, _ := ts.do(t, "POST", "/drafts", url.Values{"content": {"x"}}, nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/drafts?toast=saved" {
		t.Errorf("Location = %q", loc)
	}

	_, body := ts.do(t, "GET", "/drafts?toast=saved", nil, nil)
	if !strings.Contains(body, `class="toast"`) {
		t.Error("toast missing after redirect")
	}
}

func TestHandleSave_EmptyKeepsPage(t *testing.T) {
	ts := setupTest(t, nil)

	resp, body := ts.do(t, "POST", "/drafts", url.Values{"content": {""}}, map[string]string{"HX-Request": "true"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(body, `class="toast"`) {
		t.Errorf("body = %s, want toast fragment", body)
	}
}

func TestHandleSave_CapacityPreservesText(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxDrafts = 1
	ts := setupTest(t, cfg)

	ts.save(t, "one")
	ts.do(t, "POST", "/drafts/new", nil, nil)

	resp, body := ts.do(t, "POST", "/drafts", url.Values{"content": {"two & more"}}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if !strings.Contains(body, "two &amp; more</textarea>") {
		t.Error("unsaved text lost from editor")
	}
	if !strings.Contains(body, "limit of 1 drafts") {
		t.Errorf("capacity message missing: %s", body)
	}
}

// --- HandleEdit / HandleNew ---

func TestHandleEdit(t *testing.T) {
	ts := setupTest(t, nil)
	ctx := context.Background()

	_, saved, _ := ts.ctrl.Save(ctx, ops.Session{}, "# Title\n\nbody *text*")

	resp, body := ts.do(t, "GET", "/drafts/"+itoa(saved.ID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "<h1>Title</h1>") || !strings.Contains(body, "<em>text</em>") {
		t.Error("markdown preview missing")
	}

	// Saving now updates the opened draft.
	out := ts.save(t, "changed")
	if out["status"] != "updated" || int64(out["id"].(float64)) != saved.ID {
		t.Errorf("out = %v", out)
	}

	// New resets; the next save creates.
	resp, _ = ts.do(t, "POST", "/drafts/new", nil, nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("new status = %d", resp.StatusCode)
	}
	if out := ts.save(t, "changed"); out["status"] != "created" {
		t.Errorf("after new = %v, want created", out)
	}
}

func TestHandleEdit_MissingAndInvalid(t *testing.T) {
	ts := setupTest(t, nil)

	resp, _ := ts.do(t, "GET", "/drafts/999", nil, nil)
	if resp.StatusCode != http.StatusFound {
		t.Errorf("missing status = %d, want 302", resp.StatusCode)
	}

	resp, body := ts.do(t, "GET", "/drafts/abc", nil, jsonAccept)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "INVALID_REQUEST") {
		t.Errorf("invalid: status = %d body = %s", resp.StatusCode, body)
	}
}

func TestHandleEdit_RawHTMLEscaped(t *testing.T) {
	ts := setupTest(t, nil)
	_, saved, _ := ts.ctrl.Save(context.Background(), ops.Session{}, "<script>alert(1)</script>")

	_, body := ts.do(t, "GET", "/drafts/"+itoa(saved.ID), nil, nil)
	if strings.Contains(body, "<script>alert(1)") {
		t.Error("raw HTML rendered unescaped")
	}
}

// --- HandlePin / HandleDelete ---

func TestHandlePin(t *testing.T) {
	ts := setupTest(t, nil)
	_, saved, _ := ts.ctrl.Save(context.Background(), ops.Session{}, "pin")

	resp, body := ts.do(t, "POST", "/drafts/"+itoa(saved.ID)+"/pin", nil, jsonAccept)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"pinned":true`) {
		t.Errorf("status = %d body = %s", resp.StatusCode, body)
	}

	resp, body = ts.do(t, "POST", "/drafts/"+itoa(saved.ID)+"/pin", nil, map[string]string{"HX-Request": "true"})
	if resp.StatusCode != http.StatusOK || strings.Contains(body, "📌") {
		t.Errorf("unpin fragment: status = %d body = %s", resp.StatusCode, body)
	}
}

func TestHandleDelete(t *testing.T) {
	ts := setupTest(t, nil)
	_, saved, _ := ts.ctrl.Save(context.Background(), ops.Session{}, "bye")

	resp, body := ts.do(t, "DELETE", "/drafts/"+itoa(saved.ID), nil, jsonAccept)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"deleted":true`) {
		t.Errorf("status = %d body = %s", resp.StatusCode, body)
	}

	// Missing id: still succeeds.
	resp, _ = ts.do(t, "POST", "/drafts/"+itoa(saved.ID)+"/delete", nil, nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("form delete status = %d, want 303", resp.StatusCode)
	}

	resp, _ = ts.do(t, "DELETE", "/drafts/"+itoa(saved.ID), nil, map[string]string{"HX-Request": "true"})
	if resp.Header.Get("HX-Redirect") == "" {
		t.Error("HX-Redirect missing")
	}
}

func TestHandleSave_AfterDeleteIsDropped(t *testing.T) {
	ts := setupTest(t, nil)

	first := ts.save(t, "v1")
	ts.do(t, "DELETE", "/drafts/"+itoa(int64(first["id"].(float64))), nil, nil)

	if out := ts.save(t, "v2"); out["status"] != "dropped" {
		t.Errorf("out = %v, want dropped", out)
	}
	if out := ts.save(t, "v2"); out["status"] != "created" {
		t.Errorf("out = %v, want created", out)
	}
}

func TestHandleSave_DroppedFormKeepsText(t *testing.T) {
	ts := setupTest(t, nil)

	resp, _ := ts.do(t, "POST", "/drafts", url.Values{"content": {"v1"}}, nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if _, err := ts.ctrl.Delete(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	resp, body := ts.do(t, "POST", "/drafts", url.Values{"content": {"typed but unsaved"}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 page instead of redirect", resp.StatusCode)
	}
	if !strings.Contains(body, "typed but unsaved</textarea>") {
		t.Error("typed text lost from editor after dropped save")
	}
	if !strings.Contains(body, "deleted elsewhere") {
		t.Errorf("dropped toast missing: %s", body)
	}

	resp, _ = ts.do(t, "POST", "/drafts", url.Values{"content": {"typed but unsaved"}}, nil)
	if loc := resp.Header.Get("Location"); loc != "/drafts?toast=saved" {
		t.Errorf("Location = %q, want saved redirect", loc)
	}
	d, err := ts.ctrl.Fetch(context.Background(), 2)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if d.Content != "typed but unsaved" {
		t.Errorf("content = %q", d.Content)
	}
}

// --- Copy / Preview ---

func TestHandleCopy(t *testing.T) {
	ts := setupTest(t, nil)
	_, saved, _ := ts.ctrl.Save(context.Background(), ops.Session{}, " a\tb  c \r\nline2   \n")

	resp, body := ts.do(t, "GET", "/drafts/"+itoa(saved.ID)+"/copy", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if body != "a b c\nline2" {
		t.Errorf("body = %q", body)
	}

	_, body = ts.do(t, "POST", "/drafts/copy", url.Values{"content": {"  x  y  "}}, nil)
	if body != "x y" {
		t.Errorf("text copy = %q, want %q", body, "x y")
	}

	resp, _ = ts.do(t, "GET", "/drafts/777/copy", nil, jsonAccept)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing copy status = %d, want 404", resp.StatusCode)
	}
}

func TestHandlePreview(t *testing.T) {
	ts := setupTest(t, nil)

	_, body := ts.do(t, "POST", "/drafts/preview", url.Values{"content": {"**bold**\nnext"}}, nil)
	if !strings.Contains(body, "<strong>bold</strong>") || !strings.Contains(body, "<br>") {
		t.Errorf("preview = %q", body)
	}
}

// --- helpers ---

func TestFormatChars(t *testing.T) {
	tests := map[int]string{0: "0", 140: "140", 1000: "1,000", 1234567: "1,234,567", -1500: "-1,500"}
	for in, want := range tests {
		if got := formatChars(in); got != want {
			t.Errorf("formatChars(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime("2024-03-05T07:08:09.123Z"); got != "2024-03-05 07:08" {
		t.Errorf("formatTime = %q", got)
	}
	if got := formatTime("garbage"); got != "garbage" {
		t.Errorf("formatTime(garbage) = %q", got)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
