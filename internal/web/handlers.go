package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
	"github.com/hpungsan/draftpad/internal/ops"
)

// toasts maps the ?toast= flash keys set by redirects to messages.
var toasts = map[string]string{
	"saved":   "Saved",
	"deleted": "Deleted",
	"dropped": "This draft was deleted elsewhere, so your text was not saved. Save again to keep it as a new draft.",
}

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	ctrl     *ops.Controller
	logger   *slog.Logger
	renderer *Renderer
	sessions *sessionStore
}

// HandleList handles GET /drafts: the editor plus the draft list.
// Requests targeting #draft-list get only the list fragment.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	es := h.sessions.get(w, r)
	es.mu.Lock()
	sess := es.state
	es.mu.Unlock()

	editor := h.newEditor(0, "")
	if sess.Editing() && sess.LastSaved != nil {
		editor = h.newEditor(*sess.EditingID, *sess.LastSaved)
	}

	data, err := h.pageData(r, editor)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	data.Toast = toasts[r.URL.Query().Get("toast")]

	if r.Header.Get("HX-Target") == "draft-list" {
		h.renderer.renderBlock(w, http.StatusOK, "drafts", "draft-list", data)
		return
	}
	h.renderer.renderPage(w, r, "drafts", data)
}

// HandleEdit handles GET /drafts/{id}: open a draft in the editor.
// A draft that no longer exists leaves the editor as it was.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	es := h.sessions.get(w, r)
	es.mu.Lock()
	sess, d, err := h.ctrl.BeginEdit(r.Context(), es.state, id)
	if err == nil {
		es.state = sess
	}
	es.mu.Unlock()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if d == nil {
		http.Redirect(w, r, "/drafts", http.StatusFound)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, d)
		return
	}

	data, err := h.pageData(r, h.newEditor(d.ID, d.Content))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "drafts", data)
}

// HandleSave handles POST /drafts: save the editor text.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	content := r.PostFormValue("content")

	es := h.sessions.get(w, r)
	es.mu.Lock()
	sess, out, err := h.ctrl.Save(r.Context(), es.state, content)
	if err == nil {
		es.state = sess
	}
	es.mu.Unlock()

	if err != nil {
		if isHX(r) || wantsJSON(r) {
			h.renderer.renderError(w, r, err)
			return
		}
		h.renderSaveFailure(w, r, sess, content, err)
		return
	}

	if out.Status == ops.SaveDropped {
		h.logger.Warn("open draft was deleted; edit dropped", "id", out.ID)
	}

	switch {
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, out)
	case isHX(r):
		w.Header().Set("HX-Trigger", "drafts-changed")
		renderToast(w, http.StatusOK, saveToast(out.Status))
	case out.Status == ops.SaveDropped:
		h.renderDropped(w, r, content)
	default:
		http.Redirect(w, r, "/drafts?toast="+saveToastKey(out.Status), http.StatusSeeOther)
	}
}

// renderDropped re-renders the page with the typed text in a fresh editor.
// A redirect would lose it, since the session no longer points at a draft.
func (h *Handlers) renderDropped(w http.ResponseWriter, r *http.Request, content string) {
	data, err := h.pageData(r, h.newEditor(0, content))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	data.Toast = toasts["dropped"]
	h.renderer.renderPage(w, r, "drafts", data)
}

// renderSaveFailure re-renders the page with the unsaved text still in the
// editor so nothing typed is lost.
func (h *Handlers) renderSaveFailure(w http.ResponseWriter, r *http.Request, sess ops.Session, content string, saveErr error) {
	var id int64
	if sess.EditingID != nil {
		id = *sess.EditingID
	}
	data, err := h.pageData(r, h.newEditor(id, content))
	if err != nil {
		h.renderer.renderError(w, r, saveErr)
		return
	}

	var dErr *errors.DraftError
	if e, ok := saveErr.(*errors.DraftError); ok {
		dErr = e
	} else {
		dErr = errors.NewInternal(saveErr)
	}
	if dErr.Status >= 500 {
		h.logger.Error("save failed", "code", dErr.Code, "error", saveErr)
	}
	data.Toast = dErr.Message
	h.renderer.renderPageStatus(w, r, dErr.Status, "drafts", data)
}

// HandleNew handles POST /drafts/new: clear the editor for a new draft.
func (h *Handlers) HandleNew(w http.ResponseWriter, r *http.Request) {
	es := h.sessions.get(w, r)
	es.mu.Lock()
	es.state = ops.Reset(es.state)
	es.mu.Unlock()

	h.redirect(w, r, "/drafts")
}

// HandlePin handles POST /drafts/{id}/pin.
func (h *Handlers) HandlePin(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := h.ctrl.TogglePin(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch {
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, result)
	case isHX(r):
		data, err := h.pageData(r, EditorData{})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		h.renderer.renderBlock(w, http.StatusOK, "drafts", "draft-list", data)
	default:
		http.Redirect(w, r, "/drafts", http.StatusSeeOther)
	}
}

// HandleDelete handles DELETE /drafts/{id} and POST /drafts/{id}/delete.
// The page asks for confirmation before sending the request.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := h.ctrl.Delete(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if result.Deleted {
		h.logger.Info("draft deleted", "id", id)
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.redirect(w, r, "/drafts?toast=deleted")
}

// HandleCopy handles GET /drafts/{id}/copy: the normalized text as text/plain.
func (h *Handlers) HandleCopy(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.writeCopy(w, r, ops.CopyInput{ID: &id})
}

// HandleCopyText handles POST /drafts/copy: normalize unsaved editor text.
func (h *Handlers) HandleCopyText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	text := r.PostFormValue("content")
	h.writeCopy(w, r, ops.CopyInput{Text: &text})
}

func (h *Handlers) writeCopy(w http.ResponseWriter, r *http.Request, input ops.CopyInput) {
	result, err := h.ctrl.Copy(r.Context(), input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.Text))
}

// HandlePreview handles POST /drafts/preview: rendered markdown for the editor text.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderMarkdown(r.PostFormValue("content"))))
}

// pageData loads the list (filtered by ?q=) around the given editor.
func (h *Handlers) pageData(r *http.Request, editor EditorData) (DraftsPageData, error) {
	query := r.URL.Query().Get("q")
	layout := draft.LayoutWide
	if r.URL.Query().Get("layout") == "narrow" {
		layout = draft.LayoutNarrow
	}

	list, err := h.ctrl.List(r.Context(), ops.ListInput{
		Query:  query,
		Layout: layout,
		Limit:  ops.MaxListLimit,
	})
	if err != nil {
		return DraftsPageData{}, err
	}

	return DraftsPageData{
		PageData: PageData{
			Title:   "Drafts",
			Version: h.renderer.version,
		},
		Editor:    editor,
		Items:     list.Items,
		Query:     query,
		Stored:    list.Stored,
		MaxDrafts: list.MaxDrafts,
	}, nil
}

func (h *Handlers) newEditor(id int64, content string) EditorData {
	limit := h.ctrl.Config().SoftLimitChars
	chars := draft.CountChars(content)
	e := EditorData{
		ID:        id,
		Content:   content,
		Chars:     chars,
		SoftLimit: limit,
		Over:      limit > 0 && chars > limit,
	}
	if content != "" {
		e.Preview = renderMarkdown(content)
	}
	return e
}

// redirect sends htmx callers an HX-Redirect and everyone else a 303.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// parseID reads the {id} path value.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("draft id must be a positive integer")
	}
	return id, nil
}

func saveToastKey(status ops.SaveStatus) string {
	switch status {
	case ops.SaveDropped:
		return "dropped"
	case ops.SaveUnchanged:
		return ""
	default:
		return "saved"
	}
}

func saveToast(status ops.SaveStatus) string {
	return toasts[saveToastKey(status)]
}
