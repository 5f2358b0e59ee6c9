package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
	"github.com/hpungsan/draftpad/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers. One stdio server is one
// editor, so a single Session is shared by all calls.
type Handlers struct {
	ctrl   *ops.Controller
	logger *slog.Logger

	mu   sync.Mutex
	sess ops.Session
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ctrl *ops.Controller, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{ctrl: ctrl, logger: logger}
}

// Request types for each tool

// SaveRequest represents the arguments for draft_save.
type SaveRequest struct {
	Content string `json:"content"`
}

// IDRequest represents tools addressed by draft id.
type IDRequest struct {
	ID *int64 `json:"id"`
}

// ListRequest represents the arguments for draft_list.
type ListRequest struct {
	Query  string `json:"query,omitempty"`
	Layout string `json:"layout,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// CopyRequest represents the arguments for draft_copy.
type CopyRequest struct {
	ID   *int64  `json:"id,omitempty"`
	Text *string `json:"text,omitempty"`
}

// ExportRequest represents the arguments for draft_export.
type ExportRequest struct {
	Path       string `json:"path,omitempty"`
	PinnedOnly bool   `json:"pinned_only,omitempty"`
}

// ImportRequest represents the arguments for draft_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// SessionResponse reports editor state after draft_new and draft_edit.
type SessionResponse struct {
	Session ops.Session      `json:"session"`
	Draft   *ops.FetchOutput `json:"draft,omitempty"`
}

// SaveResponse is a SaveOutput plus the session it left behind.
type SaveResponse struct {
	*ops.SaveOutput
	Session ops.Session `json:"session"`
}

// Handler implementations

// HandleSave handles the draft_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sess, out, err := h.ctrl.Save(ctx, h.sess, input.Content)
	if err != nil {
		return h.fail("draft_save", err), nil
	}
	h.sess = sess
	if out.Status == ops.SaveDropped {
		h.logger.Warn("open draft was deleted; edit dropped", "id", out.ID)
	}

	return successResult(SaveResponse{SaveOutput: out, Session: sess})
}

// HandleEdit handles the draft_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := h.decodeID(req)
	if errRes != nil {
		return errRes, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sess, d, err := h.ctrl.BeginEdit(ctx, h.sess, id)
	if err != nil {
		return h.fail("draft_edit", err), nil
	}
	h.sess = sess

	return successResult(SessionResponse{Session: sess, Draft: d})
}

// HandleNew handles the draft_new tool call.
func (h *Handlers) HandleNew(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sess = ops.Reset(h.sess)
	return successResult(SessionResponse{Session: h.sess})
}

// HandleFetch handles the draft_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := h.decodeID(req)
	if errRes != nil {
		return errRes, nil
	}

	result, err := h.ctrl.Fetch(ctx, id)
	if err != nil {
		return h.fail("draft_fetch", err), nil
	}
	return successResult(result)
}

// HandleList handles the draft_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	layout := draft.LayoutWide
	switch input.Layout {
	case "", "wide":
	case "narrow":
		layout = draft.LayoutNarrow
	default:
		return errorResult(errors.NewInvalidRequest("layout must be one of: wide, narrow")), nil
	}

	result, err := h.ctrl.List(ctx, ops.ListInput{
		Query:  input.Query,
		Layout: layout,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return h.fail("draft_list", err), nil
	}
	return successResult(result)
}

// HandlePin handles the draft_pin tool call.
func (h *Handlers) HandlePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := h.decodeID(req)
	if errRes != nil {
		return errRes, nil
	}

	result, err := h.ctrl.TogglePin(ctx, id)
	if err != nil {
		return h.fail("draft_pin", err), nil
	}
	return successResult(result)
}

// HandleDelete handles the draft_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := h.decodeID(req)
	if errRes != nil {
		return errRes, nil
	}

	result, err := h.ctrl.Delete(ctx, id)
	if err != nil {
		return h.fail("draft_delete", err), nil
	}
	return successResult(result)
}

// HandleCopy handles the draft_copy tool call.
func (h *Handlers) HandleCopy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CopyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.ctrl.Copy(ctx, ops.CopyInput{ID: input.ID, Text: input.Text})
	if err != nil {
		return h.fail("draft_copy", err), nil
	}
	return successResult(result)
}

// HandleExport handles the draft_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.ctrl.Export(ctx, ops.ExportInput{Path: input.Path, PinnedOnly: input.PinnedOnly})
	if err != nil {
		return h.fail("draft_export", err), nil
	}
	h.logger.Info("drafts exported", "path", result.Path, "count", result.Count)
	return successResult(result)
}

// HandleImport handles the draft_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.ctrl.Import(ctx, ops.ImportInput{Path: input.Path, Mode: ops.ImportMode(input.Mode)})
	if err != nil {
		return h.fail("draft_import", err), nil
	}
	h.logger.Info("drafts imported", "path", input.Path, "imported", result.Imported, "skipped", result.Skipped)
	return successResult(result)
}

// decodeID reads the required id argument.
func (h *Handlers) decodeID(req mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return 0, errorResult(errors.NewInvalidRequest(err.Error()))
	}
	if input.ID == nil {
		return 0, errorResult(errors.NewInvalidRequest("id is required"))
	}
	return *input.ID, nil
}

// fail logs storage-level failures and converts err to an error result.
func (h *Handlers) fail(tool string, err error) *mcp.CallToolResult {
	if errors.IsStorageFailure(err) || errors.Is(err, errors.ErrInternal) {
		h.logger.Error("tool failed", "tool", tool, "error", err)
	} else {
		h.logger.Debug("tool rejected", "tool", tool, "error", err)
	}
	return errorResult(err)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if dErr, ok := err.(*errors.DraftError); ok {
		errorObj := map[string]any{
			"code":    dErr.Code,
			"message": dErr.Message,
			"status":  dErr.Status,
		}
		if dErr.Code != errors.ErrInternal && dErr.Details != nil {
			errorObj["details"] = dErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
