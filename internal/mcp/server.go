package mcp

import (
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/draftpad/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"draft_save":   {saveToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave }},
	"draft_edit":   {editToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleEdit }},
	"draft_new":    {newToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleNew }},
	"draft_fetch":  {fetchToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch }},
	"draft_list":   {listToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleList }},
	"draft_pin":    {pinToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePin }},
	"draft_delete": {deleteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete }},
	"draft_copy":   {copyToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCopy }},
	"draft_export": {exportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport }},
	"draft_import": {importToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport }},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the draft tools registered, minus
// any listed in the controller's DisabledTools.
func NewServer(ctrl *ops.Controller, logger *slog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"draftpad",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(ctrl, logger)
	disabled := ctrl.Config().DisabledTools

	for name, entry := range toolRegistry {
		if slices.Contains(disabled, name) {
			logger.Debug("tool disabled", "tool", name)
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves MCP over stdio until stdin closes.
func Run(ctrl *ops.Controller, logger *slog.Logger, version string) error {
	logger.Info("mcp server starting", "version", version, "transport", "stdio")
	return server.ServeStdio(NewServer(ctrl, logger, version))
}
