package mcp

import "github.com/mark3labs/mcp-go/mcp"

var saveToolDef = mcp.NewTool("draft_save",
	mcp.WithDescription("Save text to the open draft, or create a new draft when none is open. "+
		"Saving the same text twice is a no-op. Fails with CAPACITY_EXCEEDED at the draft limit."),
	mcp.WithString("content", mcp.Required(), mcp.Description("Full draft text (not a diff)")),
)

var editToolDef = mcp.NewTool("draft_edit",
	mcp.WithDescription("Open an existing draft so later draft_save calls update it. A missing id is ignored."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Draft id")),
)

var newToolDef = mcp.NewTool("draft_new",
	mcp.WithDescription("Close the open draft so the next draft_save creates a new one. Nothing is deleted."),
)

var fetchToolDef = mcp.NewTool("draft_fetch",
	mcp.WithDescription("Fetch one draft by id."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Draft id")),
)

var listToolDef = mcp.NewTool("draft_list",
	mcp.WithDescription("List drafts: pinned first (most recently pinned on top), then most recently updated. "+
		"Labels are the first line, truncated."),
	mcp.WithString("query", mcp.Description("Case-insensitive substring filter")),
	mcp.WithString("layout", mcp.Description("Label width"), mcp.Enum("wide", "narrow")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 100, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var pinToolDef = mcp.NewTool("draft_pin",
	mcp.WithDescription("Toggle the pin on a draft. Pinned drafts sort to the top."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Draft id")),
)

var deleteToolDef = mcp.NewTool("draft_delete",
	mcp.WithDescription("Permanently delete a draft. Deleting a missing id succeeds with deleted=false."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Draft id")),
)

var copyToolDef = mcp.NewTool("draft_copy",
	mcp.WithDescription("Return clipboard-ready text: whitespace trimmed and collapsed, line endings unified, NFC. "+
		"Give exactly one of id or text. Stored drafts are not modified."),
	mcp.WithNumber("id", mcp.Description("Draft id")),
	mcp.WithString("text", mcp.Description("Raw text to normalize")),
)

var exportToolDef = mcp.NewTool("draft_export",
	mcp.WithDescription("Export drafts to a JSONL file (default ~/.draftpad/exports)."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path")),
	mcp.WithBoolean("pinned_only", mcp.Description("Export only pinned drafts")),
)

var importToolDef = mcp.NewTool("draft_import",
	mcp.WithDescription("Import drafts from a JSONL export. Imported drafts get new ids; import stops adding at the draft limit."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithString("mode", mcp.Description("skip: ignore records whose text is already stored (default); append: import everything"),
		mcp.Enum("skip", "append")),
)
