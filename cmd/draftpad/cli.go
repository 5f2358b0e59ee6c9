package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/draftpad/internal/draft"
	"github.com/hpungsan/draftpad/internal/errors"
	"github.com/hpungsan/draftpad/internal/ops"
	"github.com/hpungsan/draftpad/internal/web"
)

// maxStdinBytes caps piped input.
const maxStdinBytes = 1 << 20

// env is what every command needs. ctrl is nil for help/version runs.
type env struct {
	ctrl    *ops.Controller
	baseDir string
	logger  *slog.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(ctrl *ops.Controller, baseDir string, logger *slog.Logger) *cli.App {
	if logger == nil {
		logger = slog.Default()
	}
	e := &env{ctrl: ctrl, baseDir: baseDir, logger: logger}

	app := &cli.App{
		Name:    "draftpad",
		Usage:   "Local drafts for short social posts",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(e),
			editCmd(e),
			newCmd(e),
			showCmd(e),
			listCmd(e),
			pinCmd(e),
			deleteCmd(e),
			copyCmd(e),
			exportCmd(e),
			importCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// saveCmd creates the save command.
func saveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save stdin to the open draft, or to a new draft when none is open",
		Action: func(c *cli.Context) error {
			if !inputHasData(c) {
				return outputError(errors.NewInvalidRequest("draft text must be piped via stdin"))
			}
			text, err := readInput(c, maxStdinBytes)
			if err != nil {
				return outputError(err)
			}

			sess, out, err := e.ctrl.Save(c.Context, loadSession(e.baseDir), text)
			if err != nil {
				return outputError(err)
			}
			if err := storeSession(e.baseDir, sess); err != nil {
				return outputError(errors.NewInternal(err))
			}
			if out.Status == ops.SaveDropped {
				fmt.Fprintf(c.App.ErrWriter, "draft #%d was deleted; text not saved (run save again to keep it as a new draft)\n", out.ID)
			}
			if out.OverSoftLimit {
				fmt.Fprintf(c.App.ErrWriter, "warning: %d characters is over the %d character guideline\n",
					out.Chars, e.ctrl.Config().SoftLimitChars)
			}
			return outputJSON(c, out)
		},
	}
}

// editCmd creates the edit command.
func editCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Open a draft so the next save updates it",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			sess, d, err := e.ctrl.BeginEdit(c.Context, loadSession(e.baseDir), id)
			if err != nil {
				return outputError(err)
			}
			if err := storeSession(e.baseDir, sess); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(c, map[string]any{"session": sess, "draft": d})
		},
	}
}

// newCmd creates the new command.
func newCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Close the open draft; the next save creates a new one",
		Action: func(c *cli.Context) error {
			sess := ops.Reset(loadSession(e.baseDir))
			if err := storeSession(e.baseDir, sess); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(c, map[string]any{"session": sess})
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one draft",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.ctrl.Fetch(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List drafts, pinned first then most recently updated",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Case-insensitive substring filter"},
			&cli.BoolFlag{Name: "narrow", Usage: "Use short labels"},
			&cli.BoolFlag{Name: "table", Aliases: []string{"t"}, Usage: "Print a table instead of JSON"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Skip results"},
		},
		Action: func(c *cli.Context) error {
			layout := draft.LayoutWide
			if c.Bool("narrow") {
				layout = draft.LayoutNarrow
			}
			out, err := e.ctrl.List(c.Context, ops.ListInput{
				Query:  c.String("query"),
				Layout: layout,
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("table") {
				printTable(c.App.Writer, out)
				return nil
			}
			return outputJSON(c, out)
		},
	}
}

// pinCmd creates the pin command.
func pinCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Toggle the pin on a draft",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.ctrl.TogglePin(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete a draft",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("yes") {
				ok, err := confirm(c, fmt.Sprintf("Delete draft #%d? [y/N] ", id))
				if err != nil {
					return outputError(err)
				}
				if !ok {
					return outputJSON(c, ops.DeleteOutput{ID: id})
				}
			}
			out, err := e.ctrl.Delete(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// copyCmd creates the copy command.
func copyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Print clipboard-ready text for a draft, or for stdin when no id is given",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print JSON with the character count"},
		},
		Action: func(c *cli.Context) error {
			var input ops.CopyInput
			if c.NArg() > 0 {
				id, err := idArg(c)
				if err != nil {
					return outputError(err)
				}
				input.ID = &id
			} else {
				if !inputHasData(c) {
					return outputError(errors.NewInvalidRequest("give a draft id or pipe text via stdin"))
				}
				text, err := readInput(c, maxStdinBytes)
				if err != nil {
					return outputError(err)
				}
				input.Text = &text
			}

			out, err := e.ctrl.Copy(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(c, out)
			}
			_, err = fmt.Fprint(c.App.Writer, out.Text)
			return err
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export drafts to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.draftpad/exports/drafts-<timestamp>.jsonl)"},
			&cli.BoolFlag{Name: "pinned-only", Usage: "Export only pinned drafts"},
		},
		Action: func(c *cli.Context) error {
			out, err := e.ctrl.Export(c.Context, ops.ExportInput{
				Path:       c.String("path"),
				PinnedOnly: c.Bool("pinned-only"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import drafts from a JSONL export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Input path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "skip", Usage: "Duplicate handling: skip|append"},
		},
		Action: func(c *cli.Context) error {
			out, err := e.ctrl.Import(c.Context, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web editor",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8340, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(e.ctrl, e.logger, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, e.logger)
		},
	}
}

// Helper functions

// outputJSON writes v to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if dErr, ok := err.(*errors.DraftError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", dErr.Code, dErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// idArg parses the first positional argument as a draft id.
func idArg(c *cli.Context) (int64, error) {
	if c.NArg() == 0 {
		return 0, errors.NewInvalidRequest("draft id is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid draft id %q", c.Args().First()))
	}
	return id, nil
}

// inputHasData reports whether the app's input is piped. Non-stdin readers
// (tests) always count as piped.
func inputHasData(c *cli.Context) bool {
	f, ok := c.App.Reader.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readInput reads up to limit bytes of draft text. One trailing newline,
// as added by echo and heredocs, is dropped; everything else is kept.
func readInput(c *cli.Context, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(c.App.Reader, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return trimFinalNewline(string(data)), nil
}

func trimFinalNewline(s string) string {
	if t, ok := strings.CutSuffix(s, "\r\n"); ok {
		return t
	}
	return strings.TrimSuffix(s, "\n")
}

// confirm asks a yes/no question on the app's streams. Without a terminal
// or other interactive reader there is nobody to ask, so --yes is required.
func confirm(c *cli.Context, prompt string) (bool, error) {
	if f, ok := c.App.Reader.(*os.File); ok {
		if stat, err := f.Stat(); err != nil || stat.Mode()&os.ModeCharDevice == 0 {
			return false, errors.NewInvalidRequest("confirmation required; pass --yes")
		}
	}
	fmt.Fprint(c.App.ErrWriter, prompt)
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.NewInternal(err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

var (
	pinnedRow  = color.New(color.FgYellow)
	overLimit  = color.New(color.FgRed)
	headerText = color.New(color.Bold)
)

// printTable renders a list result for terminals.
func printTable(w io.Writer, out *ops.ListOutput) {
	headerText.Fprintf(w, "%5s  %-3s  %-16s  %6s  %s\n", "ID", "PIN", "UPDATED", "CHARS", "LABEL")
	for _, it := range out.Items {
		pin := ""
		if it.Pinned {
			pin = "*"
		}
		updated := it.UpdatedAt
		if len(updated) >= 16 {
			updated = strings.Replace(updated[:16], "T", " ", 1)
		}
		chars := fmt.Sprintf("%6d", it.Chars)
		if it.OverSoftLimit {
			chars = overLimit.Sprint(chars)
		}
		line := fmt.Sprintf("%5d  %-3s  %-16s  %s  %s", it.ID, pin, updated, chars, it.Label)
		if it.Pinned {
			pinnedRow.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintf(w, "%d of %d drafts (limit %d)\n", len(out.Items), out.Stored, out.MaxDrafts)
}
