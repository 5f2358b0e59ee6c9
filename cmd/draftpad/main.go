package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hpungsan/draftpad/internal/config"
	"github.com/hpungsan/draftpad/internal/db"
	"github.com/hpungsan/draftpad/internal/mcp"
	"github.com/hpungsan/draftpad/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"save": true, "edit": true, "new": true, "show": true,
	"list": true, "pin": true, "delete": true, "copy": true,
	"export": true, "import": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
       _            __ _                  _
    __| |_ __ __ _ / _| |_ _ __   __ _  __| |
   / _' | '__/ _' | |_| __| '_ \ / _' |/ _' |
  | (_| | | | (_| |  _| |_| |_) | (_| | (_| |
   \__,_|_|  \__,_|_|  \__| .__/ \__,_|\__,_|
                          |_|
  Local drafts for short social posts

  Usage: draftpad <command> [options]
         draftpad serve      (web editor)
         draftpad --help

  MCP server mode requires piped input.`)
}

// newLogger builds the process logger. Stdout belongs to command output and
// the MCP transport, so logs go to stderr.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, "", nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'draftpad --help' for usage.\n")
		os.Exit(1)
	}

	baseDir, err := ops.DefaultBaseDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", strings.Join(unknown, ","))
	}

	database, err := db.InitWithConfig(baseDir, cfg)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()

	ctrl := ops.New(db.NewStore(database), cfg, ops.WithBaseDir(baseDir))

	if isCLIMode() {
		app := newCLIApp(ctrl, baseDir, logger)
		if err := app.Run(os.Args); err != nil {
			database.Close()
			fatal("%v", err)
		}
		return
	}

	// MCP server mode (default)
	if err := mcp.Run(ctrl, logger, Version); err != nil {
		database.Close()
		fatal("%v", err)
	}
}
