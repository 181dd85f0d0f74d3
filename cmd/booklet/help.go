package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: booklet <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build       Build one booklet from a slug or page id")
	fmt.Fprintln(w, "  batch       Build several booklets in parallel")
	fmt.Fprintln(w, "  fetch       Download WordPress pages as content files")
	fmt.Fprintln(w, "  templates   List template types")
	fmt.Fprintln(w, "  doctor      Check system configuration")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'booklet help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Files:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -d, --workdir <dir>       Directory holding content files (default .)")
	fmt.Fprintln(w, "  -o, --output-dir <dir>    Directory for PDFs (default: workdir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w, "      --log-json            Log as JSON lines")
}

func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Template:")
	fmt.Fprintln(w, "  -t, --template <type>     Template type (default: detect from content)")
	fmt.Fprintln(w, "      --skip-schema         Skip schema validation")
	fmt.Fprintln(w, "      --style <s>           CSS style name or file path")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w, "      --lang <s>            Document language (default ja)")
	fmt.Fprintln(w, "      --timestamp-format <s> Updated stamp format (default YYYY-MM-DD HH:mm:ss)")
	fmt.Fprintln(w, "      --no-media            Do not resolve WordPress media ids")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a3, a4, a5, b5, letter, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <len>        Margin as a CSS length (e.g. 14mm)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PDF:")
	fmt.Fprintln(w, "      --backend <s>         Backend: rod, chromedp, command")
	fmt.Fprintln(w, "      --pdf-command <s>     Command for the command backend")
	fmt.Fprintln(w, "                            Placeholders: {html}, {pdf}")
	fmt.Fprintln(w, "      --timeout <d>         PDF generation timeout (e.g., 30s, 2m)")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: booklet build [identifier] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build one booklet PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  identifier    Slug or page id (default: SLUG, then PAGE_ID)")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	printRenderUsage(w)
	fmt.Fprintln(w, "      --html-only           Write index.html only, skip PDF")
}

// printBatchUsage prints usage for the batch command.
func printBatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: booklet batch [identifier...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build several booklets in parallel. Identifiers may be comma")
	fmt.Fprintln(w, "separated. Without identifiers every content file in the workdir")
	fmt.Fprintln(w, "is built.")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	printRenderUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Batch:")
	fmt.Fprintln(w, "  -j, --concurrency <n>     Parallel workers (0 = CONCURRENCY or 2, -1 = auto)")
	fmt.Fprintln(w, "      --keep-html           Keep per-task HTML files")
}

// printFetchUsage prints usage for the fetch command.
func printFetchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: booklet fetch [page-id...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download WordPress pages into content files and update")
	fmt.Fprintln(w, "id-slug-map.json. Ids default to PAGE_IDS, then PAGE_ID.")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "WordPress:")
	fmt.Fprintln(w, "      --url <url>           Site URL (default WP_URL)")
	fmt.Fprintln(w, "      --allow-dummy         Write a demo page when nothing can be fetched")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Credentials are read from WP_JWT, or WP_BASIC_USER and WP_BASIC_PASS.")
}

// printTemplatesUsage prints usage for the templates command.
func printTemplatesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: booklet templates [--yaml]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List template types in detection order.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --yaml                Print as YAML")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	if !isCommand(args[0]) {
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return
	}

	w := env.Stdout
	switch args[0] {
	case "build":
		printBuildUsage(w)
	case "batch":
		printBatchUsage(w)
	case "fetch":
		printFetchUsage(w)
	case "templates":
		printTemplatesUsage(w)
	case "doctor":
		fmt.Fprintln(w, "Usage: booklet doctor [--json] [--workdir=<dir>]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Check Chrome, the PDF command, content files and the environment.")
	case "completion":
		printCompletionUsage(w)
	case "version":
		fmt.Fprintln(w, "Usage: booklet version")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show version information.")
	case "help":
		fmt.Fprintln(w, "Usage: booklet help [command]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show help for a command.")
	}
}
