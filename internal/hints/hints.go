// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-wpbooklet/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	hints = append(hints, "or try --backend command")

	return formatHints(hints)
}

// ForExternalTool returns a hint when the external PDF command fails.
func ForExternalTool(tool string) string {
	if tool == "" {
		return ""
	}
	return format("check that " + tool + " is installed and on PATH (booklet doctor)")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for image-heavy pages, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/wp-booklet") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForContentNotFound returns hints when no content file resolves.
func ForContentNotFound(workdir string) string {
	return format("run `booklet fetch` first or check --workdir (" + workdir + ")")
}

// ForUnknownTemplate points at the template listing.
func ForUnknownTemplate() string {
	return format("run `booklet templates` to list types, or omit --template to detect")
}

// ForSchemaValidation points at the escape hatch for broken content.
func ForSchemaValidation() string {
	return format("fix the page in WordPress, or set SKIP_SCHEMA=1 to build anyway")
}

// ForWordPressAuth returns hints when the REST API refuses access.
func ForWordPressAuth() string {
	return format("set WP_JWT, or WP_APP_USER and WP_APP_PASS")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
