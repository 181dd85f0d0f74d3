package main

import (
	"errors"
	"os"
	"strings"

	booklet "github.com/alnah/go-wpbooklet"
	"github.com/alnah/go-wpbooklet/internal/assets"
	"github.com/alnah/go-wpbooklet/internal/config"
	"github.com/alnah/go-wpbooklet/internal/dateutil"
	"github.com/alnah/go-wpbooklet/internal/hints"
	"github.com/alnah/go-wpbooklet/internal/logging"
	"github.com/alnah/go-wpbooklet/internal/wordpress"
)

// Exit codes for the booklet CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful build
	ExitGeneral = 1 // General/unexpected error, failed batch tasks
	ExitUsage   = 2 // Invalid flags, config, template or content schema
	ExitIO      = 3 // Content not found, permission denied
	ExitBrowser = 4 // Browser or external PDF tool errors
)

// CLI sentinel errors.
var (
	ErrUsage       = errors.New("invalid usage")
	ErrBatchFailed = errors.New("batch failed")
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Batch failures are reported per task; the run itself is exit 1.
	if errors.Is(err, ErrBatchFailed) {
		return ExitGeneral
	}

	// Browser and external tool errors (exit 4)
	if errors.Is(err, booklet.ErrExternalTool) ||
		errors.Is(err, booklet.ErrBrowserConnect) ||
		errors.Is(err, booklet.ErrPageCreate) ||
		errors.Is(err, booklet.ErrPageLoad) ||
		errors.Is(err, booklet.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, booklet.ErrContentNotFound) ||
		errors.Is(err, booklet.ErrInvalidRecord) ||
		errors.Is(err, booklet.ErrInvalidIdentifierMap) ||
		errors.Is(err, booklet.ErrWritePDF) ||
		errors.Is(err, wordpress.ErrNothingFetched) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, booklet.ErrEmptyIdentifier) ||
		errors.Is(err, booklet.ErrInvalidIdentifier) ||
		errors.Is(err, booklet.ErrUnknownTemplate) ||
		errors.Is(err, booklet.ErrSchemaValidation) ||
		errors.Is(err, booklet.ErrInvalidBackend) ||
		errors.Is(err, booklet.ErrInvalidPageSize) ||
		errors.Is(err, booklet.ErrInvalidOrientation) ||
		errors.Is(err, booklet.ErrInvalidMargin) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, wordpress.ErrInvalidBaseURL) ||
		errors.Is(err, wordpress.ErrInvalidPageID) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "". Hints that depend on
// command state (config search paths, workdir) are attached by the command.
func hintFor(err error) string {
	var se *wordpress.StatusError
	var te *booklet.ExternalToolError
	switch {
	case errors.Is(err, ErrBatchFailed):
		return ""
	case errors.Is(err, booklet.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.As(err, &te):
		return hints.ForExternalTool(te.Tool)
	case errors.Is(err, booklet.ErrPageLoad):
		return hints.ForTimeout()
	case errors.Is(err, booklet.ErrUnknownTemplate):
		return hints.ForUnknownTemplate()
	case errors.Is(err, booklet.ErrSchemaValidation):
		return hints.ForSchemaValidation()
	case errors.As(err, &se) && se.Forbidden():
		return hints.ForWordPressAuth()
	case errors.Is(err, booklet.ErrWritePDF) && strings.Contains(err.Error(), "directory"):
		return hints.ForOutputDirectory()
	}
	return ""
}
