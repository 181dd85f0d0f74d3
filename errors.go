package booklet

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	// ErrContentNotFound: no content file resolved, default content.json included.
	ErrContentNotFound = errors.New("content not found")

	// ErrUnknownTemplate: an explicitly requested template type is not registered.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrSchemaValidation: a normalized context failed its template schema.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrExternalTool: the browser or external PDF command failed.
	ErrExternalTool = errors.New("external tool failed")

	ErrEmptyIdentifier      = errors.New("identifier cannot be empty")
	ErrInvalidIdentifier    = errors.New("invalid identifier")
	ErrInvalidIdentifierMap = errors.New("invalid identifier map")
	ErrInvalidRecord        = errors.New("invalid content record")
	ErrInvalidSchema        = errors.New("invalid template schema")
	ErrRender               = errors.New("HTML rendering failed")
	ErrDuplicateTemplate    = errors.New("duplicate template")
	ErrNoFallbackTemplate   = errors.New("fallback template not registered")
	ErrInvalidDescriptor    = errors.New("invalid template descriptor")

	// Producer errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrWritePDF       = errors.New("failed to write PDF")
	ErrInvalidBackend = errors.New("invalid PDF backend")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)

// Violation is one failed schema constraint.
type Violation struct {
	Field   string // JSON pointer into the context, or the top-level key
	Message string
}

// SchemaValidationError carries every violated constraint for a template.
type SchemaValidationError struct {
	Template   string
	Violations []Violation
}

func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema error (%s):", e.Template)
	for _, v := range e.Violations {
		b.WriteString("\n - ")
		if v.Field != "" {
			b.WriteString(v.Field)
			b.WriteString(": ")
		}
		b.WriteString(v.Message)
	}
	return b.String()
}

func (e *SchemaValidationError) Unwrap() error { return ErrSchemaValidation }

// ExternalToolError reports a PDF command that exited unsuccessfully.
type ExternalToolError struct {
	Tool     string
	ExitCode int    // -1 when the process never started or was killed
	Stderr   string // trailing output, trimmed
	Err      error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *ExternalToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalTool}
	}
	return []error{ErrExternalTool, e.Err}
}

// Build stages reported by BuildError.
const (
	StageResolve  = "resolve"
	StageLoad     = "load"
	StageSelect   = "select"
	StageMedia    = "media"
	StageValidate = "validate"
	StageRender   = "render"
	StageProduce  = "produce"
	StageAlias    = "alias"
)

// BuildError ties a failure to the identifier and pipeline stage it came from.
type BuildError struct {
	Identifier string
	Stage      string
	Template   string // empty before selection
	Err        error
}

func (e *BuildError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("%s [%s, %s]: %v", e.Identifier, e.Stage, e.Template, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Identifier, e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
