package booklet

import (
	"errors"
	"strings"
	"testing"
)

func TestSchemaValidationError(t *testing.T) {
	t.Parallel()

	err := &SchemaValidationError{
		Template: "peoplelist",
		Violations: []Violation{
			{Field: "members", Message: "minItems: got 0, want 1"},
			{Message: "root problem"},
		},
	}

	want := "schema error (peoplelist):\n - members: minItems: got 0, want 1\n - root problem"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrSchemaValidation) {
		t.Error("should match ErrSchemaValidation")
	}
}

func TestExternalToolError(t *testing.T) {
	t.Parallel()

	cause := errors.New("signal: killed")
	err := &ExternalToolError{Tool: "vivliostyle", ExitCode: -1, Stderr: "oops", Err: cause}

	if !errors.Is(err, ErrExternalTool) || !errors.Is(err, cause) {
		t.Error("should match ErrExternalTool and its cause")
	}
	if got := err.Error(); got != "vivliostyle failed: signal: killed\noops" {
		t.Errorf("Error() = %q", got)
	}

	withCode := &ExternalToolError{Tool: "x", ExitCode: 2}
	if !strings.Contains(withCode.Error(), "(exit 2)") {
		t.Errorf("Error() = %q, want exit code", withCode.Error())
	}
}

func TestBuildError(t *testing.T) {
	t.Parallel()

	err := &BuildError{Identifier: "42", Stage: StageValidate, Template: "timeline", Err: ErrSchemaValidation}
	if got := err.Error(); got != "42 [validate, timeline]: schema validation failed" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrSchemaValidation) {
		t.Error("should unwrap to its cause")
	}

	early := &BuildError{Identifier: "x", Stage: StageResolve, Err: ErrContentNotFound}
	if got := early.Error(); got != "x [resolve]: content not found" {
		t.Errorf("Error() = %q", got)
	}
}
