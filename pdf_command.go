package booklet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-wpbooklet/internal/fileutil"
	"github.com/alnah/go-wpbooklet/internal/process"
)

// DefaultPDFCommand renders with Vivliostyle. {html} and {pdf} are replaced
// by the input and output paths.
const DefaultPDFCommand = "vivliostyle build {html} -o {pdf} --no-sandbox"

// Command placeholders.
const (
	PlaceholderHTML = "{html}"
	PlaceholderPDF  = "{pdf}"
)

// stderrTail bounds how much tool output an error carries.
const stderrTail = 2048

// commandProducer runs an external tool per document. The tool runs in its
// own process group, killed when ctx ends.
type commandProducer struct {
	argv    []string
	timeout time.Duration
}

func newCommandProducer(command string, timeout time.Duration) (*commandProducer, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultPDFCommand
	}
	argv := strings.Fields(command)
	if !strings.Contains(command, PlaceholderHTML) || !strings.Contains(command, PlaceholderPDF) {
		return nil, fmt.Errorf("PDF command %q must contain %s and %s", command, PlaceholderHTML, PlaceholderPDF)
	}
	return &commandProducer{argv: argv, timeout: timeout}, nil
}

// args expands placeholders for one document.
func (p *commandProducer) args(htmlPath, pdfPath string) []string {
	r := strings.NewReplacer(PlaceholderHTML, htmlPath, PlaceholderPDF, pdfPath)
	out := make([]string, len(p.argv))
	for i, a := range p.argv {
		out[i] = r.Replace(a)
	}
	return out
}

func (p *commandProducer) Produce(ctx context.Context, htmlPath, pdfPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := p.args(htmlPath, pdfPath)
	// #nosec G204 -- the command comes from the operator's configuration
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	process.Detach(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			process.KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}
	cmd.WaitDelay = 5 * time.Second

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	// A stale output must not pass for a fresh one.
	_ = os.Remove(pdfPath)

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", p.timeout, err)
		}
		return &ExternalToolError{
			Tool:     args[0],
			ExitCode: exitCode,
			Stderr:   tail(output.String(), stderrTail),
			Err:      err,
		}
	}

	if !fileutil.FileExists(pdfPath) {
		return &ExternalToolError{
			Tool:     args[0],
			ExitCode: 0,
			Stderr:   tail(output.String(), stderrTail),
			Err:      fmt.Errorf("%w: %s was not created", ErrPDFGeneration, pdfPath),
		}
	}
	return nil
}

func (p *commandProducer) Close() error { return nil }

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n:]
}
