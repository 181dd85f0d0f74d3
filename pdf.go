package booklet

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-wpbooklet/internal/fileutil"
	"github.com/alnah/go-wpbooklet/internal/process"
)

// Producer converts a rendered HTML file into a PDF file.
// A Producer is used by one goroutine at a time; share through ProducerPool.
type Producer interface {
	Produce(ctx context.Context, htmlPath, pdfPath string) error
	Close() error
}

// PDF backends.
const (
	BackendRod      = "rod"
	BackendChromedp = "chromedp"
	BackendCommand  = "command"
)

// DefaultProduceTimeout bounds a page load when ctx has no deadline.
const DefaultProduceTimeout = 60 * time.Second

// Compile-time interface checks.
var (
	_ Producer = (*rodProducer)(nil)
	_ Producer = (*chromedpProducer)(nil)
	_ Producer = (*commandProducer)(nil)
)

// ProducerConfig selects and configures a backend.
type ProducerConfig struct {
	Backend string        // rod (default), chromedp or command
	Command string        // command template for BackendCommand
	Timeout time.Duration // page load bound, default DefaultProduceTimeout
}

// NewProducer returns a producer for cfg.Backend. Browsers start lazily on
// the first Produce.
func NewProducer(cfg ProducerConfig) (Producer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProduceTimeout
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendRod:
		return newRodProducer(timeout), nil
	case BackendChromedp:
		return newChromedpProducer(timeout), nil
	case BackendCommand:
		return newCommandProducer(cfg.Command, timeout)
	default:
		return nil, fmt.Errorf("%w: %q (want %s, %s or %s)",
			ErrInvalidBackend, cfg.Backend, BackendRod, BackendChromedp, BackendCommand)
	}
}

// ProducerFactory creates producers for a pool.
type ProducerFactory func() (Producer, error)

// NewProducerFactory returns a factory building producers from cfg.
func NewProducerFactory(cfg ProducerConfig) ProducerFactory {
	return func() (Producer, error) { return NewProducer(cfg) }
}

// noSandbox reports whether Chrome must run without its sandbox: in CI,
// when asked explicitly, or with a pre-installed binary in a container.
func noSandbox(customBin string) bool {
	return os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || customBin != ""
}

// fileURL returns the file:// URL of path.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// loadTimeout is the smaller of fallback and the time left before ctx's
// deadline.
func loadTimeout(ctx context.Context, fallback time.Duration) (time.Duration, error) {
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if left < fallback {
			return left, nil
		}
	}
	return fallback, nil
}

// writePDF stores data at path, refusing empty output.
func writePDF(path string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty output", ErrPDFGeneration)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWritePDF, err)
	}
	return nil
}

// rodProducer prints pages with headless Chrome via go-rod.
// Rod downloads Chromium on first run if none is found.
type rodProducer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

func newRodProducer(timeout time.Duration) *rodProducer {
	return &rodProducer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (p *rodProducer) ensureBrowser() error {
	if p.browser != nil {
		return nil
	}

	l := launcher.New()

	// Pre-installed browser (Docker/containerized environments)
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}
	if noSandbox(bin) {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	p.launcher, p.browser = l, browser
	return nil
}

func (p *rodProducer) Produce(ctx context.Context, htmlPath, pdfPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.ensureBrowser(); err != nil {
		return err
	}

	url, err := fileURL(htmlPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	page, err := p.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout, err := loadTimeout(ctx, p.timeout)
	if err != nil {
		return err
	}
	page = page.Context(ctx)
	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	// Page size and margins come from the document's @page rule.
	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return writePDF(pdfPath, data)
}

// Close releases browser resources and reaps the browser's process group.
func (p *rodProducer) Close() error {
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	if pid := p.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	p.launcher.Kill()
	p.browser, p.launcher = nil, nil
	return err
}
