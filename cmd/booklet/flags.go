package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	booklet "github.com/alnah/go-wpbooklet"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	workdir   string
	outputDir string
	quiet     bool
	verbose   bool
	logJSON   bool
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      string
}

// pdfFlags selects and bounds the PDF backend.
type pdfFlags struct {
	backend string
	command string
	timeout string
}

// renderFlags holds template and asset flags.
type renderFlags struct {
	template        string
	skipSchema      bool
	style           string
	assetPath       string
	lang            string
	timestampFormat string
	noMedia         bool
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common   commonFlags
	page     pageFlags
	pdf      pdfFlags
	render   renderFlags
	htmlOnly bool
}

// batchFlags holds all flags for the batch command.
type batchFlags struct {
	buildFlags
	concurrency int
	keepHTML    bool
}

// fetchFlags holds all flags for the fetch command.
type fetchFlags struct {
	common     commonFlags
	url        string
	allowDummy bool
}

// templatesFlags holds flags for the templates command.
type templatesFlags struct {
	yaml bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.workdir, "workdir", "d", "", "directory holding content files (default .)")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for PDFs (default: workdir)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
	fs.BoolVar(&f.logJSON, "log-json", false, "log as JSON lines")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a3, a4, a5, b5, letter, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.StringVar(&f.margin, "margin", "", "page margin as a CSS length (e.g. 14mm)")
}

// addPDFFlags adds PDF backend flags to a FlagSet.
func addPDFFlags(fs *flag.FlagSet, f *pdfFlags) {
	fs.StringVar(&f.backend, "backend", "", "PDF backend: rod, chromedp, command")
	fs.StringVar(&f.command, "pdf-command", "", "command for the command backend ({html} and {pdf} placeholders)")
	fs.StringVar(&f.timeout, "timeout", "", "PDF generation timeout (e.g., 30s, 2m)")
}

// addRenderFlags adds template and asset flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.template, "template", "t", "", "template type (default: detect from content)")
	fs.BoolVar(&f.skipSchema, "skip-schema", false, "skip schema validation")
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.lang, "lang", "", "document language (default ja)")
	fs.StringVar(&f.timestampFormat, "timestamp-format", "", "format of the updated stamp (default YYYY-MM-DD HH:mm:ss)")
	fs.BoolVar(&f.noMedia, "no-media", false, "do not resolve WordPress media ids")
}

func registerBuildFlags(fs *flag.FlagSet, f *buildFlags) {
	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	addPDFFlags(fs, &f.pdf)
	addRenderFlags(fs, &f.render)
	fs.BoolVar(&f.htmlOnly, "html-only", false, "write index.html only, skip PDF")
}

func registerBatchFlags(fs *flag.FlagSet, f *batchFlags) {
	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	addPDFFlags(fs, &f.pdf)
	addRenderFlags(fs, &f.render)
	fs.IntVarP(&f.concurrency, "concurrency", "j", 0, "parallel workers (0 = CONCURRENCY or 2, -1 = auto)")
	fs.BoolVar(&f.keepHTML, "keep-html", false, "keep per-task HTML files")
}

func registerFetchFlags(fs *flag.FlagSet, f *fetchFlags) {
	addCommonFlags(fs, &f.common)
	fs.StringVar(&f.url, "url", "", "WordPress site URL (default WP_URL)")
	fs.BoolVar(&f.allowDummy, "allow-dummy", false, "write a demo page when nothing can be fetched")
}

func registerTemplatesFlags(fs *flag.FlagSet, f *templatesFlags) {
	fs.BoolVar(&f.yaml, "yaml", false, "print as YAML")
}

// newFlagSet creates a FlagSet whose usage goes to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string, w io.Writer) (*buildFlags, []string, error) {
	fs := newFlagSet("build", w, printBuildUsage)
	f := &buildFlags{}
	registerBuildFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseBatchFlags parses batch command flags and returns positional args.
func parseBatchFlags(args []string, w io.Writer) (*batchFlags, []string, error) {
	fs := newFlagSet("batch", w, printBatchUsage)
	f := &batchFlags{}
	registerBatchFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	if f.concurrency < booklet.AutoConcurrency {
		return nil, nil, fmt.Errorf("%w: --concurrency must be >= -1, got %d", ErrUsage, f.concurrency)
	}
	return f, fs.Args(), nil
}

// parseFetchFlags parses fetch command flags and returns positional args.
func parseFetchFlags(args []string, w io.Writer) (*fetchFlags, []string, error) {
	fs := newFlagSet("fetch", w, printFetchUsage)
	f := &fetchFlags{}
	registerFetchFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseTemplatesFlags parses templates command flags.
func parseTemplatesFlags(args []string, w io.Writer) (*templatesFlags, error) {
	fs := newFlagSet("templates", w, printTemplatesUsage)
	f := &templatesFlags{}
	registerTemplatesFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: templates takes no arguments", ErrUsage)
	}
	return f, nil
}

// usageError tags flag parsing errors so they map to ExitUsage.
// --help passes through untouched.
func usageError(err error) error {
	if err == flag.ErrHelp {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}
