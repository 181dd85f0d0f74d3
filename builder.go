package booklet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-wpbooklet/internal/assets"
	"github.com/alnah/go-wpbooklet/internal/dateutil"
	"github.com/alnah/go-wpbooklet/internal/fileutil"
)

// DefaultHTMLFile is the intermediate document of a single build.
const DefaultHTMLFile = "index.html"

// Builder runs the pipeline: resolve, load, select, resolve media, stamp,
// validate, render, produce, alias. Create with NewBuilder and Close when
// done. Build is safe for concurrent use as long as each call writes a
// distinct HTML file (RunBatch takes care of that).
type Builder struct {
	workdir         string
	outputDir       string
	source          ContentSource
	ids             *IdentifierMap
	registry        *Registry
	assetPath       string
	assetLoader     assets.AssetLoader
	renderer        Renderer
	style           string
	page            *PageSettings
	lang            string
	producerCfg     ProducerConfig
	factory         ProducerFactory
	concurrency     int
	skipSchema      bool
	keepHTML        bool
	timestampFormat string
	media           MediaResolver
	logger          *zap.Logger
	now             func() time.Time

	resolver  *Resolver
	validator *Validator
	pool      *ProducerPool
}

// NewBuilder creates a Builder. The identifier map is read from the
// workdir unless WithIdentifierMap is given.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		workdir:         ".",
		concurrency:     DefaultConcurrency,
		timestampFormat: dateutil.DefaultTimestampFormat,
		logger:          zap.NewNop(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.outputDir == "" {
		b.outputDir = b.workdir
	}
	if b.source == nil {
		b.source = NewDirSource(b.workdir)
	}
	if _, err := dateutil.ParseDateFormat(b.timestampFormat); err != nil {
		return nil, err
	}

	if b.ids == nil {
		ids, err := LoadIdentifierMap(filepath.Join(b.workdir, IdentifierMapFile))
		if err != nil {
			return nil, err
		}
		if ids.Len() == 0 {
			b.logger.Debug("identifier map empty or missing", zap.String("workdir", b.workdir))
		}
		b.ids = ids
	}

	if b.registry == nil {
		b.registry = DefaultRegistry()
	}
	b.registry = b.registry.WithLogger(b.logger)

	if b.assetLoader == nil {
		resolver, err := assets.NewAssetResolver(b.assetPath)
		if err != nil {
			return nil, fmt.Errorf("asset path: %w", err)
		}
		b.assetLoader = resolver
	}

	if b.renderer == nil {
		opts, err := b.renderOptions()
		if err != nil {
			return nil, err
		}
		renderer, err := NewTemplateRenderer(b.assetLoader, opts)
		if err != nil {
			return nil, err
		}
		b.renderer = renderer
	}

	if !b.skipSchema {
		b.validator = NewValidator(b.assetLoader)
	}

	if b.factory == nil {
		// Fail fast on a bad backend or command before any build starts.
		if _, err := NewProducer(ProducerConfig{Backend: b.producerCfg.Backend, Command: b.producerCfg.Command}); err != nil {
			return nil, err
		}
		b.factory = NewProducerFactory(b.producerCfg)
	}

	b.concurrency = ResolvePoolSize(b.concurrency)
	b.pool = NewProducerPool(b.concurrency, b.factory)
	b.resolver = NewResolver(b.source, b.ids, b.logger)
	return b, nil
}

// renderOptions turns WithStyle into a stylesheet name or inline CSS read
// from a file path.
func (b *Builder) renderOptions() (RenderOptions, error) {
	opts := RenderOptions{Style: b.style, Page: b.page, Lang: b.lang}
	if fileutil.IsFilePath(b.style) {
		data, err := os.ReadFile(b.style) // #nosec G304 -- user-provided stylesheet
		if err != nil {
			return RenderOptions{}, fmt.Errorf("reading stylesheet: %w", err)
		}
		opts.Style = ""
		opts.ExtraCSS = string(data)
	}
	return opts, nil
}

// Close releases pooled browsers.
func (b *Builder) Close() error {
	return b.pool.Close()
}

// Resolver returns the identifier resolver the builder uses.
func (b *Builder) Resolver() *Resolver { return b.resolver }

// Registry returns the template registry the builder uses.
func (b *Builder) Registry() *Registry { return b.registry }

// Source returns the content source.
func (b *Builder) Source() ContentSource { return b.source }

// Concurrency returns the resolved worker count.
func (b *Builder) Concurrency() int { return b.concurrency }

// BuildRequest describes one booklet.
type BuildRequest struct {
	Identifier string // page id or slug
	Template   string // explicit template, "" to select automatically
	HTMLOnly   bool   // stop after writing the HTML

	// HTMLFile overrides the intermediate file name inside the workdir.
	HTMLFile string
	// RemoveHTML deletes the intermediate file after the PDF is produced.
	RemoveHTML bool
}

// BuildResult reports what a build produced.
type BuildResult struct {
	Identifier  string
	Slug        string
	ContentFile string
	Step        ResolveStep
	Template    string
	Reason      SelectReason
	HTMLPath    string // "" when removed
	PDFPath     string // "" for HTML-only builds
	AliasPath   string // "" when no alias was needed
	Duration    time.Duration
}

// Build runs the pipeline for one identifier. Errors are *BuildError.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (result *BuildResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &BuildError{Identifier: req.Identifier, Stage: "internal", Err: fmt.Errorf("internal error: %v", r)}
		}
	}()

	start := b.now()
	res, err := b.resolver.Resolve(req.Identifier)
	if err != nil {
		return nil, &BuildError{Identifier: req.Identifier, Stage: StageResolve, Err: err}
	}
	return b.buildResolved(ctx, req, res, start)
}

func (b *Builder) buildResolved(ctx context.Context, req BuildRequest, res Resolution, start time.Time) (*BuildResult, error) {
	fail := func(stage, tmpl string, err error) (*BuildResult, error) {
		return nil, &BuildError{Identifier: res.Identifier, Stage: stage, Template: tmpl, Err: err}
	}
	log := b.logger.With(zap.String("identifier", res.Identifier), zap.String("slug", res.CanonicalSlug))

	record, err := b.source.Load(res.ContentFile)
	if err != nil {
		return fail(StageLoad, "", err)
	}

	sel, err := b.registry.Select(record, req.Template)
	if err != nil {
		return fail(StageSelect, "", err)
	}
	log = log.With(zap.String("template", sel.Type))
	log.Debug("template selected",
		zap.String("content", res.ContentFile),
		zap.String("reason", string(sel.Reason)))

	if b.media != nil && pendingMedia(sel.Context) > 0 {
		for _, f := range resolveMedia(ctx, sel.Context, b.media) {
			log.Warn("media not resolved, using placeholder",
				zap.String("field", f.Field), zap.Int64("media_id", f.ID), zap.Error(f.Err))
		}
	}
	if err := ctx.Err(); err != nil {
		return fail(StageMedia, sel.Type, err)
	}

	updated := UpdatedStamp(record, b.timestampFormat)
	if updated == "" {
		updated = formatStamp(b.now(), b.timestampFormat)
	}
	sel.Context["updated"] = updated

	if b.validator != nil {
		if err := b.validator.Validate(sel.Type, sel.Context); err != nil {
			return fail(StageValidate, sel.Type, err)
		}
	}

	html, err := b.renderer.Render(ctx, sel.Type, sel.Context)
	if err != nil {
		return fail(StageRender, sel.Type, err)
	}

	htmlFile := req.HTMLFile
	if htmlFile == "" {
		htmlFile = DefaultHTMLFile
	}
	htmlPath := filepath.Join(b.workdir, htmlFile)
	if err := fileutil.WriteFileAtomic(htmlPath, []byte(html), 0o644); err != nil {
		return fail(StageRender, sel.Type, err)
	}

	result := &BuildResult{
		Identifier:  res.Identifier,
		Slug:        res.CanonicalSlug,
		ContentFile: res.ContentFile,
		Step:        res.Step,
		Template:    sel.Type,
		Reason:      sel.Reason,
		HTMLPath:    htmlPath,
	}
	if req.HTMLOnly {
		result.Duration = b.now().Sub(start)
		return result, nil
	}

	if req.RemoveHTML {
		defer func() {
			_ = os.Remove(htmlPath)
			result.HTMLPath = ""
		}()
	}

	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return fail(StageProduce, sel.Type, fmt.Errorf("%w: %v", ErrWritePDF, err))
	}
	pdfPath := filepath.Join(b.outputDir, res.ArtifactName())
	if err := b.produce(ctx, htmlPath, pdfPath); err != nil {
		return fail(StageProduce, sel.Type, err)
	}
	result.PDFPath = pdfPath

	if res.NeedsAlias() {
		aliasPath := filepath.Join(b.outputDir, res.AliasName())
		if err := fileutil.CopyFile(pdfPath, aliasPath); err != nil {
			return fail(StageAlias, sel.Type, err)
		}
		result.AliasPath = aliasPath
	}

	result.Duration = b.now().Sub(start)
	log.Info("booklet built", zap.String("pdf", pdfPath), zap.Duration("duration", result.Duration))
	return result, nil
}

// produce runs a pooled producer. Failures other than cancellation are
// reported as ErrExternalTool.
func (b *Builder) produce(ctx context.Context, htmlPath, pdfPath string) error {
	prod, err := b.pool.Acquire()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExternalTool, err)
	}
	defer b.pool.Release(prod)

	err = prod.Produce(ctx, htmlPath, pdfPath)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrExternalTool):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrExternalTool, err)
	}
}
