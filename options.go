package booklet

import (
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-wpbooklet/internal/assets"
)

// Option configures a Builder.
type Option func(*Builder)

// WithWorkdir sets the directory holding content files, the identifier map
// and intermediate HTML. Default ".".
func WithWorkdir(dir string) Option {
	return func(b *Builder) { b.workdir = dir }
}

// WithOutputDir sets where PDFs are written. Defaults to the workdir.
func WithOutputDir(dir string) Option {
	return func(b *Builder) { b.outputDir = dir }
}

// WithContentSource replaces the workdir as the source of content files.
func WithContentSource(src ContentSource) Option {
	return func(b *Builder) { b.source = src }
}

// WithIdentifierMap uses ids instead of loading id-slug-map.json.
func WithIdentifierMap(ids *IdentifierMap) Option {
	return func(b *Builder) { b.ids = ids }
}

// WithRegistry replaces the built-in template registry.
func WithRegistry(r *Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithAssetPath adds a directory of styles, templates and schemas that
// take precedence over the embedded ones.
func WithAssetPath(path string) Option {
	return func(b *Builder) { b.assetPath = path }
}

// WithAssetLoader replaces asset loading entirely.
func WithAssetLoader(loader assets.AssetLoader) Option {
	return func(b *Builder) { b.assetLoader = loader }
}

// WithRenderer replaces the template renderer.
func WithRenderer(r Renderer) Option {
	return func(b *Builder) { b.renderer = r }
}

// WithStyle selects the stylesheet by name or .css file path.
func WithStyle(style string) Option {
	return func(b *Builder) { b.style = style }
}

// WithPage sets page size, orientation and margin.
func WithPage(p *PageSettings) Option {
	return func(b *Builder) { b.page = p }
}

// WithLang sets the document language.
func WithLang(lang string) Option {
	return func(b *Builder) { b.lang = lang }
}

// WithProducerConfig selects the PDF backend.
func WithProducerConfig(cfg ProducerConfig) Option {
	return func(b *Builder) { b.producerCfg = cfg }
}

// WithProducerFactory replaces producer construction, mostly for tests.
func WithProducerFactory(f ProducerFactory) Option {
	return func(b *Builder) { b.factory = f }
}

// WithConcurrency sets the number of batch workers and pooled producers.
// 0 keeps DefaultConcurrency; AutoConcurrency sizes from GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(b *Builder) { b.concurrency = n }
}

// WithSkipSchema disables schema validation.
func WithSkipSchema(skip bool) Option {
	return func(b *Builder) { b.skipSchema = skip }
}

// WithKeepHTML keeps per-task HTML files after batch builds.
func WithKeepHTML(keep bool) Option {
	return func(b *Builder) { b.keepHTML = keep }
}

// WithTimestampFormat sets the token format of the "updated" stamp.
func WithTimestampFormat(format string) Option {
	return func(b *Builder) { b.timestampFormat = format }
}

// WithMediaResolver resolves media references before rendering.
func WithMediaResolver(m MediaResolver) Option {
	return func(b *Builder) { b.media = m }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock replaces time.Now for build stamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithTimeout bounds each PDF production.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("booklet: WithTimeout duration must be positive")
	}
	return func(b *Builder) { b.producerCfg.Timeout = d }
}
