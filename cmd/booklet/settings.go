package main

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	booklet "github.com/alnah/go-wpbooklet"
	"github.com/alnah/go-wpbooklet/internal/config"
	"github.com/alnah/go-wpbooklet/internal/hints"
	"github.com/alnah/go-wpbooklet/internal/logging"
	"github.com/alnah/go-wpbooklet/internal/wordpress"
)

// session is what every command starts from: merged configuration,
// environment overrides and a logger.
type session struct {
	cfg    *config.Config
	env    *envConfig
	logger *zap.Logger
}

// newSession loads configuration with priority
// CLI flags > environment > config file > defaults.
func newSession(common commonFlags, env *Environment) (*session, error) {
	envCfg := loadEnvConfig(env.Getenv)

	cfg := config.DefaultConfig()
	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	if common.workdir != "" {
		cfg.Content.Workdir = common.workdir
	}
	if common.outputDir != "" {
		cfg.Content.OutputDir = common.outputDir
	}

	level := cfg.Log.Level
	switch {
	case common.verbose:
		level = "debug"
	case common.quiet:
		level = "error"
	}
	logger, err := logging.New(env.Stderr, logging.Options{Level: level, JSON: common.logJSON})
	if err != nil {
		return nil, err
	}

	warnUnknownEnvVars(logger, env.Environ())
	for _, v := range envCfg.Invalid {
		logger.Warn("ignoring invalid environment value", zap.String("value", v))
	}

	return &session{cfg: cfg, env: envCfg, logger: logger}, nil
}

// workdir returns the content directory, "." by default.
func (s *session) workdir() string {
	if s.cfg.Content.Workdir == "" {
		return "."
	}
	return s.cfg.Content.Workdir
}

// mergeBuildFlags merges CLI flags into config. CLI values override config values.
func mergeBuildFlags(f *buildFlags, cfg *config.Config) {
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setIf(&cfg.Build.Template, f.render.template)
	setIf(&cfg.Build.Lang, f.render.lang)
	setIf(&cfg.Build.TimestampFormat, f.render.timestampFormat)
	setIf(&cfg.Assets.Style, f.render.style)
	setIf(&cfg.Assets.BasePath, f.render.assetPath)
	setIf(&cfg.Page.Size, f.page.size)
	setIf(&cfg.Page.Orientation, f.page.orientation)
	setIf(&cfg.Page.Margin, f.page.margin)
	setIf(&cfg.PDF.Backend, f.pdf.backend)
	setIf(&cfg.PDF.Command, f.pdf.command)
	setIf(&cfg.PDF.Timeout, f.pdf.timeout)
	if f.render.skipSchema {
		cfg.Build.SkipSchema = true
	}
}

// buildPageSettings starts from A4 landscape and applies configured values.
func buildPageSettings(cfg *config.Config) *booklet.PageSettings {
	page := booklet.DefaultPageSettings()
	if cfg.Page.Size != "" {
		page.Size = cfg.Page.Size
	}
	if cfg.Page.Orientation != "" {
		page.Orientation = cfg.Page.Orientation
	}
	if cfg.Page.Margin != "" {
		page.Margin = cfg.Page.Margin
	}
	return page
}

// parseTimeout reads a positive Go duration. Empty means the default.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: invalid timeout %q (use e.g. 30s, 2m)", ErrUsage, s)
	}
	return d, nil
}

// builderOptions turns the merged configuration into Builder options.
func (s *session) builderOptions(env *Environment, noMedia bool) ([]booklet.Option, error) {
	cfg := s.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout, err := parseTimeout(cfg.PDF.Timeout)
	if err != nil {
		return nil, err
	}

	opts := []booklet.Option{
		booklet.WithWorkdir(s.workdir()),
		booklet.WithOutputDir(cfg.Content.OutputDir),
		booklet.WithAssetPath(cfg.Assets.BasePath),
		booklet.WithStyle(cfg.Assets.Style),
		booklet.WithPage(buildPageSettings(cfg)),
		booklet.WithLang(cfg.Build.Lang),
		booklet.WithSkipSchema(cfg.Build.SkipSchema),
		booklet.WithConcurrency(cfg.Build.Concurrency),
		booklet.WithKeepHTML(cfg.Build.KeepHTML),
		booklet.WithProducerConfig(booklet.ProducerConfig{
			Backend: cfg.PDF.Backend,
			Command: cfg.PDF.Command,
		}),
		booklet.WithLogger(s.logger),
		booklet.WithClock(env.Now),
	}
	if cfg.Build.TimestampFormat != "" {
		opts = append(opts, booklet.WithTimestampFormat(cfg.Build.TimestampFormat))
	}
	if timeout > 0 {
		opts = append(opts, booklet.WithTimeout(timeout))
	}

	if cfg.WordPress.URL != "" && !noMedia {
		client, err := s.wordpressClient(env)
		if err != nil {
			return nil, err
		}
		opts = append(opts, booklet.WithMediaResolver(client))
	}
	return opts, nil
}

// wordpressClient builds a REST client from the configured URL and the
// WP_* credentials.
func (s *session) wordpressClient(env *Environment) (*wordpress.Client, error) {
	return wordpress.NewClient(s.cfg.WordPress.URL,
		wordpress.WithCredentials(wordpress.CredentialsFromEnv(env.Getenv)),
		wordpress.WithLogger(s.logger.Named("wordpress")),
		wordpress.WithUserAgent("wp-booklet/"+Version),
	)
}
