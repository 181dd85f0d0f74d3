package main

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	booklet "github.com/alnah/go-wpbooklet"
	"github.com/alnah/go-wpbooklet/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Identity of the page to build
	Slug         string // SLUG: wins over PAGE_ID
	PageID       string // PAGE_ID
	TemplateType string // TEMPLATE_TYPE: explicit template

	// Build
	ConfigPath  string // BOOKLET_CONFIG: config file name or path
	Workdir     string // BOOKLET_WORKDIR
	OutputDir   string // BOOKLET_OUTPUT_DIR
	Style       string // BOOKLET_STYLE
	LogLevel    string // BOOKLET_LOG_LEVEL
	Timeout     string // BOOKLET_TIMEOUT: PDF generation timeout
	SkipSchema  *bool  // SKIP_SCHEMA
	Concurrency int    // CONCURRENCY

	// PDF
	PageSize string // PDF_PAGE_SIZE
	Margin   string // PDF_MARGIN
	Backend  string // PDF_BACKEND
	Command  string // PDF_COMMAND

	// WordPress
	WPURL      string // WP_URL
	PageIDs    string // PAGE_IDS: comma-separated ids for fetch
	AllowDummy *bool  // ALLOW_DUMMY

	// Invalid lists variables whose values were ignored.
	Invalid []string
}

// knownEnvVars lists valid BOOKLET_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"BOOKLET_CONFIG":     true,
	"BOOKLET_WORKDIR":    true,
	"BOOKLET_OUTPUT_DIR": true,
	"BOOKLET_STYLE":      true,
	"BOOKLET_LOG_LEVEL":  true,
	"BOOKLET_TIMEOUT":    true,
	"BOOKLET_CONTAINER":  true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) *envConfig {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := &envConfig{
		Slug:         get("SLUG"),
		PageID:       get("PAGE_ID"),
		TemplateType: get("TEMPLATE_TYPE"),
		ConfigPath:   get("BOOKLET_CONFIG"),
		Workdir:      get("BOOKLET_WORKDIR"),
		OutputDir:    get("BOOKLET_OUTPUT_DIR"),
		Style:        get("BOOKLET_STYLE"),
		LogLevel:     get("BOOKLET_LOG_LEVEL"),
		Timeout:      get("BOOKLET_TIMEOUT"),
		PageSize:     get("PDF_PAGE_SIZE"),
		Margin:       get("PDF_MARGIN"),
		Backend:      get("PDF_BACKEND"),
		Command:      get("PDF_COMMAND"),
		WPURL:        get("WP_URL"),
		PageIDs:      get("PAGE_IDS"),
		SkipSchema:   parseTruthy(get("SKIP_SCHEMA")),
		AllowDummy:   parseTruthy(get("ALLOW_DUMMY")),
	}

	if v := get("CONCURRENCY"); v != "" {
		if strings.EqualFold(v, "auto") {
			cfg.Concurrency = booklet.AutoConcurrency
		} else if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		} else {
			cfg.Invalid = append(cfg.Invalid, "CONCURRENCY="+v)
		}
	}
	return cfg
}

// Identifier returns SLUG, else PAGE_ID.
func (e *envConfig) Identifier() string {
	if e.Slug != "" {
		return e.Slug
	}
	return e.PageID
}

// parseTruthy maps 1/true/yes to true and 0/false/no to false.
// Empty or anything else is nil (unset).
func parseTruthy(v string) *bool {
	var b bool
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		b = true
	case "0", "false", "no", "off":
		b = false
	default:
		return nil
	}
	return &b
}

// warnUnknownEnvVars logs warnings for unrecognized BOOKLET_* variables.
// Helps catch typos like BOOKLET_WORKDIRS instead of BOOKLET_WORKDIR.
func warnUnknownEnvVars(logger *zap.Logger, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "BOOKLET_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				logger.Warn("unknown environment variable (typo?)", zap.String("name", name))
			}
		}
	}
}

// applyEnvConfig applies set environment variables over config values.
// Priority: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setIf(&cfg.Content.Workdir, env.Workdir)
	setIf(&cfg.Content.OutputDir, env.OutputDir)
	setIf(&cfg.Assets.Style, env.Style)
	setIf(&cfg.Log.Level, env.LogLevel)
	setIf(&cfg.Build.Template, env.TemplateType)
	setIf(&cfg.PDF.Timeout, env.Timeout)
	setIf(&cfg.Page.Size, env.PageSize)
	setIf(&cfg.Page.Margin, env.Margin)
	setIf(&cfg.PDF.Backend, env.Backend)
	setIf(&cfg.PDF.Command, env.Command)
	setIf(&cfg.WordPress.URL, env.WPURL)
	setIf(&cfg.WordPress.IDs, env.PageIDs)

	if env.SkipSchema != nil {
		cfg.Build.SkipSchema = *env.SkipSchema
	}
	if env.AllowDummy != nil {
		cfg.WordPress.AllowDummy = *env.AllowDummy
	}
	if env.Concurrency != 0 {
		cfg.Build.Concurrency = env.Concurrency
	}
}
