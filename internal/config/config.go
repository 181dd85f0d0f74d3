// Package config loads the optional YAML configuration for booklet builds.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alnah/go-wpbooklet/internal/fileutil"
	"github.com/alnah/go-wpbooklet/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxURLLength      = 2048
	MaxTemplateLength = 64
	MaxFormatLength   = 50
	MaxCommandLength  = 1024
	MaxIDsLength      = 200
)

// userConfigDirName is the directory under os.UserConfigDir searched for configs.
const userConfigDirName = "wp-booklet"

// Backends accepted by pdf.backend.
var Backends = []string{"rod", "chromedp", "command"}

// PageSizes accepted by page.size.
var PageSizes = []string{"a3", "a4", "a5", "b5", "letter", "legal"}

var marginPattern = regexp.MustCompile(`^\d+(\.\d+)?(mm|cm|in|px|pt)$`)

// Config holds all configuration for fetching and building booklets.
type Config struct {
	Content   ContentConfig   `yaml:"content"`
	Build     BuildConfig     `yaml:"build"`
	Assets    AssetsConfig    `yaml:"assets"`
	Page      PageConfig      `yaml:"page"`
	PDF       PDFConfig       `yaml:"pdf"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Log       LogConfig       `yaml:"log"`
}

// ContentConfig locates content files and generated output.
type ContentConfig struct {
	Workdir   string `yaml:"workdir"`   // content-*.json, id-slug-map.json (default ".")
	OutputDir string `yaml:"outputDir"` // booklet-*.pdf (default: workdir)
}

// BuildConfig tunes template selection and batch execution.
type BuildConfig struct {
	Template        string `yaml:"template"`        // explicit template type, empty = detect
	SkipSchema      bool   `yaml:"skipSchema"`      // disable schema validation
	Concurrency     int    `yaml:"concurrency"`     // batch workers (0 = 2, -1 = auto)
	TimestampFormat string `yaml:"timestampFormat"` // dateutil tokens (default "YYYY-MM-DD HH:mm:ss")
	Lang            string `yaml:"lang"`            // html lang attribute (default "ja")
	KeepHTML        bool   `yaml:"keepHTML"`        // keep index.html after producing the PDF
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
	Style    string `yaml:"style"`    // stylesheet name (default "booklet")
}

// PageConfig defines the printed page. Empty values keep the defaults
// (A4 landscape, 14mm margin).
type PageConfig struct {
	Size        string `yaml:"size"`
	Orientation string `yaml:"orientation"`
	Margin      string `yaml:"margin"` // CSS length, e.g. "12mm"
}

// PDFConfig selects the PDF backend.
type PDFConfig struct {
	Backend string `yaml:"backend"` // rod (default), chromedp, command
	Command string `yaml:"command"` // command template for the command backend
	Timeout string `yaml:"timeout"` // Go duration, e.g. "90s"
}

// WordPressConfig configures the content fetcher. Credentials are read
// from the environment only.
type WordPressConfig struct {
	URL        string `yaml:"url"`
	IDs        string `yaml:"ids"` // comma-separated page ids
	AllowDummy bool   `yaml:"allowDummy"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate checks field lengths and enumerated values.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"content.workdir", c.Content.Workdir, MaxPathLength},
		{"content.outputDir", c.Content.OutputDir, MaxPathLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"build.template", c.Build.Template, MaxTemplateLength},
		{"build.timestampFormat", c.Build.TimestampFormat, MaxFormatLength},
		{"pdf.command", c.PDF.Command, MaxCommandLength},
		{"wordpress.url", c.WordPress.URL, MaxURLLength},
		{"wordpress.ids", c.WordPress.IDs, MaxIDsLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	err := validation.Errors{
		"build": validation.ValidateStruct(&c.Build,
			validation.Field(&c.Build.Concurrency, validation.Min(-1), validation.Max(16)),
		),
		"page": validation.ValidateStruct(&c.Page,
			validation.Field(&c.Page.Size, validation.By(oneOf(PageSizes))),
			validation.Field(&c.Page.Orientation, validation.By(oneOf([]string{"portrait", "landscape"}))),
			validation.Field(&c.Page.Margin, validation.Match(marginPattern).Error("must be a CSS length such as 12mm")),
		),
		"pdf": validation.ValidateStruct(&c.PDF,
			validation.Field(&c.PDF.Backend, validation.By(oneOf(Backends))),
			validation.Field(&c.PDF.Command, validation.When(c.PDF.Backend == "command",
				validation.By(commandPlaceholders))),
		),
		"wordpress": validation.ValidateStruct(&c.WordPress,
			validation.Field(&c.WordPress.URL, validation.By(httpURL)),
		),
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.By(oneOf([]string{"debug", "info", "warn", "error"}))),
		),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// oneOf matches case-insensitively; empty values are left to defaults.
func oneOf(allowed []string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		for _, a := range allowed {
			if strings.EqualFold(s, a) {
				return nil
			}
		}
		return validation.NewError("config.one_of", "must be one of "+strings.Join(allowed, ", "))
	}
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return validation.NewError("config.url", "must be an http(s) URL")
	}
	return nil
}

func commandPlaceholders(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !strings.Contains(s, "{html}") || !strings.Contains(s, "{pdf}") {
		return validation.NewError("config.command", "must contain {html} and {pdf} placeholders")
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration where every value falls back to
// the builder defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's searched in the current directory then ~/.config/wp-booklet/.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists where a config name is looked up, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, userConfigDirName, name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
