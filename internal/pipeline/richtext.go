package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrRichText indicates a body field could not be converted to HTML.
var ErrRichText = errors.New("rich text conversion failed")

// RichText converts Markdown body fields (as stored by the fetcher, or
// typed by hand in content files) to HTML fragments.
// Safe for concurrent use.
type RichText struct {
	md goldmark.Markdown
}

// NewRichText creates a RichText converter with GFM and code highlighting.
// Single newlines become <br>, matching how editors type captions and bios.
func NewRichText() *RichText {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			// Raw HTML stays escaped: WithUnsafe is not set.
		),
	)
	return &RichText{md: md}
}

// Convert renders source as an HTML fragment. Blank input yields "".
func (r *RichText) Convert(source string) (template.HTML, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRichText, err)
	}

	// #nosec G203 -- goldmark output with raw HTML disabled
	return template.HTML(buf.String()), nil
}
