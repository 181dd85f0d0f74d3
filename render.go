package booklet

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/alnah/go-wpbooklet/internal/assets"
	"github.com/alnah/go-wpbooklet/internal/pipeline"
)

// DefaultLang is the document language of rendered booklets.
const DefaultLang = "ja"

// untitled is shown when a record has no title.
const untitled = "Untitled"

// Renderer turns a prepared context into a standalone HTML document.
type Renderer interface {
	Render(ctx context.Context, templateType string, c Context) (string, error)
}

// RenderOptions configures a TemplateRenderer.
type RenderOptions struct {
	Style    string        // stylesheet name, or a .css path for the asset resolver
	ExtraCSS string        // appended after the stylesheet
	Page     *PageSettings // nil uses DefaultPageSettings
	Lang     string        // html lang attribute, default "ja"
}

// TemplateRenderer renders templates loaded through an asset loader. The
// stylesheet is assembled once, when the renderer is created.
// Safe for concurrent use.
type TemplateRenderer struct {
	loader   assets.AssetLoader
	richText *pipeline.RichText
	css      string
	lang     string

	mu        sync.Mutex
	templates map[string]*template.Template
}

// Compile-time interface check.
var _ Renderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer loads the stylesheet and builds the page CSS.
func NewTemplateRenderer(loader assets.AssetLoader, opts RenderOptions) (*TemplateRenderer, error) {
	page := opts.Page
	if page == nil {
		page = DefaultPageSettings()
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	styleName := opts.Style
	if styleName == "" {
		styleName = assets.DefaultStyleName
	}
	style, err := loader.LoadStyle(styleName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	lang := opts.Lang
	if lang == "" {
		lang = DefaultLang
	}

	return &TemplateRenderer{
		loader:    loader,
		richText:  pipeline.NewRichText(),
		css:       pipeline.JoinCSS(pipeline.PageCSS(page.Size, page.Orientation, page.Margin), style, opts.ExtraCSS),
		lang:      lang,
		templates: make(map[string]*template.Template),
	}, nil
}

// CSS returns the stylesheet injected into every document.
func (r *TemplateRenderer) CSS() string { return r.css }

// pageData is what the layout template sees.
type pageData struct {
	Lang    string
	Title   string
	Type    string
	Updated string
	Context Context
}

// Render executes the layout with the template's body and injects the CSS.
func (r *TemplateRenderer) Render(ctx context.Context, templateType string, c Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpl, err := r.template(templateType)
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(textOf(c["title"]))
	if title == "" {
		title = untitled
	}
	data := pageData{
		Lang:    r.lang,
		Title:   title,
		Type:    templateType,
		Updated: textOf(c["updated"]),
		Context: c,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, assets.LayoutTemplateName, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRender, templateType, err)
	}
	return pipeline.InjectCSS(buf.String(), r.css), nil
}

// template parses layout plus the type's body once and caches the result.
func (r *TemplateRenderer) template(templateType string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.templates[templateType]; ok {
		return t, nil
	}

	layout, err := r.loader.LoadTemplate(assets.LayoutTemplateName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	body, err := r.loader.LoadTemplate(templateType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, templateType, err)
	}

	t, err := template.New(templateType).
		Funcs(template.FuncMap{"richtext": r.richText.Convert}).
		Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("%w: layout: %v", ErrRender, err)
	}
	if _, err := t.Parse(body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, templateType, err)
	}

	r.templates[templateType] = t
	return t, nil
}
