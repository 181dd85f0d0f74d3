package wordpress

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	booklet "github.com/alnah/go-wpbooklet"
)

// pageKeys are written from the page itself; ACF fields with the same
// name do not override them.
var pageKeys = map[string]bool{
	"id": true, "slug": true, "title": true, "content": true,
	"modified": true, "modified_gmt": true,
}

// Flatten turns a page and its custom fields into a content record:
// {id, slug, title, content, modified, modified_gmt, template} plus every
// ACF field at the top level. The title loses its markup and the body is
// stored as Markdown. A template chosen in the ACF fields wins over the
// WordPress page template.
func Flatten(p *Page, acf map[string]any) (booklet.RawRecord, error) {
	slug := strings.TrimSpace(p.Slug)
	if slug == "" {
		slug = strconv.FormatInt(p.ID, 10)
	}

	title := plainText(p.Title)
	if title == "" {
		title = slug
	}

	content, err := markdown(p.Content)
	if err != nil {
		return nil, err
	}

	record := booklet.RawRecord{
		"id":           p.ID,
		"slug":         slug,
		"title":        title,
		"content":      content,
		"modified":     p.Modified,
		"modified_gmt": p.ModifiedGMT,
	}
	if tpl := strings.TrimSpace(p.Template); tpl != "" {
		record["template"] = tpl
	}
	for k, v := range acf {
		if pageKeys[k] {
			continue
		}
		if k == "template" {
			if s, ok := v.(string); !ok || strings.TrimSpace(s) == "" {
				continue
			}
		}
		record[k] = v
	}
	return record, nil
}

// plainText strips tags and decodes entities from a rendered fragment.
func plainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(html.UnescapeString(fragment))
	}
	return strings.TrimSpace(doc.Text())
}

// markdown converts rendered post content to Markdown so the renderer can
// turn it back into safe HTML.
func markdown(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("converting content to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
