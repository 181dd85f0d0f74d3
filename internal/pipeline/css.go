package pipeline

import (
	"fmt"
	"strings"
)

// PageCSS returns the @page rule for the given size, orientation and margin,
// e.g. "@page { size: A4 landscape; margin: 14mm; }".
func PageCSS(size, orientation, margin string) string {
	var buf strings.Builder
	buf.WriteString("@page {")
	if size != "" {
		sizeValue := strings.ToUpper(size)
		switch strings.ToLower(size) {
		case "letter", "legal":
			sizeValue = strings.ToLower(size)
		}
		if orientation != "" {
			sizeValue += " " + strings.ToLower(orientation)
		}
		fmt.Fprintf(&buf, " size: %s;", escapeCSSValue(sizeValue))
	}
	if margin != "" {
		fmt.Fprintf(&buf, " margin: %s;", escapeCSSValue(margin))
	}
	buf.WriteString(" }\n")
	return buf.String()
}

// JoinCSS concatenates stylesheet fragments, skipping empty ones.
func JoinCSS(parts ...string) string {
	var buf strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(p)
		buf.WriteString("\n")
	}
	return buf.String()
}

// InjectCSS inserts a <style> block into an HTML document.
// Tries </head> first, then <body>, then prepends to the HTML.
func InjectCSS(htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}
	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}
	return styleBlock + htmlContent
}

// sanitizeCSS escapes "</" so the stylesheet cannot close its <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// escapeCSSValue drops characters that would end a declaration early.
func escapeCSSValue(s string) string {
	return strings.NewReplacer(";", "", "{", "", "}", "", "\n", " ", "\r", "").Replace(s)
}
