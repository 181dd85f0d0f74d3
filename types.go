package booklet

import (
	"fmt"
	"regexp"
	"strings"
)

// Page size constants.
const (
	PageSizeA3     = "a3"
	PageSizeA4     = "a4"
	PageSizeA5     = "a5"
	PageSizeB5     = "b5"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// DefaultMargin is the booklet page margin.
const DefaultMargin = "14mm"

var marginPattern = regexp.MustCompile(`^\d+(\.\d+)?(mm|cm|in|px|pt)$`)

// PageSettings configures the printed page through a generated @page rule.
type PageSettings struct {
	Size        string // a3, a4, a5, b5, letter, legal
	Orientation string // portrait, landscape
	Margin      string // CSS length applied to all sides, e.g. "12mm"
}

// DefaultPageSettings returns A4 landscape with a 14mm margin.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationLandscape,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	switch strings.ToLower(p.Size) {
	case PageSizeA3, PageSizeA4, PageSizeA5, PageSizeB5, PageSizeLetter, PageSizeLegal:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if !marginPattern.MatchString(p.Margin) {
		return fmt.Errorf("%w: %q (want a CSS length such as 12mm)", ErrInvalidMargin, p.Margin)
	}

	return nil
}

// Context is the normalized, template-specific mapping handed to the renderer.
// Every field the template declares is present.
type Context map[string]any

// Member is one row of a people list.
type Member struct {
	Name  string `json:"name"`
	Photo string `json:"photo"` // URL, placeholder when missing
	Bio   string `json:"bio"`

	photoMediaID int64 // set while the photo waits for media resolution
}

// Section is a heading and body pair of the main-heading templates.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Figure is an image with its caption.
type Figure struct {
	Image   Image  `json:"image"`
	Caption string `json:"caption"`
}

// TimelineItem is one row of a timeline table. Month is optional.
type TimelineItem struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Event string `json:"event"`
}
