package booklet

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Placeholder images used when a field has nothing resolvable.
const (
	PlaceholderMemberPhoto = "https://placehold.co/380x380.png"
	PlaceholderImage       = "https://placehold.co/800x500.png"
)

// ImageKind tags the shape an image field arrived in.
type ImageKind int

const (
	ImageNone       ImageKind = iota // absent, blank or unusable
	ImageStructured                  // {url, alt?, title?}
	ImageMediaRef                    // {id}, a bare number or a digit string
	ImageRawURL                      // plain URL string
)

func (k ImageKind) String() string {
	switch k {
	case ImageStructured:
		return "structured"
	case ImageMediaRef:
		return "media"
	case ImageRawURL:
		return "url"
	default:
		return "none"
	}
}

// ImageRef is an image field as found in a record, before resolution.
// Only the fields meaningful for Kind are set.
type ImageRef struct {
	Kind    ImageKind
	URL     string // ImageStructured, ImageRawURL
	Alt     string // ImageStructured
	Title   string // ImageStructured
	MediaID int64  // ImageMediaRef
}

// Image is the canonical image shape templates consume.
type Image struct {
	URL   string `json:"url"`
	Alt   string `json:"alt"`
	Title string `json:"title"`

	// MediaID is kept while the URL is still the placeholder for a media
	// reference that has not been resolved.
	MediaID int64 `json:"id,omitempty"`
}

// Pending reports whether the image waits for media resolution.
func (i Image) Pending() bool { return i.MediaID != 0 }

// ParseImage classifies a raw field value. It never fails: anything it
// cannot read is ImageNone.
func ParseImage(v any) ImageRef {
	switch t := v.(type) {
	case map[string]any:
		if u := strings.TrimSpace(textOf(t["url"])); u != "" {
			return ImageRef{
				Kind:  ImageStructured,
				URL:   u,
				Alt:   strings.TrimSpace(textOf(t["alt"])),
				Title: strings.TrimSpace(textOf(t["title"])),
			}
		}
		// WordPress media objects use source_url and alt_text.
		if u := strings.TrimSpace(textOf(t["source_url"])); u != "" {
			return ImageRef{
				Kind:  ImageStructured,
				URL:   u,
				Alt:   strings.TrimSpace(textOf(t["alt_text"])),
				Title: strings.TrimSpace(textOf(t["title"])),
			}
		}
		if id, ok := mediaID(t["id"]); ok {
			return ImageRef{Kind: ImageMediaRef, MediaID: id}
		}
	case json.Number, float64, int, int64:
		if id, ok := mediaID(t); ok {
			return ImageRef{Kind: ImageMediaRef, MediaID: id}
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			break
		}
		if id, ok := mediaID(s); ok {
			return ImageRef{Kind: ImageMediaRef, MediaID: id}
		}
		return ImageRef{Kind: ImageRawURL, URL: s}
	}
	return ImageRef{Kind: ImageNone}
}

// Resolve converges the reference to an Image, substituting placeholder
// for the URL when nothing resolvable is known yet.
func (r ImageRef) Resolve(placeholder string) Image {
	switch r.Kind {
	case ImageStructured:
		return Image{URL: r.URL, Alt: r.Alt, Title: r.Title}
	case ImageRawURL:
		return Image{URL: r.URL}
	case ImageMediaRef:
		return Image{URL: placeholder, MediaID: r.MediaID}
	default:
		return Image{URL: placeholder}
	}
}

// NormalizeImage is ParseImage followed by Resolve.
func NormalizeImage(v any, placeholder string) Image {
	return ParseImage(v).Resolve(placeholder)
}

func mediaID(v any) (int64, bool) {
	s := strings.TrimSpace(textOf(v))
	if s == "" || !isNumeric(s) {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// MediaResolver looks up WordPress media by id.
type MediaResolver interface {
	ResolveMedia(ctx context.Context, id int64) (Image, error)
}

// MediaResolverFunc adapts a function to MediaResolver.
type MediaResolverFunc func(ctx context.Context, id int64) (Image, error)

func (f MediaResolverFunc) ResolveMedia(ctx context.Context, id int64) (Image, error) {
	return f(ctx, id)
}

// mediaFailure is reported for every reference that could not be resolved.
type mediaFailure struct {
	Field string
	ID    int64
	Err   error
}

// resolveMedia replaces pending images in c through resolver. Failed
// lookups keep the placeholder and are returned for logging. The context
// is modified in place; slices are copied first so the Prepare result
// shared with a caller is never touched.
func resolveMedia(ctx context.Context, c Context, resolver MediaResolver) []mediaFailure {
	var failures []mediaFailure

	lookup := func(field string, img Image) Image {
		if !img.Pending() || resolver == nil {
			return img
		}
		resolved, err := resolver.ResolveMedia(ctx, img.MediaID)
		if err != nil || strings.TrimSpace(resolved.URL) == "" {
			failures = append(failures, mediaFailure{Field: field, ID: img.MediaID, Err: err})
			return img
		}
		resolved.MediaID = 0
		return resolved
	}

	for key, v := range c {
		switch t := v.(type) {
		case Image:
			c[key] = lookup(key, t)
		case []Figure:
			figures := make([]Figure, len(t))
			copy(figures, t)
			for i := range figures {
				figures[i].Image = lookup(key+"["+strconv.Itoa(i)+"].image", figures[i].Image)
			}
			c[key] = figures
		case []Member:
			members := make([]Member, len(t))
			copy(members, t)
			for i := range members {
				if members[i].photoMediaID == 0 {
					continue
				}
				img := lookup(key+"["+strconv.Itoa(i)+"].photo",
					Image{URL: members[i].Photo, MediaID: members[i].photoMediaID})
				members[i].Photo = img.URL
				members[i].photoMediaID = img.MediaID
			}
			c[key] = members
		}
	}
	return failures
}

// pendingMedia counts unresolved references in c.
func pendingMedia(c Context) int {
	n := 0
	for _, v := range c {
		switch t := v.(type) {
		case Image:
			if t.Pending() {
				n++
			}
		case []Figure:
			for _, f := range t {
				if f.Image.Pending() {
					n++
				}
			}
		case []Member:
			for _, m := range t {
				if m.photoMediaID != 0 {
					n++
				}
			}
		}
	}
	return n
}
