package booklet

import "strconv"

// Built-in template types.
const (
	TypePeopleList    = "peoplelist"
	TypeTimeline      = "timeline"
	TypeMainHeading3  = "main-heading-3"
	TypeMainHeading2  = "main-heading-2"
	TypeImageCaption4 = "image-caption-4"
	TypeImageCaption3 = "image-caption-3"
	TypeImageCaption2 = "image-caption-2"
	TypeImageCaption1 = "image-caption-1"
	TypeHeadingText   = "heading-text"
	TypeTextPhoto2    = "text-photo2"
)

// DefaultFallback is the legacy two-photo layout used when nothing else
// matches.
const DefaultFallback = TypeTextPhoto2

// commonFields are declared by every built-in template.
var commonFields = []string{"title", "updated"}

func fields(extra ...string) []string {
	return append(append([]string{}, commonFields...), extra...)
}

// BuiltinDescriptors returns the built-in templates in detection order.
func BuiltinDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name:        TypePeopleList,
			Description: "Lead text and up to ten member cards",
			Fields:      fields("lead", "members"),
			Detect: func(r RawRecord) bool {
				return r.Has("members") || hasFlatMembers(r)
			},
			Prepare: func(r RawRecord) Context {
				return with(r, Context{
					"lead":    r.Text("lead"),
					"members": NormalizeMembers(r),
				})
			},
		},
		{
			Name:        TypeTimeline,
			Description: "Year and event table",
			Fields:      fields("timeline_title", "timeline_items"),
			Detect:      func(r RawRecord) bool { return r.Has("timeline_items") },
			Prepare: func(r RawRecord) Context {
				return with(r, Context{
					"timeline_title": r.Text("timeline_title"),
					"timeline_items": NormalizeTimeline(r),
				})
			},
		},
		mainHeading(TypeMainHeading3, 3, func(r RawRecord) bool {
			return r.Has("main_heading") && hasSection(r, 3)
		}),
		mainHeading(TypeMainHeading2, 2, func(r RawRecord) bool {
			return r.Has("main_heading") && (hasSection(r, 1) || hasSection(r, 2))
		}),
		imageCaptions(TypeImageCaption4, 4),
		imageCaptions(TypeImageCaption3, 3),
		imageCaptions(TypeImageCaption2, 2),
		{
			Name:        TypeImageCaption1,
			Description: "One large image with a caption",
			Fields:      fields("image", "caption"),
			Detect:      func(r RawRecord) bool { return r.Has("image") },
			Prepare: func(r RawRecord) Context {
				return with(r, Context{
					"image":   NormalizeImage(r["image"], PlaceholderImage),
					"caption": r.Text("caption"),
				})
			},
		},
		{
			Name:        TypeHeadingText,
			Description: "Heading and body text",
			Fields:      fields("heading", "content"),
			Detect:      func(r RawRecord) bool { return r.Has("heading") },
			Prepare: func(r RawRecord) Context {
				return with(r, Context{
					"heading": r.Text("heading"),
					"content": r.Text("content"),
				})
			},
		},
		{
			Name:        TypeTextPhoto2,
			Description: "Body text with two captioned photos",
			Fields:      fields("content", "photo1", "caption1", "photo2", "caption2"),
			Detect: func(r RawRecord) bool {
				return r.Has("content") && (r.Has("photo1") || r.Has("photo2"))
			},
			Prepare: func(r RawRecord) Context {
				return with(r, Context{
					"content":  r.Text("content"),
					"photo1":   NormalizeImage(r["photo1"], PlaceholderImage),
					"caption1": r.Text("caption1"),
					"photo2":   NormalizeImage(r["photo2"], PlaceholderImage),
					"caption2": r.Text("caption2"),
				})
			},
		},
	}
}

func mainHeading(name string, n int, detect func(RawRecord) bool) Descriptor {
	return Descriptor{
		Name:        name,
		Description: "Main heading over positional sections",
		Fields:      fields("main_heading", "sections"),
		Detect:      detect,
		Prepare: func(r RawRecord) Context {
			return with(r, Context{
				"main_heading": r.Text("main_heading"),
				"sections":     NormalizeSections(r, n),
			})
		},
	}
}

func imageCaptions(name string, n int) Descriptor {
	key := "image_" + strconv.Itoa(n)
	return Descriptor{
		Name:        name,
		Description: "Captioned image grid",
		Fields:      fields("figures"),
		Detect:      func(r RawRecord) bool { return r.Has(key) },
		Prepare: func(r RawRecord) Context {
			return with(r, Context{"figures": NormalizeFigures(r, n)})
		},
	}
}
