package booklet

import (
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-wpbooklet/internal/dateutil"
)

// Repeated-group caps.
const (
	MaxMembers       = 10
	MaxTimelineItems = 100
)

// baseContext holds the fields every template declares.
func baseContext(r RawRecord) Context {
	return Context{
		"title":   r.Title(),
		"updated": UpdatedStamp(r, dateutil.DefaultTimestampFormat),
	}
}

// with adds fields to the base context.
func with(r RawRecord, fields Context) Context {
	c := baseContext(r)
	for k, v := range fields {
		c[k] = v
	}
	return c
}

// ModifiedTime returns when the record last changed: modified_gmt read as
// UTC, else modified read as JST.
func ModifiedTime(r RawRecord) (time.Time, bool) {
	if v := r.Text("modified_gmt"); strings.TrimSpace(v) != "" {
		if t, err := dateutil.ParseTimestamp(v, time.UTC); err == nil {
			return t, true
		}
	}
	if v := r.Text("modified"); strings.TrimSpace(v) != "" {
		if t, err := dateutil.ParseTimestamp(v, dateutil.JST); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UpdatedStamp formats ModifiedTime in JST, or returns "" when the record
// carries no usable timestamp. An invalid format falls back to the default.
func UpdatedStamp(r RawRecord, format string) string {
	t, ok := ModifiedTime(r)
	if !ok {
		return ""
	}
	return formatStamp(t, format)
}

func formatStamp(t time.Time, format string) string {
	s, err := dateutil.Format(t, format)
	if err != nil {
		s, _ = dateutil.Format(t, dateutil.DefaultTimestampFormat)
	}
	return s
}

// NormalizeMembers reads the people list from a members array, or from
// member1_* … member10_* flat keys when no array is present. Rows with a
// blank name are dropped; gaps do not end the list.
func NormalizeMembers(r RawRecord) []Member {
	members := []Member{}

	if rows, ok := r["members"].([]any); ok && len(rows) > 0 {
		for _, row := range rows {
			obj, ok := row.(map[string]any)
			if !ok {
				continue
			}
			name := strings.TrimSpace(textOf(obj["name"]))
			if name == "" {
				continue
			}
			members = append(members, newMember(name, obj["photo"], textOf(obj["bio"])))
		}
		return members
	}

	for i := 1; i <= MaxMembers; i++ {
		prefix := "member" + strconv.Itoa(i)
		name := strings.TrimSpace(r.Text(prefix + "_name"))
		if name == "" {
			continue
		}
		members = append(members, newMember(name, r[prefix+"_photo"], r.Text(prefix+"_bio")))
	}
	return members
}

func newMember(name string, photo any, bio string) Member {
	img := NormalizeImage(photo, PlaceholderMemberPhoto)
	return Member{Name: name, Photo: img.URL, Bio: bio, photoMediaID: img.MediaID}
}

// hasFlatMembers reports whether any member<i>_name key is non-blank.
func hasFlatMembers(r RawRecord) bool {
	for i := 1; i <= MaxMembers; i++ {
		if r.Has("member" + strconv.Itoa(i) + "_name") {
			return true
		}
	}
	return false
}

// NormalizeSections returns exactly n sections, positionally. Each comes
// from a sections array entry, a section_<i> object or section_<i>_heading
// and section_<i>_content keys, in that order.
func NormalizeSections(r RawRecord, n int) []Section {
	rows, _ := r["sections"].([]any)
	sections := make([]Section, n)
	for i := range sections {
		if i < len(rows) {
			if obj, ok := rows[i].(map[string]any); ok {
				sections[i] = sectionFrom(obj)
				continue
			}
		}
		key := "section_" + strconv.Itoa(i+1)
		if obj, ok := r[key].(map[string]any); ok {
			sections[i] = sectionFrom(obj)
			continue
		}
		sections[i] = Section{
			Heading: r.Text(key + "_heading"),
			Content: r.Text(key + "_content"),
		}
	}
	return sections
}

func sectionFrom(obj map[string]any) Section {
	return Section{Heading: textOf(obj["heading"]), Content: textOf(obj["content"])}
}

// hasSection reports whether section i (1-based) carries anything.
func hasSection(r RawRecord, i int) bool {
	key := "section_" + strconv.Itoa(i)
	if r.Has(key) || r.Has(key+"_heading") || r.Has(key+"_content") {
		return true
	}
	rows, _ := r["sections"].([]any)
	return i <= len(rows) && present(rows[i-1])
}

// NormalizeFigures returns exactly n figures from image_<i> and
// caption_<i>, or from a figures array when present.
func NormalizeFigures(r RawRecord, n int) []Figure {
	rows, _ := r["figures"].([]any)
	figures := make([]Figure, n)
	for i := range figures {
		if i < len(rows) {
			if obj, ok := rows[i].(map[string]any); ok {
				figures[i] = Figure{
					Image:   NormalizeImage(obj["image"], PlaceholderImage),
					Caption: textOf(obj["caption"]),
				}
				continue
			}
		}
		idx := strconv.Itoa(i + 1)
		figures[i] = Figure{
			Image:   NormalizeImage(r["image_"+idx], PlaceholderImage),
			Caption: r.Text("caption_" + idx),
		}
	}
	return figures
}

// NormalizeTimeline reads timeline_items. Rows with no year, month or
// event are dropped; at most MaxTimelineItems are kept.
func NormalizeTimeline(r RawRecord) []TimelineItem {
	items := []TimelineItem{}
	rows, _ := r["timeline_items"].([]any)
	for _, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			continue
		}
		item := TimelineItem{
			Year:  strings.TrimSpace(textOf(obj["year"])),
			Month: strings.TrimSpace(textOf(obj["month"])),
			Event: strings.TrimSpace(textOf(obj["event"])),
		}
		if item.Year == "" && item.Month == "" && item.Event == "" {
			continue
		}
		items = append(items, item)
		if len(items) == MaxTimelineItems {
			break
		}
	}
	return items
}
