package booklet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// RawRecord is a decoded content file: page metadata plus ACF fields, as
// loosely typed as WordPress returns them. Numbers are json.Number.
// A RawRecord is never modified after decoding.
type RawRecord map[string]any

// DecodeRecord reads one JSON object. Fields nested under "acf" are lifted
// to the top level unless a top-level key of the same name exists.
func DecodeRecord(r io.Reader) (RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T, want object", ErrInvalidRecord, raw)
	}

	record := make(RawRecord, len(obj))
	for k, v := range obj {
		record[k] = v
	}
	if acf, ok := obj["acf"].(map[string]any); ok {
		for k, v := range acf {
			if _, exists := record[k]; !exists {
				record[k] = v
			}
		}
	}
	return record, nil
}

// LoadRecord reads and decodes a content file.
func LoadRecord(path string) (RawRecord, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- content directory is caller-controlled
	if err != nil {
		return nil, err
	}
	record, err := DecodeRecord(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return record, nil
}

// Value returns the raw value for key.
func (r RawRecord) Value(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Text returns the field as a string, or "" when absent or not textual.
func (r RawRecord) Text(key string) string {
	return textOf(r[key])
}

// Has reports whether key holds a present value (see present).
func (r RawRecord) Has(key string) bool {
	return present(r[key])
}

// ID returns the durable page id as a string.
func (r RawRecord) ID() string { return strings.TrimSpace(r.Text("id")) }

// Slug returns the page slug.
func (r RawRecord) Slug() string { return strings.TrimSpace(r.Text("slug")) }

// Title returns the page title, unwrapping WordPress {"rendered": ...}.
func (r RawRecord) Title() string { return strings.TrimSpace(r.Text("title")) }

// DeclaredTemplate returns the template named by the record itself, with
// WordPress page-template filenames reduced to the type name.
func (r RawRecord) DeclaredTemplate() string {
	return NormalizeTemplateName(r.Text("template"))
}

// NormalizeTemplateName maps "template-timeline.php" and "timeline" alike
// to "timeline". WordPress uses "default" for no template, which maps to "".
func NormalizeTemplateName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".php")
	name = strings.TrimPrefix(name, "template-")
	if name == "default" {
		return ""
	}
	return name
}

// textOf converts scalar JSON values to text. ACF stores empty fields as
// false, so booleans read as "".
func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any:
		if rendered, ok := t["rendered"]; ok {
			return textOf(rendered)
		}
	}
	return ""
}

// present is the truthiness test used by detection: nil, false, zero,
// blank strings and empty collections are absent.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}
