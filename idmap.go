package booklet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/alnah/go-wpbooklet/internal/fileutil"
)

// IdentifierMapFile is the conventional file name of the map.
const IdentifierMapFile = "id-slug-map.json"

// IdentifierMap relates durable page ids to their current slugs, both ways.
// On disk it is one flat JSON object: {"42": "about", "about": 42}.
// Entries are only ever added; a renamed page leaves its old slug behind.
type IdentifierMap struct {
	idToSlug map[string]string
	slugToID map[string]string
}

// NewIdentifierMap returns an empty map.
func NewIdentifierMap() *IdentifierMap {
	return &IdentifierMap{
		idToSlug: make(map[string]string),
		slugToID: make(map[string]string),
	}
}

// Add records id⇄slug. The id→slug direction is overwritten so the newest
// slug wins; the old slug keeps pointing at the id.
func (m *IdentifierMap) Add(id, slug string) {
	id, slug = strings.TrimSpace(id), strings.TrimSpace(slug)
	if id == "" || slug == "" {
		return
	}
	m.idToSlug[id] = slug
	m.slugToID[slug] = id
}

// SlugFor returns the slug for id.
func (m *IdentifierMap) SlugFor(id string) (string, bool) {
	if m == nil {
		return "", false
	}
	slug, ok := m.idToSlug[id]
	return slug, ok
}

// IDFor returns the id for slug.
func (m *IdentifierMap) IDFor(slug string) (string, bool) {
	if m == nil {
		return "", false
	}
	id, ok := m.slugToID[slug]
	return id, ok
}

// Merge adds every entry of other. Entries of other win on conflict.
func (m *IdentifierMap) Merge(other *IdentifierMap) {
	if other == nil {
		return
	}
	for id, slug := range other.idToSlug {
		m.idToSlug[id] = slug
	}
	for slug, id := range other.slugToID {
		m.slugToID[slug] = id
	}
}

// Len returns the number of id→slug entries.
func (m *IdentifierMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.idToSlug)
}

// IDs returns the known ids in sorted order.
func (m *IdentifierMap) IDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, 0, len(m.idToSlug))
	for id := range m.idToSlug {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MarshalJSON writes the flat form. Ids map to slug strings, slugs map to
// numeric ids when the id is numeric.
func (m *IdentifierMap) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(m.idToSlug)+len(m.slugToID))
	for slug, id := range m.slugToID {
		if isNumeric(id) {
			flat[slug] = json.Number(id)
		} else {
			flat[slug] = id
		}
	}
	for id, slug := range m.idToSlug {
		flat[id] = slug
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat form. A numeric key with a string value is
// id→slug; a key with a numeric value (or digit string) is slug→id.
func (m *IdentifierMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var flat map[string]any
	if err := dec.Decode(&flat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIdentifierMap, err)
	}

	fresh := NewIdentifierMap()
	for key, value := range flat {
		switch v := value.(type) {
		case json.Number:
			fresh.slugToID[key] = v.String()
		case string:
			switch {
			case isNumeric(key) && !isNumeric(v):
				fresh.idToSlug[key] = v
			case isNumeric(v):
				fresh.slugToID[key] = v
			}
		}
	}
	*m = *fresh
	return nil
}

// LoadIdentifierMap reads the map at path. A missing file yields an empty
// map and no error; a corrupt file is ErrInvalidIdentifierMap.
func LoadIdentifierMap(path string) (*IdentifierMap, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- content directory is caller-controlled
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewIdentifierMap(), nil
		}
		return nil, fmt.Errorf("reading identifier map: %w", err)
	}

	m := NewIdentifierMap()
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes the map atomically with sorted keys and two-space indent.
func (m *IdentifierMap) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding identifier map: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
