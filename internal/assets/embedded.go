package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed styles/*.css templates/*.html schemas/*.json
var embedded embed.FS

// EmbeddedLoader loads assets compiled into the binary.
// Implements AssetLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads a CSS style from embedded assets by name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	content, err := e.read(styleKind, name)
	return string(content), err
}

// LoadTemplate loads an HTML template from embedded assets by name.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	content, err := e.read(templateKind, name)
	return string(content), err
}

// LoadSchema loads a template schema from embedded assets.
func (e *EmbeddedLoader) LoadSchema(name string) ([]byte, error) {
	return e.read(schemaKind, name)
}

func (e *EmbeddedLoader) read(k kind, name string) ([]byte, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	content, err := embedded.ReadFile(k.path(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", k.notFound, name)
	}

	return content, nil
}

// SchemaNames lists the template types that ship with an embedded schema.
func SchemaNames() []string {
	entries, err := fs.ReadDir(embedded, schemaKind.dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), schemaKind.ext); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
