package assets

// AssetLoader defines the contract for loading booklet assets.
// Implementations may load from embedded assets, a directory on disk, etc.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	LoadTemplate(name string) (string, error)

	// LoadSchema loads the JSON schema for a template type
	// (schemas/<name>.schema.json). Returns ErrSchemaNotFound if absent.
	LoadSchema(name string) ([]byte, error)
}

// DefaultStyleName is the name of the built-in booklet stylesheet.
const DefaultStyleName = "booklet"

// LayoutTemplateName is the page skeleton every template renders into.
const LayoutTemplateName = "layout"

// kind describes one family of assets on disk or in the embedded FS.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
	schemaKind   = kind{dir: "schemas", ext: ".schema.json", notFound: ErrSchemaNotFound}
)

func (k kind) path(name string) string {
	return k.dir + "/" + name + k.ext
}
