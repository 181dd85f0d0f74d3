// Package assets provides the stylesheet, HTML templates and JSON schemas
// used to render booklets. Assets can be loaded from embedded files or
// overridden from a directory on disk.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver only falls back to the embedded copy when the custom
// directory does not contain the asset. Validation and I/O errors are
// returned as is.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	├── templates/
//	│   ├── layout.html          # page skeleton
//	│   └── {type}.html          # one body template per template type
//	└── schemas/
//	    └── {type}.schema.json   # optional per-type JSON schema
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
