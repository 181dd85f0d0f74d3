package assets

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestEmbeddedLoader_LoadStyle(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name        string
		styleName   string
		wantErr     error
		wantContain string
	}{
		{
			name:        "loads booklet style",
			styleName:   DefaultStyleName,
			wantContain: ".timeline-table",
		},
		{
			name:      "returns ErrStyleNotFound for nonexistent",
			styleName: "nonexistent-style-xyz",
			wantErr:   ErrStyleNotFound,
		},
		{
			name:      "returns ErrInvalidAssetName for path traversal",
			styleName: "../secret",
			wantErr:   ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadStyle(tt.styleName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.styleName, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.styleName, err)
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("LoadStyle(%q) content should contain %q", tt.styleName, tt.wantContain)
			}
		})
	}
}

func TestEmbeddedLoader_LoadTemplate(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	types := []string{
		LayoutTemplateName,
		"peoplelist", "timeline", "text-photo2", "heading-text",
		"main-heading-2", "main-heading-3",
		"image-caption-1", "image-caption-2", "image-caption-3", "image-caption-4",
	}
	for _, name := range types {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadTemplate(name)
			if err != nil {
				t.Fatalf("LoadTemplate(%q) unexpected error: %v", name, err)
			}
			want := `{{define "body"}}`
			if name == LayoutTemplateName {
				want = `{{template "body" .Context}}`
			}
			if !strings.Contains(got, want) {
				t.Errorf("LoadTemplate(%q) should contain %q", name, want)
			}
		})
	}

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()

		_, err := loader.LoadTemplate("brochure")
		if !errors.Is(err, ErrTemplateNotFound) {
			t.Errorf("LoadTemplate(brochure) error = %v, want ErrTemplateNotFound", err)
		}
	})
}

func TestEmbeddedLoader_LoadSchema(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	got, err := loader.LoadSchema("peoplelist")
	if err != nil {
		t.Fatalf("LoadSchema(peoplelist) unexpected error: %v", err)
	}
	if !strings.Contains(string(got), `"members"`) {
		t.Error("peoplelist schema should declare members")
	}

	if _, err := loader.LoadSchema("brochure"); !errors.Is(err, ErrSchemaNotFound) {
		t.Errorf("LoadSchema(brochure) error = %v, want ErrSchemaNotFound", err)
	}
}

func TestSchemaNames(t *testing.T) {
	t.Parallel()

	names := SchemaNames()
	if !slices.IsSorted(names) {
		t.Errorf("SchemaNames() not sorted: %v", names)
	}
	for _, want := range []string{"peoplelist", "text-photo2", "timeline"} {
		if !slices.Contains(names, want) {
			t.Errorf("SchemaNames() missing %q in %v", want, names)
		}
	}
}

func TestEmbeddedLoader_ImplementsAssetLoader(t *testing.T) {
	t.Parallel()

	var _ AssetLoader = NewEmbeddedLoader()
}
