package booklet

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-wpbooklet/internal/assets"
)

// schemaMap serves schemas from memory.
type schemaMap map[string]string

func (m schemaMap) LoadSchema(name string) ([]byte, error) {
	s, ok := m[name]
	if !ok {
		return nil, assets.ErrSchemaNotFound
	}
	return []byte(s), nil
}

func TestValidator_EmbeddedSchemas(t *testing.T) {
	t.Parallel()

	v := NewValidator(assets.NewEmbeddedLoader())
	r := DefaultRegistry()

	tests := []struct {
		name       string
		record     string
		template   string
		wantFields []string
	}{
		{
			name:     "valid text-photo2",
			record:   `{"content": "hello", "photo1": {"url": "http://x/a.png"}}`,
			template: TypeTextPhoto2,
		},
		{
			name:       "text-photo2 without content",
			record:     `{"photo1": "http://x/a.png"}`,
			template:   TypeTextPhoto2,
			wantFields: []string{"content"},
		},
		{
			name:     "valid peoplelist",
			record:   `{"member1_name": "Alice"}`,
			template: TypePeopleList,
		},
		{
			name:       "peoplelist without members",
			record:     `{}`,
			template:   TypePeopleList,
			wantFields: []string{"members"},
		},
		{
			name:       "heading-text without heading",
			record:     `{"content": "body"}`,
			template:   TypeHeadingText,
			wantFields: []string{"heading"},
		},
		{
			name:     "empty timeline passes",
			record:   `{}`,
			template: TypeTimeline,
		},
		{
			name:     "image-caption-3 with placeholders passes",
			record:   `{}`,
			template: TypeImageCaption3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sel, err := r.Select(decode(t, tt.record), tt.template)
			if err != nil {
				t.Fatal(err)
			}
			err = v.Validate(sel.Type, sel.Context)

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			var sve *SchemaValidationError
			if !errors.As(err, &sve) {
				t.Fatalf("Validate() = %v, want *SchemaValidationError", err)
			}
			if !errors.Is(err, ErrSchemaValidation) {
				t.Error("error should wrap ErrSchemaValidation")
			}
			if sve.Template != tt.template {
				t.Errorf("Template = %q, want %q", sve.Template, tt.template)
			}
			for _, f := range tt.wantFields {
				found := false
				for _, viol := range sve.Violations {
					if strings.HasPrefix(viol.Field, f) {
						found = true
					}
				}
				if !found {
					t.Errorf("no violation for %q in %+v", f, sve.Violations)
				}
			}
		})
	}
}

func TestValidator_TypeViolations(t *testing.T) {
	t.Parallel()

	v := NewValidator(schemaMap{
		"card": `{
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string"},
				"count": {"type": "integer"}
			}
		}`,
	})

	err := v.Validate("card", Context{"name": "x", "count": "three"})
	var sve *SchemaValidationError
	if !errors.As(err, &sve) {
		t.Fatalf("Validate() = %v, want *SchemaValidationError", err)
	}
	if len(sve.Violations) != 1 || sve.Violations[0].Field != "count" {
		t.Errorf("Violations = %+v, want one for count", sve.Violations)
	}
	if !strings.Contains(err.Error(), "schema error (card):") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidator_RequiredRejectsNullAndEmpty(t *testing.T) {
	t.Parallel()

	v := NewValidator(schemaMap{"card": `{"required": ["a", "b", "c"]}`})

	err := v.Validate("card", Context{"a": nil, "b": "", "c": 0})
	var sve *SchemaValidationError
	if !errors.As(err, &sve) {
		t.Fatalf("Validate() = %v", err)
	}
	got := []string{}
	for _, viol := range sve.Violations {
		got = append(got, viol.Field)
	}
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("violated fields = %v, want [a b]", got)
	}
}

func TestValidator_MissingSchemaSkips(t *testing.T) {
	t.Parallel()

	v := NewValidator(schemaMap{})
	if err := v.Validate("anything", Context{}); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if ok, err := v.Has("anything"); ok || err != nil {
		t.Errorf("Has() = %v, %v; want false, nil", ok, err)
	}
}

func TestValidator_MalformedSchema(t *testing.T) {
	t.Parallel()

	v := NewValidator(schemaMap{"bad": `{"required": `})
	if err := v.Validate("bad", Context{}); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("Validate() = %v, want ErrInvalidSchema", err)
	}
}

func TestValidator_Concurrent(t *testing.T) {
	t.Parallel()

	v := NewValidator(assets.NewEmbeddedLoader())
	c := DefaultRegistry().Descriptors()[0].Prepare(RawRecord{"member1_name": "A"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := v.Validate(TypePeopleList, c); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		}()
	}
	wg.Wait()
}
