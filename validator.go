package booklet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/alnah/go-wpbooklet/internal/assets"
)

// SchemaLoader returns the raw JSON schema of a template type.
// A missing schema is reported with an error satisfying assets.IsNotFound.
type SchemaLoader interface {
	LoadSchema(name string) ([]byte, error)
}

// compiledSchema is a parsed template schema. A nil schema means the
// template has none and validation is skipped.
type compiledSchema struct {
	required []string
	schema   *jsonschema.Schema
}

// Validator checks prepared contexts against per-template JSON schemas.
// Compiled schemas are cached; safe for concurrent use.
type Validator struct {
	loader SchemaLoader

	mu    sync.Mutex
	cache map[string]*compiledSchema
}

// NewValidator creates a Validator reading schemas through loader.
func NewValidator(loader SchemaLoader) *Validator {
	return &Validator{loader: loader, cache: make(map[string]*compiledSchema)}
}

// Validate returns nil when ctx satisfies the schema of templateType or
// when no schema exists. Violations come back as *SchemaValidationError.
func (v *Validator) Validate(templateType string, ctx Context) error {
	cs, err := v.compiled(templateType)
	if err != nil {
		return err
	}
	if cs == nil {
		return nil
	}

	doc, err := toJSONValue(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, templateType, err)
	}

	var violations []Violation
	obj, _ := doc.(map[string]any)
	for _, field := range cs.required {
		if !requiredPresent(obj[field]) {
			violations = append(violations, Violation{Field: field, Message: "required field is missing or empty"})
		}
	}

	if cs.schema != nil {
		if err := cs.schema.Validate(doc); err != nil {
			var ve *jsonschema.ValidationError
			if !errors.As(err, &ve) {
				return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, templateType, err)
			}
			violations = append(violations, leafViolations(ve)...)
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &SchemaValidationError{Template: templateType, Violations: dedupeViolations(violations)}
}

// Has reports whether templateType has a schema.
func (v *Validator) Has(templateType string) (bool, error) {
	cs, err := v.compiled(templateType)
	return cs != nil, err
}

func (v *Validator) compiled(templateType string) (*compiledSchema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if cs, ok := v.cache[templateType]; ok {
		return cs, nil
	}

	data, err := v.loader.LoadSchema(templateType)
	if err != nil {
		if assets.IsNotFound(err) {
			v.cache[templateType] = nil
			return nil, nil
		}
		return nil, err
	}

	cs, err := compileSchema(templateType, data)
	if err != nil {
		return nil, err
	}
	v.cache[templateType] = cs
	return cs, nil
}

func compileSchema(name string, data []byte) (*compiledSchema, error) {
	var head struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
	}

	url := "mem://schemas/" + name + ".schema.json"
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
	}
	return &compiledSchema{required: head.Required, schema: schema}, nil
}

// toJSONValue gives ctx the shape the schema sees: structs become objects,
// numbers stay json.Number.
func toJSONValue(ctx Context) (any, error) {
	data, err := json.Marshal(ctx)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// requiredPresent is stricter than JSON Schema's required: null and ""
// count as missing.
func requiredPresent(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	}
	return true
}

// leafViolations flattens the cause tree to its leaves, which carry the
// specific failures.
func leafViolations(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		return []Violation{{Field: fieldOf(ve.InstanceLocation), Message: ve.Message}}
	}
	var out []Violation
	for _, c := range ve.Causes {
		out = append(out, leafViolations(c)...)
	}
	return out
}

func fieldOf(pointer string) string {
	field := strings.TrimPrefix(pointer, "/")
	if field == "" {
		return "(root)"
	}
	return field
}

// dedupeViolations removes repeats and orders by field so messages are
// stable.
func dedupeViolations(vs []Violation) []Violation {
	seen := make(map[Violation]bool, len(vs))
	out := make([]Violation, 0, len(vs))
	for _, v := range vs {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
