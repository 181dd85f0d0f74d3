package booklet

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Descriptor pairs a structural detector with the function that prepares
// a template's rendering context.
type Descriptor struct {
	Name        string
	Description string
	// Fields lists every context key Prepare sets.
	Fields []string
	// Detect reports whether a record has this template's shape. May be nil
	// for templates that are only selected explicitly or as fallback.
	Detect func(RawRecord) bool
	// Prepare is pure and total: every input, {} included, yields all Fields.
	Prepare func(RawRecord) Context
}

// SelectReason says how a template was chosen.
type SelectReason string

const (
	ReasonExplicit SelectReason = "explicit"
	ReasonDeclared SelectReason = "declared"
	ReasonDetected SelectReason = "detected"
	ReasonFallback SelectReason = "fallback"
)

// Selection is the chosen template and its prepared context.
type Selection struct {
	Type    string
	Context Context
	Reason  SelectReason
	// IgnoredDeclared is a template the record named that is not registered.
	IgnoredDeclared string
}

// Registry holds template descriptors in detection order. It is read-only
// after construction and safe for concurrent use.
type Registry struct {
	descriptors []Descriptor
	byName      map[string]int
	fallback    string
	logger      *zap.Logger
}

// NewRegistry builds a registry. Descriptors are tried in the given order;
// fallback must name one of them.
func NewRegistry(fallback string, descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		byName:      make(map[string]int, len(descriptors)),
		fallback:    fallback,
		logger:      zap.NewNop(),
	}
	for _, d := range descriptors {
		name := strings.TrimSpace(d.Name)
		if name == "" || d.Prepare == nil {
			return nil, fmt.Errorf("%w: %q needs a name and Prepare", ErrInvalidDescriptor, d.Name)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTemplate, name)
		}
		d.Name = name
		r.byName[name] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}
	if _, ok := r.byName[fallback]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoFallbackTemplate, fallback)
	}
	return r, nil
}

// DefaultRegistry returns the built-in templates with text-photo2 as the
// fallback.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultFallback, BuiltinDescriptors()...)
	if err != nil {
		panic(err) // built-ins are static
	}
	return r
}

// WithLogger returns a copy of r that logs to logger.
func (r *Registry) WithLogger(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	cp := *r
	cp.logger = logger
	return &cp
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns registered names in detection order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		names[i] = d.Name
	}
	return names
}

// Descriptors returns a copy of the descriptors in detection order.
func (r *Registry) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.descriptors...)
}

// Fallback returns the fallback template name.
func (r *Registry) Fallback() string { return r.fallback }

// Select picks the template for record:
//  1. explicit, when non-empty, must be registered (ErrUnknownTemplate)
//  2. the record's own template field, when registered
//  3. the first descriptor whose Detect matches
//  4. the fallback
func (r *Registry) Select(record RawRecord, explicit string) (Selection, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		name := NormalizeTemplateName(explicit)
		d, ok := r.Lookup(name)
		if !ok {
			return Selection{}, fmt.Errorf("%w: %q (available: %s)",
				ErrUnknownTemplate, explicit, strings.Join(r.Names(), ", "))
		}
		return r.selection(d, record, ReasonExplicit), nil
	}

	var ignored string
	if declared := record.DeclaredTemplate(); declared != "" {
		if d, ok := r.Lookup(declared); ok {
			return r.selection(d, record, ReasonDeclared), nil
		}
		ignored = declared
		r.logger.Warn("record declares an unregistered template, detecting instead",
			zap.String("template", declared))
	}

	sel := r.detect(record)
	sel.IgnoredDeclared = ignored
	return sel, nil
}

func (r *Registry) detect(record RawRecord) Selection {
	for _, d := range r.descriptors {
		if d.Detect != nil && d.Detect(record) {
			return r.selection(d, record, ReasonDetected)
		}
	}
	d, _ := r.Lookup(r.fallback)
	return r.selection(d, record, ReasonFallback)
}

func (r *Registry) selection(d Descriptor, record RawRecord, reason SelectReason) Selection {
	return Selection{Type: d.Name, Context: d.Prepare(record), Reason: reason}
}
