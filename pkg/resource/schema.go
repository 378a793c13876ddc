// Package resource holds the record model shared by every AOS8 resource:
// a static attribute schema, sparse records built against it and ordered,
// key-unique record sets.
package resource

import (
	"fmt"
)

// Type is the value type of an attribute.
type Type int

const (
	String Type = iota
	Int
	Choice
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Choice:
		return "choice"
	default:
		return "string"
	}
}

// DefaultFunc computes the documented default of an attribute. It receives
// the key attributes of the record being filled.
type DefaultFunc func(Record) any

// Static returns a DefaultFunc that always yields v.
func Static(v any) DefaultFunc {
	return func(Record) any { return v }
}

// Attribute describes one named field of a resource.
type Attribute struct {
	Name string
	Type Type
	// Choices lists the allowed values of a Choice attribute.
	Choices []string
	// Min and Max bound an Int value, or the length of a String value.
	// Max == 0 disables the bound.
	Min, Max int
	// Key attributes identify a record and are always required.
	Key bool
	// Required attributes must be given in desired input, except in the
	// deleted state where desired acts as a key list.
	Required bool
	Default  DefaultFunc
	Doc      string
}

// Schema is the static attribute table of a resource. Attribute order is the
// command emission order.
type Schema struct {
	Resource   string
	Attributes []Attribute
	// Check runs extra rules against desired records only.
	Check func(Record) []string

	index map[string]int
}

// NewSchema indexes attrs. It panics on duplicate names or a schema without a
// key, both of which are programming errors.
func NewSchema(resource string, attrs ...Attribute) *Schema {
	s := &Schema{Resource: resource, Attributes: attrs, index: make(map[string]int, len(attrs))}
	hasKey := false
	for i, a := range attrs {
		if _, dup := s.index[a.Name]; dup {
			panic(fmt.Sprintf("bug: %s declares attribute %q twice", resource, a.Name))
		}
		s.index[a.Name] = i
		hasKey = hasKey || a.Key
	}
	if !hasKey {
		panic(fmt.Sprintf("bug: %s declares no key attribute", resource))
	}
	return s
}

// Attribute looks up an attribute by name.
func (s *Schema) Attribute(name string) (Attribute, bool) {
	i, ok := s.index[name]
	if !ok {
		return Attribute{}, false
	}
	return s.Attributes[i], true
}

// KeyAttributes returns the identifying attributes in schema order.
func (s *Schema) KeyAttributes() []Attribute {
	var out []Attribute
	for _, a := range s.Attributes {
		if a.Key {
			out = append(out, a)
		}
	}
	return out
}

// ValueAttributes returns the non-key attributes in schema order.
func (s *Schema) ValueAttributes() []Attribute {
	var out []Attribute
	for _, a := range s.Attributes {
		if !a.Key {
			out = append(out, a)
		}
	}
	return out
}
