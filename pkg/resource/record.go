package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"aos8ctl/pkg/errs"
)

// Key is the natural identifier of a record, derived from its key attributes.
type Key string

// Record is one configuration object. Only populated attributes are held: an
// absent attribute means "not specified", which is distinct from a default.
type Record struct {
	schema *Schema
	values map[string]any
}

// NewRecord builds a record from attribute name to value. Values are coerced
// to the attribute type; unknown attributes, bad values and missing key
// attributes fail with a validation error.
func (s *Schema) NewRecord(fields map[string]any) (Record, error) {
	r, problems := s.build(fields, "")
	if len(problems) > 0 {
		return Record{}, errs.Validation(s.Resource, problems)
	}
	return r, nil
}

func (s *Schema) build(fields map[string]any, path string) (Record, []string) {
	r := Record{schema: s, values: make(map[string]any, len(fields))}
	var problems []string
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		raw := fields[name]
		if raw == nil {
			continue
		}
		a, ok := s.Attribute(name)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s is not a known attribute", join(path, name)))
			continue
		}
		v, err := coerce(a, raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %v", join(path, name), err))
			continue
		}
		r.values[name] = v
	}
	for _, a := range s.KeyAttributes() {
		if _, ok := r.values[a.Name]; !ok && !hasProblem(problems, join(path, a.Name)) {
			problems = append(problems, fmt.Sprintf("%s is required", join(path, a.Name)))
		}
	}
	return r, problems
}

func coerce(a Attribute, raw any) (any, error) {
	switch a.Type {
	case Int:
		if _, isBool := raw.(bool); isBool {
			return nil, fmt.Errorf("must be an integer, got %v", raw)
		}
		n, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("must be an integer, got %q", fmt.Sprint(raw))
		}
		if n < a.Min || (a.Max > 0 && n > a.Max) {
			return nil, fmt.Errorf("must be in range %d-%d, got %d", a.Min, a.Max, n)
		}
		return n, nil
	case Choice:
		v, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("must be a string, got %v", raw)
		}
		if !slices.Contains(a.Choices, v) {
			return nil, fmt.Errorf("must be one of %s, got %q", strings.Join(a.Choices, ","), v)
		}
		return v, nil
	default:
		v, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("must be a string, got %v", raw)
		}
		// Lengths count characters, as JSON schema maxLength does.
		n := utf8.RuneCountInString(v)
		if n < a.Min || (a.Max > 0 && n > a.Max) {
			return nil, fmt.Errorf("must be %d-%d characters long, got %d", a.Min, a.Max, n)
		}
		return v, nil
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func hasProblem(problems []string, prefix string) bool {
	for _, p := range problems {
		if strings.HasPrefix(p, prefix+" ") {
			return true
		}
	}
	return false
}

// Schema returns the schema the record was built against.
func (r Record) Schema() *Schema { return r.schema }

// Get returns a populated attribute.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether name is populated.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Fields returns a copy of the populated attributes.
func (r Record) Fields() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Key joins the key attribute values in schema order.
func (r Record) Key() Key {
	if r.schema == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, a := range r.schema.KeyAttributes() {
		parts = append(parts, fmt.Sprint(r.values[a.Name]))
	}
	return Key(strings.Join(parts, "|"))
}

// KeyOnly drops every non-key attribute.
func (r Record) KeyOnly() Record {
	out := Record{schema: r.schema, values: map[string]any{}}
	for _, a := range r.schema.KeyAttributes() {
		out.values[a.Name] = r.values[a.Name]
	}
	return out
}

// With returns a copy of r with name set to v. v must already have the
// attribute type.
func (r Record) With(name string, v any) Record {
	out := Record{schema: r.schema, values: r.Fields()}
	out.values[name] = v
	return out
}

// Dense fills every absent attribute that has a documented default.
func (r Record) Dense() Record {
	out := Record{schema: r.schema, values: r.Fields()}
	for _, a := range r.schema.Attributes {
		if _, ok := out.values[a.Name]; ok || a.Default == nil {
			continue
		}
		out.values[a.Name] = a.Default(r.KeyOnly())
	}
	return out
}

// Equal reports whether both records hold the same populated attributes.
func (r Record) Equal(o Record) bool {
	if len(r.values) != len(o.values) {
		return false
	}
	for k, v := range r.values {
		ov, ok := o.values[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

func (r Record) String() string {
	var parts []string
	for _, a := range r.schema.Attributes {
		if v, ok := r.values[a.Name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", a.Name, v))
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// MarshalYAML emits the populated attributes in schema order.
func (r Record) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, a := range r.schema.Attributes {
		v, ok := r.values[a.Name]
		if !ok {
			continue
		}
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: a.Name}, &val)
	}
	return node, nil
}

// MarshalJSON emits the populated attributes in schema order.
func (r Record) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	n := 0
	for _, a := range r.schema.Attributes {
		v, ok := r.values[a.Name]
		if !ok {
			continue
		}
		if n > 0 {
			b.WriteByte(',')
		}
		n++
		name, _ := json.Marshal(a.Name)
		b.Write(name)
		b.WriteByte(':')
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		b.Write(data)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
