// Package render turns records and attribute deltas into device commands.
package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"aos8ctl/pkg/resource"
)

// Action is the kind of command group to render.
type Action int

const (
	Create Action = iota
	Change
	Remove
)

func (a Action) String() string {
	switch a {
	case Change:
		return "change"
	case Remove:
		return "remove"
	default:
		return "create"
	}
}

// Templates holds the command text of a resource. Attribute templates see
// the record fields by name plus .value, the attribute being rendered.
type Templates struct {
	Attrs  map[string]string
	Remove string
}

// Renderer renders commands for one schema. Attribute commands always come
// out in schema order, whatever order a delta lists them in.
type Renderer struct {
	schema *resource.Schema
	attrs  map[string]*template.Template
	remove *template.Template
}

// FuncMap is sprig's text functions plus cliquote.
func FuncMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["cliquote"] = Quote
	return fm
}

// New parses every template once.
func New(s *resource.Schema, t Templates) (*Renderer, error) {
	r := &Renderer{schema: s, attrs: make(map[string]*template.Template, len(t.Attrs))}
	for name, text := range t.Attrs {
		if _, ok := s.Attribute(name); !ok {
			return nil, fmt.Errorf("%s: template for unknown attribute %q", s.Resource, name)
		}
		tmpl, err := template.New(name).Funcs(FuncMap()).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%s: parsing %s template: %w", s.Resource, name, err)
		}
		r.attrs[name] = tmpl
	}
	tmpl, err := template.New("remove").Funcs(FuncMap()).Option("missingkey=error").Parse(t.Remove)
	if err != nil {
		return nil, fmt.Errorf("%s: parsing remove template: %w", s.Resource, err)
	}
	r.remove = tmpl
	return r, nil
}

// Must panics when New fails. Templates are static, so a failure is a bug.
func Must(r *Renderer, err error) *Renderer {
	if err != nil {
		panic(err)
	}
	return r
}

// Render dispatches on action. attrs is only read for Change.
func (r *Renderer) Render(action Action, rec resource.Record, attrs []string) ([]string, error) {
	switch action {
	case Remove:
		return r.Remove(rec)
	case Change:
		return r.Change(rec, attrs)
	default:
		return r.Create(rec)
	}
}

// Create renders the whole record with documented defaults filled in.
func (r *Renderer) Create(rec resource.Record) ([]string, error) {
	dense := rec.Dense()
	var names []string
	for _, a := range r.schema.ValueAttributes() {
		if dense.Has(a.Name) {
			names = append(names, a.Name)
		}
	}
	return r.Change(dense, names)
}

// Change renders the listed attributes of rec.
func (r *Renderer) Change(rec resource.Record, attrs []string) ([]string, error) {
	want := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		want[a] = true
	}
	var out []string
	for _, a := range r.schema.ValueAttributes() {
		if !want[a.Name] {
			continue
		}
		tmpl, ok := r.attrs[a.Name]
		if !ok {
			continue
		}
		v, ok := rec.Get(a.Name)
		if !ok {
			return nil, fmt.Errorf("%s %s: no value for %s", r.schema.Resource, rec.Key(), a.Name)
		}
		data := rec.Fields()
		data["value"] = v
		cmd, err := execute(tmpl, data)
		if err != nil {
			return nil, fmt.Errorf("%s %s: rendering %s: %w", r.schema.Resource, rec.Key(), a.Name, err)
		}
		if cmd != "" {
			out = append(out, cmd)
		}
	}
	return out, nil
}

// Remove renders the commands deleting the record. Only key attributes are
// guaranteed to be present.
func (r *Renderer) Remove(rec resource.Record) ([]string, error) {
	cmd, err := execute(r.remove, rec.KeyOnly().Fields())
	if err != nil {
		return nil, fmt.Errorf("%s %s: rendering remove: %w", r.schema.Resource, rec.Key(), err)
	}
	if cmd == "" {
		return nil, nil
	}
	return []string{cmd}, nil
}

func execute(tmpl *template.Template, data map[string]any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

// Quote wraps v in double quotes when the device CLI would otherwise split
// it into several words.
func Quote(v any) string {
	s := fmt.Sprint(v)
	if s != "" && !strings.ContainsAny(s, " \t\"'") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
