// Package parser turns device show output into records using an ordered
// table of line rules.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"dario.cat/mergo"

	"aos8ctl/pkg/errs"
	"aos8ctl/pkg/render"
	"aos8ctl/pkg/resource"
)

// Rule matches one kind of line. Result maps an attribute name to a template
// evaluated over the named groups of Pattern; an empty expansion leaves the
// attribute unset.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Result  map[string]string
}

type compiledRule struct {
	name    string
	pattern *regexp.Regexp
	fields  map[string]*template.Template
}

// Parser applies its rules top to bottom to every line.
type Parser struct {
	schema *resource.Schema
	rules  []compiledRule
}

// New compiles the field templates of rules.
func New(s *resource.Schema, rules ...Rule) (*Parser, error) {
	p := &Parser{schema: s}
	for _, r := range rules {
		cr := compiledRule{name: r.Name, pattern: r.Pattern, fields: make(map[string]*template.Template, len(r.Result))}
		for attr, text := range r.Result {
			if _, ok := s.Attribute(attr); !ok {
				return nil, fmt.Errorf("%s: rule %s sets unknown attribute %q", s.Resource, r.Name, attr)
			}
			tmpl, err := template.New(r.Name + "." + attr).Funcs(render.FuncMap()).Parse(text)
			if err != nil {
				return nil, fmt.Errorf("%s: rule %s: %w", s.Resource, r.Name, err)
			}
			cr.fields[attr] = tmpl
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

// Must panics when New fails.
func Must(p *Parser, err error) *Parser {
	if err != nil {
		panic(err)
	}
	return p
}

// Parse scans text line by line. Lines matching no rule are skipped. Several
// matches for the same key merge, later fields overwriting earlier ones. The
// result is sorted by key.
func (p *Parser) Parse(text string) (resource.RecordSet, error) {
	merged := map[resource.Key]map[string]any{}
	var order []resource.Key

	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, r := range p.rules {
			m := r.pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			groups := make(map[string]string, len(m))
			for i, name := range r.pattern.SubexpNames() {
				if name != "" {
					groups[name] = m[i]
				}
			}
			fields := make(map[string]any, len(r.fields))
			for attr, tmpl := range r.fields {
				var b strings.Builder
				if err := tmpl.Execute(&b, groups); err != nil {
					return resource.RecordSet{}, errs.Parse(p.schema.Resource, "line %d: rule %s: %v", n+1, r.name, err)
				}
				if v := strings.TrimSpace(b.String()); v != "" {
					fields[attr] = v
				}
			}
			rec, err := p.schema.NewRecord(fields)
			if err != nil {
				return resource.RecordSet{}, errs.Parse(p.schema.Resource, "line %d: %q: %s", n+1, strings.TrimSpace(line), strings.Join(errs.Problems(err), "; "))
			}
			k := rec.Key()
			dst, seen := merged[k]
			if !seen {
				dst = map[string]any{}
				order = append(order, k)
			}
			if err := mergo.Merge(&dst, rec.Fields(), mergo.WithOverride); err != nil {
				return resource.RecordSet{}, errs.Parse(p.schema.Resource, "line %d: merging %s: %v", n+1, k, err)
			}
			merged[k] = dst
		}
	}

	records := make([]resource.Record, 0, len(order))
	for _, k := range order {
		rec, err := p.schema.NewRecord(merged[k])
		if err != nil {
			return resource.RecordSet{}, errs.Parse(p.schema.Resource, "%s: %v", k, err)
		}
		records = append(records, rec)
	}
	rs, err := resource.NewRecordSet(p.schema, records...)
	if err != nil {
		return resource.RecordSet{}, errs.Parse(p.schema.Resource, "%v", err)
	}
	return rs.Sorted(), nil
}
