package resource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"aos8ctl/pkg/errs"
)

// JSONSchema returns the draft-07 document validating a desired config list.
// In the deleted state only key attributes are required.
func (s *Schema) JSONSchema(st State) map[string]any {
	props := make(map[string]any, len(s.Attributes))
	required := []string{}
	for _, a := range s.Attributes {
		p := map[string]any{}
		if a.Doc != "" {
			p["description"] = a.Doc
		}
		switch a.Type {
		case Int:
			p["type"] = "integer"
			p["minimum"] = a.Min
			if a.Max > 0 {
				p["maximum"] = a.Max
			}
		case Choice:
			p["type"] = "string"
			p["enum"] = a.Choices
		default:
			p["type"] = []string{"string", "integer"}
			if a.Max > 0 {
				p["maxLength"] = a.Max
			}
		}
		props[a.Name] = p
		if a.Key || (a.Required && st != Deleted) {
			required = append(required, a.Name)
		}
	}
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"title":   s.Resource,
		"type":    "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           props,
			"required":             required,
		},
	}
}

// Desired validates raw user config and builds the desired record set. Every
// problem in the input is reported at once; nothing is returned on failure.
func (s *Schema) Desired(config []map[string]any, st State) (RecordSet, error) {
	cleaned := make([]any, 0, len(config))
	for _, item := range config {
		m := make(map[string]any, len(item))
		for k, v := range item {
			if v != nil {
				m[k] = v
			}
		}
		cleaned = append(cleaned, m)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(s.JSONSchema(st)),
		gojsonschema.NewGoLoader(cleaned),
	)
	if err != nil {
		return RecordSet{}, fmt.Errorf("%s: validating config: %w", s.Resource, err)
	}
	if !result.Valid() {
		var problems []string
		for _, re := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", configPath(re.Context().String()), re.Description()))
		}
		return RecordSet{}, errs.Validation(s.Resource, problems)
	}

	var problems []string
	records := make([]Record, 0, len(config))
	for i, item := range cleaned {
		path := fmt.Sprintf("config[%d]", i)
		r, p := s.build(item.(map[string]any), path)
		problems = append(problems, p...)
		if len(p) > 0 {
			continue
		}
		if st == Deleted {
			r = r.KeyOnly()
		} else if s.Check != nil {
			for _, msg := range s.Check(r) {
				problems = append(problems, path+"."+msg)
			}
		}
		records = append(records, r)
	}
	if err := errs.Validation(s.Resource, problems); err != nil {
		return RecordSet{}, err
	}
	return NewRecordSet(s, records...)
}

// configPath turns a gojsonschema context such as "(root).0.vlan_id" into
// "config[0].vlan_id".
func configPath(context string) string {
	field := strings.TrimPrefix(strings.TrimPrefix(context, "(root)"), ".")
	if field == "" {
		return "config"
	}
	head, rest, _ := strings.Cut(field, ".")
	if _, err := strconv.Atoi(head); err != nil {
		return "config." + field
	}
	if rest == "" {
		return "config[" + head + "]"
	}
	return "config[" + head + "]." + rest
}
