package reconcile

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"aos8ctl/pkg/resource"
)

// Result is what an invocation hands back to the caller. Which fields are
// reported depends on the state: mutating states report before, after and
// commands; rendered, gathered and parsed report only their own key.
type Result struct {
	Resource string
	State    resource.State
	Changed  bool
	Before   resource.RecordSet
	After    resource.RecordSet
	Commands []string
	Rendered []string
	Gathered resource.RecordSet
	Parsed   resource.RecordSet
}

type field struct {
	name  string
	value any
}

func (r Result) fields() []field {
	out := []field{{"changed", r.Changed}}
	switch r.State {
	case resource.Rendered:
		out = append(out, field{"rendered", nonNil(r.Rendered)})
	case resource.Gathered:
		out = append(out, field{"gathered", r.Gathered})
	case resource.Parsed:
		out = append(out, field{"parsed", r.Parsed})
	default:
		out = append(out,
			field{"before", r.Before},
			field{"after", r.After},
			field{"commands", nonNil(r.Commands)},
		)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r Result) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range r.fields() {
		var v yaml.Node
		if err := v.Encode(f.value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.name}, &v)
	}
	return node, nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range r.fields() {
		if i > 0 {
			b.WriteByte(',')
		}
		name, _ := json.Marshal(f.name)
		b.Write(name)
		b.WriteByte(':')
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
